// Package metrics counts generation results in a Prometheus registry that
// can be written out as a node exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/skdltmxn/sdkgen/graph"
)

const namespace = "sdkgen"

// Recorder holds the metrics of one run. It satisfies sdk.Observer.
type Recorder struct {
	registry *prometheus.Registry

	// objectsTotal counts emitted objects.
	// Labels: kind (const, enum, struct, class)
	objectsTotal *prometheus.CounterVec

	// failuresTotal counts abandoned objects.
	// Labels: kind, reason (see sdk.Reason)
	failuresTotal *prometheus.CounterVec

	runSeconds  prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		objectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_emitted_total",
			Help:      "Objects written to the generated source by kind",
		}, []string{"kind"}),
		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_failed_total",
			Help:      "Objects abandoned during generation by kind and reason",
		}, []string{"kind", "reason"}),
		runSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last generation run",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last run finished without a fatal error",
		}),
	}
}

// Registry returns the registry the metrics live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObjectEmitted records a written object.
func (r *Recorder) ObjectEmitted(kind graph.Kind) {
	r.objectsTotal.WithLabelValues(kind.String()).Inc()
}

// ObjectFailed records an abandoned object.
func (r *Recorder) ObjectFailed(kind graph.Kind, reason string) {
	r.failuresTotal.WithLabelValues(kind.String(), reason).Inc()
}

// RunFinished records the duration of a run. A successful run also
// stamps the completion time.
func (r *Recorder) RunFinished(d time.Duration, ok bool) {
	r.runSeconds.Set(d.Seconds())
	if ok {
		r.lastSuccess.SetToCurrentTime()
	}
}

// WriteToTextfile writes every metric to path in the text exposition
// format, replacing the file atomically.
func (r *Recorder) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
