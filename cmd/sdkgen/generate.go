package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/sdkgen/internal/metrics"
	"github.com/skdltmxn/sdkgen/sdk"
)

var (
	generateMetricsFile string
	generateFailures    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate Rust source for every reflected type",
	Long: `Generate Rust source for every constant, enum, struct and class in the
object table, in table order.

Objects that cannot be reconstructed are skipped and reported; the run only
stops on setup errors, output errors or an interrupt.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateMetricsFile, "metrics-file", "m", "", "write Prometheus metrics to this textfile")
	generateCmd.Flags().BoolVar(&generateFailures, "failures", false, "print every skipped object to stderr")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	metricsFile := generateMetricsFile
	if metricsFile == "" {
		metricsFile = cfg.Metrics.Path
	}

	t, err := openTarget()
	if err != nil {
		return err
	}
	defer t.Close()

	recorder := metrics.New()
	gen, err := t.generator(recorder)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if cmd != nil {
		ctx = cmd.Context()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	start := time.Now()
	report, err := gen.Generate(ctx, output)
	recorder.RunFinished(time.Since(start), err == nil)

	if metricsFile != "" {
		if werr := recorder.WriteToTextfile(metricsFile); werr != nil {
			logger.Warn("failed to write metrics", "path", metricsFile, "err", werr)
		}
	}
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	printSummary(report)
	return nil
}

func printSummary(report *sdk.Report) {
	fmt.Fprintf(os.Stderr, "Objects: %d\n", report.Objects)
	fmt.Fprintf(os.Stderr, "Emitted: %d (skipped %d empty)\n", report.Total(), report.Skipped)

	kinds := make([]string, 0, len(report.Emitted))
	counts := make(map[string]int, len(report.Emitted))
	for k, n := range report.Emitted {
		kinds = append(kinds, k.String())
		counts[k.String()] = n
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(os.Stderr, "  %-8s %d\n", k, counts[k])
	}

	fmt.Fprintf(os.Stderr, "Failed: %d\n", len(report.Failures))
	if generateFailures {
		for _, f := range report.Failures {
			fmt.Fprintf(os.Stderr, "  %-18s %s\n", sdk.Reason(f.Err), f.Error())
		}
	}
	fmt.Fprintf(os.Stderr, "Duration: %s\n", report.Duration.Round(time.Millisecond))
}
