// Package sdk drives reconstruction over the whole object table and
// writes the generated Rust source.
package sdk

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/internal/classify"
	"github.com/skdltmxn/sdkgen/internal/emit"
	"github.com/skdltmxn/sdkgen/internal/enums"
	"github.com/skdltmxn/sdkgen/internal/layout"
)

// CrateAttributes silence lints the generated names cannot satisfy.
const CrateAttributes = "#![allow(bindings_with_variant_name)]\n" +
	"#![allow(clippy::doc_markdown)]\n" +
	"#![allow(dead_code)]\n" +
	"#![allow(non_camel_case_types)]\n" +
	"#![allow(non_snake_case)]\n"

// Imports are the items the generated source refers to.
const Imports = "use crate::GLOBAL_OBJECTS;\n" +
	"use crate::game::{self, Array, FString, NameIndex, ScriptDelegate, ScriptInterface};\n" +
	"use std::mem::MaybeUninit;\n" +
	"use std::ops::{Deref, DerefMut};\n"

// DefaultPreamble starts every generated file.
const DefaultPreamble = CrateAttributes + "\n" + Imports + "\n"

// Observer is told about every object the generator finishes.
type Observer interface {
	ObjectEmitted(kind graph.Kind)
	ObjectFailed(kind graph.Kind, reason string)
}

// Options configures a Generator.
type Options struct {
	Logger   *slog.Logger
	Observer Observer

	// Preamble replaces DefaultPreamble when set.
	Preamble string

	// SkipPreamble writes no preamble at all.
	SkipPreamble bool

	// AutoDisambiguate qualifies every type name that more than one
	// object shares, in addition to the configured denylist.
	AutoDisambiguate bool
}

// Report summarizes one run.
type Report struct {
	Objects  int                // Objects visited
	Emitted  map[graph.Kind]int // Objects written, by kind
	Skipped  int                // Objects with no representation
	Failures []Failure
	Duration time.Duration
}

// Total returns the number of objects written.
func (r *Report) Total() int {
	n := 0
	for _, c := range r.Emitted {
		n += c
	}
	return n
}

// Generator renders reflected types as Rust source.
type Generator struct {
	g       *graph.Graph
	markers *graph.Markers

	layouts *layout.Reconstructor
	enums   *enums.Normalizer

	opts Options
	log  *slog.Logger
}

// New creates a Generator. The markers must come from g.
func New(g *graph.Graph, markers *graph.Markers, opts Options) *Generator {
	c := classify.New(g, markers)
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		g:       g,
		markers: markers,
		layouts: layout.New(g, c),
		enums:   enums.New(g),
		opts:    opts,
		log:     log,
	}
}

// Generate writes the source for every object in table order. Objects
// that fail are recorded in the report and leave no output; only setup,
// sink and cancellation errors stop the run. Writes to w are buffered and
// flushed before Generate returns.
func (gen *Generator) Generate(ctx context.Context, w io.Writer) (*Report, error) {
	start := time.Now()
	report := &Report{Emitted: make(map[graph.Kind]int)}

	bw := bufio.NewWriter(w)
	err := gen.generate(ctx, bw, report)
	if ferr := bw.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("%w: %w", ErrSink, ferr)
	}
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}

	gen.log.Info("generation finished",
		"objects", report.Objects,
		"emitted", report.Total(),
		"skipped", report.Skipped,
		"failed", len(report.Failures),
		"duration", report.Duration)
	return report, nil
}

func (gen *Generator) generate(ctx context.Context, w io.Writer, report *Report) error {
	if gen.opts.AutoDisambiguate {
		if err := gen.disambiguate(ctx); err != nil {
			return err
		}
	}

	if !gen.opts.SkipPreamble {
		preamble := gen.opts.Preamble
		if preamble == "" {
			preamble = DefaultPreamble
		}
		if _, err := io.WriteString(w, preamble); err != nil {
			return fmt.Errorf("%w: %w", ErrSink, err)
		}
	}

	var buf bytes.Buffer
	for obj, err := range gen.g.Objects() {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Objects++

		kind := gen.markers.Kind(obj)
		if !renderable(kind) {
			continue
		}

		buf.Reset()
		ew := emit.NewWriter(&buf)
		emitted, err := gen.render(ew, obj, kind)
		if err == nil {
			err = ew.Err()
		}
		if err != nil {
			gen.fail(report, obj, kind, err)
			continue
		}
		if !emitted {
			report.Skipped++
			continue
		}

		if _, err := w.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("%w: %w", ErrSink, err)
		}
		report.Emitted[kind]++
		if gen.opts.Observer != nil {
			gen.opts.Observer.ObjectEmitted(kind)
		}
		gen.log.Debug("emitted object", "addr", obj.Addr.String(), "kind", kind.String())
	}

	return nil
}

// Render writes the source of a single object. Nothing is written when
// it fails or has no representation.
func (gen *Generator) Render(w io.Writer, obj graph.Object) error {
	var buf bytes.Buffer
	ew := emit.NewWriter(&buf)
	if _, err := gen.render(ew, obj, gen.markers.Kind(obj)); err != nil {
		return err
	}
	if err := ew.Err(); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrSink, err)
	}
	return nil
}

func renderable(kind graph.Kind) bool {
	switch kind {
	case graph.KindConst, graph.KindEnum, graph.KindScriptStruct, graph.KindClass:
		return true
	}
	return false
}

func (gen *Generator) fail(report *Report, obj graph.Object, kind graph.Kind, err error) {
	name, _ := obj.FullName()
	f := Failure{Addr: obj.Addr, Name: name, Kind: kind, Err: err}
	report.Failures = append(report.Failures, f)

	reason := Reason(err)
	if gen.opts.Observer != nil {
		gen.opts.Observer.ObjectFailed(kind, reason)
	}
	gen.log.Warn("skipping object",
		"addr", obj.Addr.String(),
		"name", name,
		"kind", kind.String(),
		"reason", reason,
		"err", err)
}

// render writes one object. It reports false for objects that have no
// representation, such as enums without variants.
func (gen *Generator) render(w *emit.Writer, obj graph.Object, kind graph.Kind) (bool, error) {
	switch kind {
	case graph.KindConst:
		return true, gen.writeConst(w, obj.AsConst())
	case graph.KindEnum:
		return gen.writeEnum(w, obj.AsEnum())
	case graph.KindScriptStruct:
		_, err := gen.writeStruct(w, obj.AsStruct())
		return true, err
	case graph.KindClass:
		return true, gen.writeClass(w, obj.AsStruct())
	}
	return false, nil
}

// disambiguate adds every type name used by more than one object to the
// graph's duplicate list.
func (gen *Generator) disambiguate(ctx context.Context) error {
	counts := make(map[string]int)
	for obj, err := range gen.g.Objects() {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		switch gen.markers.Kind(obj) {
		case graph.KindEnum, graph.KindScriptStruct, graph.KindClass:
		default:
			continue
		}
		name, err := obj.Name()
		if err != nil {
			continue
		}
		counts[name]++
	}

	var dups []string
	for name, n := range counts {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	gen.g.AddDuplicates(dups...)
	gen.log.Info("auto disambiguation", "names", len(dups))
	return nil
}
