package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/memory"
	"github.com/skdltmxn/sdkgen/sdk"
)

// target is an opened memory source with the graph read from it.
type target struct {
	src   io.Closer
	graph *graph.Graph
}

func (t *target) Close() error {
	return t.src.Close()
}

type source interface {
	io.ReaderAt
	io.Closer
}

func openSource() (source, string, error) {
	switch {
	case cfg.Target.Pid > 0:
		p, err := memory.OpenProcess(cfg.Target.Pid)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open process: %w", err)
		}
		return p, fmt.Sprintf("pid %d", cfg.Target.Pid), nil
	case len(cfg.Target.Images) > 0:
		img, err := memory.OpenImage(cfg.Target.Images)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open image: %w", err)
		}
		return img, fmt.Sprintf("%d image region(s)", len(img.Regions())), nil
	default:
		return nil, "", errors.New("no memory source: use --pid or --image")
	}
}

// openTarget opens the configured memory source and the graph over it.
func openTarget() (*target, error) {
	if cfg.Target.Objects == 0 || cfg.Target.Names == 0 {
		return nil, errors.New("object and name table addresses are required: use --objects and --names")
	}

	src, desc, err := openSource()
	if err != nil {
		return nil, err
	}

	mem, err := memory.NewReader(src,
		memory.WithPointerSize(int(cfg.Layout.PointerSize)),
		memory.WithPageCache(cfg.Cache.Pages))
	if err != nil {
		src.Close()
		return nil, err
	}

	g, err := graph.New(mem, cfg.Layout, cfg.Target.Objects.Addr(), cfg.Target.Names.Addr(),
		graph.WithDenylist(cfg.Names.Denylist...),
		graph.WithNameCache(cfg.Cache.Names),
		graph.WithMaxChain(cfg.Target.MaxChain))
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}

	logger.Debug("opened target",
		"source", desc,
		"objects", cfg.Target.Objects.String(),
		"names", cfg.Target.Names.String())
	return &target{src: src, graph: g}, nil
}

// generator locates the markers and builds a generator from the config.
func (t *target) generator(observer sdk.Observer) (*sdk.Generator, error) {
	markers, err := t.graph.FindMarkers()
	if err != nil {
		return nil, fmt.Errorf("failed to find static classes: %w", err)
	}
	return sdk.New(t.graph, markers, sdk.Options{
		Logger:           logger,
		Observer:         observer,
		Preamble:         cfg.Output.Preamble,
		SkipPreamble:     cfg.Output.SkipPreamble,
		AutoDisambiguate: cfg.Names.AutoDisambiguate,
	}), nil
}
