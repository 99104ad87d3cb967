package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/sdk"
)

var (
	dumpFormat string
	dumpKind   string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the reconstructed model of every type",
	Long: `Dump the reconstructed model of every constant, enum, struct and class
in structured format.

Supported formats:
  - text: Human-readable text (default)
  - json: JSON format`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "text", "output format (text, json)")
	dumpCmd.Flags().StringVarP(&dumpKind, "kind", "k", "", "only dump one kind (const, enum, struct, class)")
}

type SDKDump struct {
	Objects  string        `json:"objects"`
	Names    string        `json:"names"`
	Entities []*sdk.Entity `json:"entities"`
	Failures []FailureDump `json:"failures,omitempty"`
}

type FailureDump struct {
	Addr   string `json:"addr"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

func runDump(cmd *cobra.Command, args []string) error {
	if dumpFormat != "text" && dumpFormat != "json" {
		return fmt.Errorf("unknown format: %s", dumpFormat)
	}

	kinds := map[graph.Kind]bool{
		graph.KindConst:        true,
		graph.KindEnum:         true,
		graph.KindScriptStruct: true,
		graph.KindClass:        true,
	}
	if dumpKind != "" {
		k, ok := graph.ParseKind(strings.ToLower(dumpKind))
		if !ok || !kinds[k] {
			return fmt.Errorf("unknown kind: %s", dumpKind)
		}
		kinds = map[graph.Kind]bool{k: true}
	}

	t, err := openTarget()
	if err != nil {
		return err
	}
	defer t.Close()

	markers, err := t.graph.FindMarkers()
	if err != nil {
		return fmt.Errorf("failed to find static classes: %w", err)
	}
	gen, err := t.generator(nil)
	if err != nil {
		return err
	}

	dump := &SDKDump{
		Objects: t.graph.ObjectsAddr().String(),
		Names:   t.graph.NamesAddr().String(),
	}
	for obj, err := range t.graph.Objects() {
		if err != nil {
			return err
		}
		kind := markers.Kind(obj)
		if !kinds[kind] {
			continue
		}

		e, err := gen.Describe(obj)
		if err != nil {
			dump.Failures = append(dump.Failures, FailureDump{
				Addr:   obj.Addr.String(),
				Kind:   kind.String(),
				Reason: sdk.Reason(err),
				Error:  err.Error(),
			})
			continue
		}
		dump.Entities = append(dump.Entities, e)
	}

	if dumpFormat == "json" {
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(dump)
	}

	for i, e := range dump.Entities {
		if i > 0 {
			fmt.Fprintln(output)
		}
		printEntity(e)
	}

	if len(dump.Failures) > 0 {
		fmt.Fprintln(output)
		fmt.Fprintln(output, "=== Failures ===")
		for _, f := range dump.Failures {
			fmt.Fprintf(output, "%-10s %-8s %-18s %s\n", f.Addr, f.Kind, f.Reason, f.Error)
		}
	}

	fmt.Fprintf(output, "\nTotal: %d entities, %d failures\n", len(dump.Entities), len(dump.Failures))
	return nil
}
