package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/sdkgen/graph"
	"github.com/skdltmxn/sdkgen/internal/config"
	"github.com/skdltmxn/sdkgen/sdk"
)

var (
	lookupSource bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Look up one object by full name or address",
	Long: `Look up one object and print its reconstructed model.

Query can be:
  - Full name: lookup "Class Engine.Actor"
  - Address: lookup 0x1F4A3C0`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().BoolVarP(&lookupSource, "source", "s", false, "also print the generated source")
}

func findObject(g *graph.Graph, query string) (graph.Object, error) {
	if strings.HasPrefix(query, "0x") || strings.HasPrefix(query, "0X") {
		addr, err := config.ParseHex(query)
		if err != nil {
			return graph.Object{}, err
		}
		return g.Object(addr.Addr()), nil
	}
	return g.Find(query)
}

func runLookup(cmd *cobra.Command, args []string) error {
	t, err := openTarget()
	if err != nil {
		return err
	}
	defer t.Close()

	obj, err := findObject(t.graph, args[0])
	if err != nil {
		return err
	}

	gen, err := t.generator(nil)
	if err != nil {
		return err
	}

	e, err := gen.Describe(obj)
	if err != nil {
		return fmt.Errorf("failed to reconstruct %s: %w", obj, err)
	}
	printEntity(e)

	if lookupSource {
		fmt.Fprintln(output)
		if err := gen.Render(output, obj); err != nil {
			return fmt.Errorf("failed to render %s: %w", obj, err)
		}
	}
	return nil
}

func printEntity(e *sdk.Entity) {
	fmt.Fprintf(output, "Name: %s\n", e.Name)
	fmt.Fprintf(output, "Full Name: %s\n", e.FullName)
	fmt.Fprintf(output, "Kind: %s\n", e.Kind)
	fmt.Fprintf(output, "Address: %s\n", e.Addr)
	fmt.Fprintf(output, "Index: %d\n", e.Index)

	if e.Value != "" {
		fmt.Fprintf(output, "Value: %s\n", e.Value)
	}

	if e.Size > 0 {
		fmt.Fprintf(output, "Size: 0x%X\n", e.Size)
	}
	if e.Base != "" {
		fmt.Fprintf(output, "Base: %s (0x%X)\n", e.Base, e.BaseSize)
	}
	if len(e.Fields) > 0 {
		fmt.Fprintf(output, "Fields:\n")
		fmt.Fprintf(output, "  %-8s %-6s %-9s %-32s %s\n", "OFFSET", "SIZE", "KIND", "NAME", "TYPE")
		for _, f := range e.Fields {
			fmt.Fprintf(output, "  0x%04X   0x%-4X %-9s %-32s %s\n", f.Offset, f.Size, f.Kind, f.Name, f.Type)
		}
	}
	if len(e.Accessors) > 0 {
		fmt.Fprintf(output, "Bitfields:\n")
		for _, a := range e.Accessors {
			fmt.Fprintf(output, "  %s bit %-2d %s / %s (%s)\n", a.Backing, a.Bit, a.Getter, a.Setter, a.Property)
		}
	}

	if e.Prefix != "" {
		fmt.Fprintf(output, "Prefix: %s\n", e.Prefix)
	}
	if len(e.Variants) > 0 {
		fmt.Fprintf(output, "Variants:\n")
		for i, v := range e.Variants {
			fmt.Fprintf(output, "  %3d %s\n", i, v)
		}
	}

	if len(e.Methods) > 0 {
		fmt.Fprintf(output, "Methods:\n")
		for _, m := range e.Methods {
			native := ""
			if m.Native {
				native = " [native]"
			}
			fmt.Fprintf(output, "  %s%s\n", m.Name, native)
			printParams(m.Params, "    ")
		}
	}
	if len(e.Params) > 0 {
		if e.Native {
			fmt.Fprintf(output, "Native: true\n")
		}
		fmt.Fprintf(output, "Parameters:\n")
		printParams(e.Params, "  ")
	}
}

func printParams(params []sdk.Param, indent string) {
	for _, p := range params {
		ret := ""
		if p.Return {
			ret = " (return)"
		}
		fmt.Fprintf(output, "%s0x%04X %-3s %s: %s%s\n", indent, p.Offset, p.Direction, p.Name, p.Type, ret)
	}
}
