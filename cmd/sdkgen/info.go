package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/sdkgen/graph"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display target information",
	Long:  `Display the object and name table sizes, the layout in use and the addresses of the static classes.`,
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	t, err := openTarget()
	if err != nil {
		return err
	}
	defer t.Close()

	g := t.graph
	fmt.Fprintf(output, "Object Table: %s\n", g.ObjectsAddr())
	fmt.Fprintf(output, "Name Table: %s\n", g.NamesAddr())
	fmt.Fprintf(output, "Pointer Size: %d\n", g.Layout().PointerSize)

	objects, err := g.ObjectCount()
	if err != nil {
		return fmt.Errorf("failed to read object table: %w", err)
	}
	fmt.Fprintf(output, "Objects: %d\n", objects)

	names, err := g.NameCount()
	if err == nil {
		fmt.Fprintf(output, "Names: %d\n", names)
	}

	fmt.Fprintf(output, "Denylist: %s\n", strings.Join(g.Duplicates(), ", "))

	markers, err := g.FindMarkers()
	if err != nil {
		fmt.Fprintf(output, "Static Classes: %v\n", err)
		return nil
	}

	fmt.Fprintln(output, "Static Classes:")
	for _, m := range []struct {
		name string
		obj  graph.Object
	}{
		{graph.MarkerClass, markers.Class},
		{graph.MarkerConst, markers.Const},
		{graph.MarkerEnum, markers.Enum},
		{graph.MarkerScriptStruct, markers.ScriptStruct},
		{graph.MarkerFunction, markers.Function},
	} {
		fmt.Fprintf(output, "  %-28s %s\n", m.name, m.obj)
	}
	for _, k := range graph.PropertyKinds() {
		fmt.Fprintf(output, "  %-28s %s\n", "Class Core."+k.ClassName(), markers.Property(k))
	}
	return nil
}
