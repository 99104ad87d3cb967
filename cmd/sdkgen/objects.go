package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/sdkgen/graph"
)

var (
	objectsKind   string
	objectsFilter string
	objectsLimit  int
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "List objects in the object table",
	Long: `List every object of the global object table as "[index] FullName address".

Use --kind to keep one kind (const, enum, struct, class, function, property)
and --filter to keep names containing a substring.`,
	Args: cobra.NoArgs,
	RunE: runObjects,
}

func init() {
	objectsCmd.Flags().StringVarP(&objectsKind, "kind", "k", "", "filter by object kind")
	objectsCmd.Flags().StringVarP(&objectsFilter, "filter", "f", "", "filter by full name substring")
	objectsCmd.Flags().IntVarP(&objectsLimit, "limit", "n", 0, "limit number of objects shown (0 = unlimited)")
}

func runObjects(cmd *cobra.Command, args []string) error {
	var kindFilter graph.Kind
	if objectsKind != "" {
		k, ok := graph.ParseKind(strings.ToLower(objectsKind))
		if !ok {
			return fmt.Errorf("unknown object kind: %s", objectsKind)
		}
		kindFilter = k
	}

	t, err := openTarget()
	if err != nil {
		return err
	}
	defer t.Close()

	var markers *graph.Markers
	if kindFilter != graph.KindUnknown {
		if markers, err = t.graph.FindMarkers(); err != nil {
			return fmt.Errorf("failed to find static classes: %w", err)
		}
	}

	count := 0
	for obj, err := range t.graph.Objects() {
		if err != nil {
			return err
		}
		if markers != nil && markers.Kind(obj) != kindFilter {
			continue
		}

		name, err := obj.FullName()
		if err != nil {
			name = fmt.Sprintf("<%v>", err)
		}
		if objectsFilter != "" && !strings.Contains(name, objectsFilter) {
			continue
		}

		index, err := obj.Index()
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "[%d] %s %s\n", index, name, obj)

		count++
		if objectsLimit > 0 && count >= objectsLimit {
			break
		}
	}

	fmt.Fprintf(output, "\nTotal: %d objects\n", count)
	return nil
}
