package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	namesFilter string
	namesLimit  int
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List entries of the name table",
	Long:  `List every resolvable entry of the global name table as "[index] text".`,
	Args:  cobra.NoArgs,
	RunE:  runNames,
}

func init() {
	namesCmd.Flags().StringVarP(&namesFilter, "filter", "f", "", "filter by substring")
	namesCmd.Flags().IntVarP(&namesLimit, "limit", "n", 0, "limit number of names shown (0 = unlimited)")
}

func runNames(cmd *cobra.Command, args []string) error {
	t, err := openTarget()
	if err != nil {
		return err
	}
	defer t.Close()

	count := 0
	for i, text := range t.graph.Names() {
		if namesFilter != "" && !strings.Contains(text, namesFilter) {
			continue
		}
		fmt.Fprintf(output, "[%d] %s\n", i, text)

		count++
		if namesLimit > 0 && count >= namesLimit {
			break
		}
	}

	fmt.Fprintf(output, "\nTotal: %d names\n", count)
	return nil
}
