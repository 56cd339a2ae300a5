package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hereon-GEMS/pydidas-sub009/selector"
)

func newResultsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Work with result selections",
	}
	cmd.AddCommand(newResultsSelectCommand())
	return cmd
}

func newResultsSelectCommand() *cobra.Command {
	var (
		shapeArg   string
		targetDims int
		timeline   int
		valueMode  bool
	)

	cmd := &cobra.Command{
		Use:   "select <pattern>...",
		Short: "Resolve selection patterns against a result shape",
		Long: "Resolve one slicing pattern per dimension against a declared " +
			"result shape and print the selected indices for each dimension.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := parseShape(shapeArg)
			if err != nil {
				return err
			}

			sel := &selector.Selector{
				Patterns:     args,
				ValueMode:    valueMode,
				TimelineDims: timeline,
				TargetDims:   targetDims,
			}
			selection, err := sel.Resolve(shape, nil)
			if err != nil {
				return err
			}

			for dim, indices := range selection {
				fmt.Fprintf(cmd.OutOrStdout(), "dim %d: %v\n", dim, indices)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active dimensions: %d\n", selection.ActiveDims())
			return nil
		},
	}
	cmd.Flags().StringVar(&shapeArg, "shape", "", "Result shape, e.g. 100,256,256 (required)")
	cmd.Flags().IntVar(&targetDims, "target-dims", -1,
		"Required number of active dimensions (-1 disables the check)")
	cmd.Flags().IntVar(&timeline, "timeline", 0,
		"Collapse the leading N dimensions into one frame timeline")
	cmd.Flags().BoolVar(&valueMode, "value-mode", false,
		"Interpret pattern numbers as axis values instead of indices")
	cmd.MarkFlagRequired("shape")
	return cmd
}

func parseShape(arg string) ([]int, error) {
	parts := strings.Split(arg, ",")
	shape := make([]int, 0, len(parts))
	for _, part := range parts {
		extent, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || extent <= 0 {
			return nil, fmt.Errorf("invalid shape extent %q", part)
		}
		shape = append(shape, extent)
	}
	return shape, nil
}
