package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hereon-GEMS/pydidas-sub009/plugin"
)

func newPluginsCommand(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect the plugin catalogue",
	}
	cmd.AddCommand(newPluginsListCommand(app))
	return cmd
}

func newPluginsListCommand(app *appContext) *cobra.Command {
	var kindFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered plugin types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds := []plugin.Kind{plugin.KindInput, plugin.KindProc, plugin.KindOutput}
			if kindFilter != "" {
				kind := plugin.Kind(kindFilter)
				if !kind.Valid() {
					return fmt.Errorf("unknown plugin kind %q", kindFilter)
				}
				kinds = []plugin.Kind{kind}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tCLASS\tVERSION\tDESCRIPTION")
			for _, kind := range kinds {
				metas, err := app.registry.AllOfKind(kind)
				if err != nil {
					return err
				}
				for _, meta := range metas {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						meta.Kind, meta.Name, meta.Class, meta.Version, meta.Description)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&kindFilter, "kind", "", "Filter by kind: input, proc, output")
	return cmd
}
