package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentmap-go/agentmap/csvgraph"
	"github.com/agentmap-go/agentmap/graphbundle"
)

func newCompileCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compile <csv> <graph> -o <bundle>",
		Short: "Compile a graph into a persisted bundle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, graphName := args[0], args[1]
			if output == "" {
				output = graphName + ".json"
			}

			bundle, err := csvgraph.ParseGraph(csvPath, graphName)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(csvPath)
			if err != nil {
				return fmt.Errorf("re-reading %s for source snapshot: %w", csvPath, err)
			}

			if err := graphbundle.Save(bundle, output, strings.Split(string(content), "\n")); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("compiled")+" "+graphName+" -> "+output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Path to write the compiled bundle JSON (default <graph>.json)")
	return cmd
}
