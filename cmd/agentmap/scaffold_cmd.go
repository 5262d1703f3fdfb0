package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentmap-go/agentmap/csvgraph"
	"github.com/agentmap-go/agentmap/graphbundle"
)

func newScaffoldCmd() *cobra.Command {
	var graphName string
	var agentsDir string
	var funcsDir string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "scaffold <csv>",
		Short: "Emit stub Go files for unknown AgentTypes and func: references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath := args[0]

			bundles, err := csvgraph.ParseFile(csvPath)
			if err != nil {
				return err
			}

			factories := builtinFactoryPresence()
			var total scaffoldResult
			for name, bundle := range selectGraphs(bundles, graphName) {
				r, err := scaffoldGraph(bundle, agentsDir, funcsDir, factories, overwrite)
				if err != nil {
					return fmt.Errorf("scaffolding graph %q: %w", name, err)
				}
				total.ScaffoldedAgents = append(total.ScaffoldedAgents, r.ScaffoldedAgents...)
				total.ScaffoldedFuncs = append(total.ScaffoldedFuncs, r.ScaffoldedFuncs...)
				total.SkippedBuiltin = append(total.SkippedBuiltin, r.SkippedBuiltin...)
				total.SkippedExisting = append(total.SkippedExisting, r.SkippedExisting...)
			}

			printScaffoldResult(cmd, total)
			return nil
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "", "Scaffold only this graph name (default: every graph in the CSV)")
	cmd.Flags().StringVar(&agentsDir, "agents-dir", "./customagents", "Directory to write generated agent stubs into")
	cmd.Flags().StringVar(&funcsDir, "funcs-dir", "./customfuncs", "Directory to write generated func: stubs into")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing stub files")
	return cmd
}

func selectGraphs(bundles map[string]*graphbundle.Bundle, graphName string) map[string]*graphbundle.Bundle {
	if graphName == "" {
		return bundles
	}
	if b, ok := bundles[graphName]; ok {
		return map[string]*graphbundle.Bundle{graphName: b}
	}
	return nil
}

func printScaffoldResult(cmd *cobra.Command, r scaffoldResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("Scaffold"))
	fmt.Fprintf(out, "%s %d agent stub(s), %d function stub(s)\n",
		successStyle.Render("generated:"), len(r.ScaffoldedAgents), len(r.ScaffoldedFuncs))
	if len(r.SkippedExisting) > 0 {
		fmt.Fprintf(out, "%s %d file(s) already existed (use --overwrite)\n", dimStyle.Render("skipped:"), len(r.SkippedExisting))
	}
	if len(r.SkippedBuiltin) > 0 {
		fmt.Fprintf(out, "%s %d builtin AgentType reference(s)\n", dimStyle.Render("ignored:"), len(r.SkippedBuiltin))
	}
}
