package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentmap-go/agentmap/config"
	"github.com/agentmap-go/agentmap/csvgraph"
	"github.com/agentmap-go/agentmap/graphbundle"
)

func newValidateCSVCmd() *cobra.Command {
	var graphName string

	cmd := &cobra.Command{
		Use:   "validate-csv <csv>",
		Short: "Dry-assemble a graph and report validation errors without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath := args[0]

			application, err := newApp(context.Background(), cfgFile)
			if err != nil {
				return err
			}

			bundles, err := csvgraph.ParseFile(csvPath)
			if err != nil {
				return err
			}

			targets := bundles
			if graphName != "" {
				b, ok := bundles[graphName]
				if !ok {
					return fmt.Errorf("no graph named %q in %s", graphName, csvPath)
				}
				targets = map[string]*graphbundle.Bundle{graphName: b}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for name, bundle := range targets {
				if _, err := application.runner.Compile(bundle); err != nil {
					failed++
					fmt.Fprintf(out, "%s %s: %s\n", failureStyle.Render("invalid"), name, err)
					continue
				}
				fmt.Fprintf(out, "%s %s\n", successStyle.Render("valid"), name)
			}
			if failed > 0 {
				return fmt.Errorf("%d graph(s) failed validation", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "", "Validate only this graph name (default: every graph in the CSV)")
	return cmd
}

func newValidateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Validate the AgentMap config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("config valid"))
			return nil
		},
	}
}

func newValidateAllCmd() *cobra.Command {
	var graphName string

	cmd := &cobra.Command{
		Use:   "validate-all <csv>",
		Short: "Validate both the config file and the CSV graph(s)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newValidateConfigCmd().RunE(cmd, nil); err != nil {
				return err
			}
			csvCmd := newValidateCSVCmd()
			if graphName != "" {
				if err := csvCmd.Flags().Set("graph", graphName); err != nil {
					return err
				}
			}
			return csvCmd.RunE(cmd, args)
		},
	}
	cmd.Flags().StringVar(&graphName, "graph", "", "Validate only this graph name (default: every graph in the CSV)")
	return cmd
}
