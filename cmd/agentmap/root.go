package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cfgFile is the shared --config flag every subcommand reads when it
// builds an *app via newApp, grounded on relurpify's root.go
// PersistentFlags()+package-level-var convention for CLI-wide state
// (there --workspace/--config, here just --config since AgentMap has
// no workspace-directory concept of its own).
var cfgFile string

// Execute is the CLI's entry point.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failureStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agentmap",
		Short:         "Run CSV-defined agent graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "agentmap.yaml", "Path to the AgentMap config file")

	root.AddCommand(
		newRunCmd(),
		newCompileCmd(),
		newScaffoldCmd(),
		newValidateCSVCmd(),
		newValidateConfigCmd(),
		newValidateAllCmd(),
		newDiagnoseCmd(),
		newConfigCmd(),
	)
	return root
}
