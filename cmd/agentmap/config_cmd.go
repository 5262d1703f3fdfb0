package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentmap-go/agentmap/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration (file + env overrides + defaults)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render("Resolved configuration"))
			fmt.Fprintf(out, "csv_path:     %s\n", cfg.CSVPath)
			fmt.Fprintf(out, "bundle_dir:   %s\n", cfg.BundleDir)
			fmt.Fprintf(out, "scaffold_dir: %s\n", cfg.ScaffoldDir)
			fmt.Fprintf(out, "skills_dir:   %s\n", cfg.SkillsDir)
			fmt.Fprintf(out, "logging:      backend=%s level=%s\n", cfg.Logging.Backend, cfg.Logging.Level)
			fmt.Fprintf(out, "checkpoint:   kind=%s\n", cfg.Checkpoint.Kind)
			fmt.Fprintf(out, "llm:          mode=%s model=%s\n", cfg.LLM.Mode, cfg.LLM.DefaultModel)
			fmt.Fprintf(out, "storage:      kv_path=%s\n", cfg.Storage.KVPath)

			if err := config.Validate(cfg); err != nil {
				fmt.Fprintln(out, failureStyle.Render("invalid: ")+err.Error())
				return err
			}
			fmt.Fprintln(out, successStyle.Render("valid"))
			return nil
		},
	}
}
