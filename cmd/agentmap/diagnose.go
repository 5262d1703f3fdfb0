package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentmap-go/agentmap/graphbundle"
)

func newDiagnoseCmd() *cobra.Command {
	var bundleDir string

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Report registered services and bundle staleness",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp(context.Background(), cfgFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render("Registered services"))
			summary := application.registry.Summary()
			for _, id := range summary.Services {
				fmt.Fprintf(out, "  %s %s\n", successStyle.Render("✓"), id)
			}
			fmt.Fprintf(out, "%s %d service(s) registered\n", dimStyle.Render("total:"), summary.TotalServices)

			if bundleDir == "" {
				bundleDir = application.cfg.BundleDir
			}
			if bundleDir == "" {
				return nil
			}

			fmt.Fprintln(out, headerStyle.Render("\nBundle staleness"))
			return reportBundleStaleness(out, bundleDir)
		},
	}
	cmd.Flags().StringVar(&bundleDir, "bundle-dir", "", "Directory of compiled bundle JSON files to check for staleness (default: config bundle_dir)")
	return cmd
}

func reportBundleStaleness(out io.Writer, bundleDir string) error {
	entries, err := os.ReadDir(bundleDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading bundle dir %q: %w", bundleDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(bundleDir, entry.Name())
		bundle, err := graphbundle.Load(path)
		if err != nil {
			fmt.Fprintf(out, "  %s %s: %s\n", failureStyle.Render("unreadable"), entry.Name(), err)
			continue
		}

		srcPath := path[:len(path)-len(filepath.Ext(path))] + ".src"
		src, err := os.ReadFile(srcPath)
		if err != nil {
			fmt.Fprintf(out, "  %s %s (no source snapshot to compare)\n", dimStyle.Render("?"), bundle.Name)
			continue
		}

		if bundle.IsStale(src) {
			fmt.Fprintf(out, "  %s %s\n", suspendStyle.Render("stale"), bundle.Name)
		} else {
			fmt.Fprintf(out, "  %s %s\n", successStyle.Render("current"), bundle.Name)
		}
	}
	return nil
}
