package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentmap-go/agentmap/csvgraph"
	"github.com/agentmap-go/agentmap/graphrunner"
)

func newRunCmd() *cobra.Command {
	var threadID string
	var resumeValue string

	cmd := &cobra.Command{
		Use:   "run <csv> <graph>",
		Short: "Compile and execute a graph, printing the final state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			csvPath, graphName := args[0], args[1]

			application, err := newApp(ctx, cfgFile)
			if err != nil {
				return err
			}

			bundle, err := csvgraph.ParseGraph(csvPath, graphName)
			if err != nil {
				return err
			}

			var result graphrunner.Result
			if threadID != "" {
				var resumeVal any
				if resumeValue != "" {
					resumeVal = resumeValue
				}
				result, err = application.runner.Resume(ctx, bundle, threadID, resumeVal)
			} else {
				result, err = application.runner.Run(ctx, bundle, map[string]any{})
			}
			if err != nil {
				return err
			}

			printRunResult(cmd, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&threadID, "resume", "", "Thread ID of a suspended run to resume instead of starting a new one")
	cmd.Flags().StringVar(&resumeValue, "resume-value", "", "Value delivered to the suspended node on resume")
	return cmd
}

func printRunResult(cmd *cobra.Command, result graphrunner.Result) {
	out := cmd.OutOrStdout()

	status := "completed-failure"
	label := "FAILED"
	if result.Status == graphrunner.StatusSuspended {
		status, label = "suspended", "SUSPENDED"
	} else if result.Success {
		status, label = "completed-success", "SUCCESS"
	}

	fmt.Fprintln(out, headerStyle.Render("AgentMap run"))
	fmt.Fprintln(out, statusStyle(status).Render(label))
	if result.ThreadID != "" {
		fmt.Fprintln(out, dimStyle.Render("thread: "+result.ThreadID))
	}

	stateJSON, _ := json.MarshalIndent(result.State, "", "  ")
	fmt.Fprintln(out, boxStyle.Render(string(stateJSON)))

	fmt.Fprintf(out, "%s %d node(s) executed\n", dimStyle.Render("summary:"), len(result.Summary.NodeRecords))
}
