// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/pipeline"
	"github.com/pdiddy/survey-engine/internal/runstore"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [run-id]",
	Short: "Show the status and artifacts of a run",
	Long: `Inspect prints the per-stage status of a run and lists its artifacts.
Without a run-id it inspects the most recent run. With --warnings it also
prints the warnings recorded in the final output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()

		id := ""
		if len(args) == 1 {
			id = args[0]
		} else {
			latest, err := runstore.LatestRunID(cfg.RunsDir)
			if err != nil {
				return err
			}
			id = latest
		}

		run, err := runstore.OpenRun(cfg.RunsDir, id)
		if err != nil {
			return err
		}
		defer run.Close()

		status, err := run.ReadStatus()
		if err != nil {
			return err
		}

		fmt.Printf("Run %s\nTopic: %s\n\nStages:\n", status.RunID, status.Topic)
		for _, stage := range types.Stages {
			fmt.Printf("  %-10s %s\n", stage, status.Stages[stage])
		}
		if status.Error != nil {
			fmt.Printf("\nError in %s: %s\n", status.Error.Stage, status.Error.Message)
		}

		entries, err := os.ReadDir(run.Dir)
		if err != nil {
			return err
		}
		fmt.Println("\nArtifacts:")
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			fmt.Printf("  %-18s %8d bytes\n", e.Name(), info.Size())
		}

		if show, _ := cmd.Flags().GetBool("warnings"); show {
			var final types.FinalOutput
			if err := run.ReadArtifact(pipeline.FinalFile, &final); err != nil {
				fmt.Fprintf(os.Stderr, "no final output: %v\n", err)
				return nil
			}
			fmt.Println("\nWarnings:")
			if len(final.Warnings) == 0 {
				fmt.Println("  (none)")
			}
			for _, w := range final.Warnings {
				fmt.Printf("  - %s\n", w)
			}
		}

		fmt.Printf("\nRun directory: %s\n", filepath.Clean(run.Dir))
		return nil
	},
}

func init() {
	inspectCmd.Flags().Bool("warnings", false, "also print warnings from the final output")

	rootCmd.AddCommand(inspectCmd)
}
