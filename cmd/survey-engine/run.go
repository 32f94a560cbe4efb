// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/gemini"
	"github.com/pdiddy/survey-engine/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run the full survey pipeline for a topic",
	Long: `Run executes all four pipeline stages for the given topic: query planning,
paper retrieval, topic clustering, and reasoning synthesis. Artifacts land
in a fresh directory under runs/, ending with report.md and references.yaml.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.TrimSpace(strings.Join(args, " "))
		contextNote, _ := cmd.Flags().GetString("context")

		cfg := buildConfig()
		if v, _ := cmd.Flags().GetInt("max-papers"); cmd.Flags().Changed("max-papers") {
			cfg.Retrieval.MaxPapers = v
		}
		if v, _ := cmd.Flags().GetInt("min-year"); cmd.Flags().Changed("min-year") {
			cfg.Retrieval.MinYear = v
		}
		if v, _ := cmd.Flags().GetInt("max-year"); cmd.Flags().Changed("max-year") {
			cfg.Retrieval.MaxYear = v
		}
		if v, _ := cmd.Flags().GetString("model"); cmd.Flags().Changed("model") {
			cfg.AI.Model = v
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()
		gen, err := gemini.New(ctx, cfg.AI)
		if err != nil {
			return err
		}
		p, err := pipeline.New(cfg, gen)
		if err != nil {
			return err
		}
		defer p.Close()

		run, err := p.Run(ctx, topic, contextNote)
		if run != nil {
			defer run.Close()
		}
		if err != nil {
			if run != nil {
				fmt.Fprintf(os.Stderr, "Run %s failed; partial artifacts in %s\n", run.ID, run.Dir)
			}
			return err
		}

		fmt.Printf("Run %s complete.\n", run.ID)
		fmt.Printf("  report:     %s\n", filepath.Join(run.Dir, pipeline.ReportFile))
		fmt.Printf("  references: %s\n", filepath.Join(run.Dir, pipeline.ReferencesFile))
		fmt.Printf("  artifacts:  %s\n", run.Dir)
		return nil
	},
}

func init() {
	runCmd.Flags().String("context", "", "extra context to guide planning")
	runCmd.Flags().Int("max-papers", 0, "paper budget for the final set")
	runCmd.Flags().Int("min-year", 0, "earliest publication year to keep")
	runCmd.Flags().Int("max-year", 0, "latest publication year to keep")
	runCmd.Flags().String("model", "", "AI model identifier")

	rootCmd.AddCommand(runCmd)
}
