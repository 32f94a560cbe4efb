// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/gemini"
	"github.com/pdiddy/survey-engine/internal/pipeline"
	"github.com/pdiddy/survey-engine/internal/plan"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Explore topics conversationally before running surveys",
	Long: `Interactive reads topics from stdin. For each topic it prints a short
orientation (summary, key terms, suggested directions and queries) and then
offers to run the full pipeline. Type "exit" or "quit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()
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

		planner := plan.NewPlanner(gen, nil)
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("Enter a research topic (exit to quit).")
		for {
			fmt.Print("topic> ")
			if !scanner.Scan() {
				break
			}
			topic := strings.TrimSpace(scanner.Text())
			if topic == "" {
				continue
			}
			if topic == "exit" || topic == "quit" {
				break
			}

			reply, err := planner.BuildReply(ctx, topic, "")
			if err != nil {
				fmt.Fprintf(os.Stderr, "orientation unavailable: %v\n", err)
			} else {
				fmt.Printf("\n%s\n", reply.TopicSummary)
				if len(reply.KeyTerms) > 0 {
					fmt.Println("\nKey terms:")
					for _, kt := range reply.KeyTerms {
						fmt.Printf("  %s: %s\n", kt.Term, kt.Definition)
					}
				}
				if len(reply.SuggestedDirections) > 0 {
					fmt.Println("\nDirections worth surveying:")
					for _, d := range reply.SuggestedDirections {
						fmt.Printf("  - %s\n", d)
					}
				}
				if len(reply.SuggestedQueries) > 0 {
					fmt.Println("\nSuggested queries:")
					for _, q := range reply.SuggestedQueries {
						fmt.Printf("  - %s\n", q)
					}
				}
				fmt.Println()
			}

			fmt.Print("Run the full survey? [y/N] ")
			if !scanner.Scan() {
				break
			}
			answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if answer != "y" && answer != "yes" {
				continue
			}

			run, err := p.Run(ctx, topic, "")
			if run != nil {
				run.Close()
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
				continue
			}
			fmt.Printf("Run %s complete; artifacts in %s\n", run.ID, run.Dir)
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
