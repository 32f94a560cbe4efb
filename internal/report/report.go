// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a run's final output as a human-readable markdown
// survey and a CSL-YAML reference list. Rendering is pure formatting over
// already-validated artifacts; it never calls the model.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// RenderMarkdown formats the final output as a markdown survey document.
func RenderMarkdown(out types.FinalOutput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Literature Survey: %s\n\n", out.Topic)
	fmt.Fprintf(&b, "Run `%s`, generated %s. %d papers surveyed.\n\n",
		out.RunID, out.GeneratedAt.Format(time.DateOnly), len(out.Papers))

	if summary := out.Reasoning.Meta["summary"]; summary != "" {
		fmt.Fprintf(&b, "%s\n\n", summary)
	}

	if len(out.Warnings) > 0 {
		b.WriteString("## Caveats\n\n")
		for _, w := range out.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	paperByID := make(map[string]types.PaperItem, len(out.Papers))
	for _, p := range out.Papers {
		paperByID[p.PaperID] = p
	}

	if len(out.MainDirections) > 0 {
		b.WriteString("## Research Landscape\n\n")
		for _, dir := range out.MainDirections {
			fmt.Fprintf(&b, "- %s\n", dir)
		}
		b.WriteString("\n")
	}

	for _, c := range out.Clusters {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", c.Name, c.Description)
		if len(c.Keywords) > 0 {
			fmt.Fprintf(&b, "Keywords: %s\n\n", strings.Join(c.Keywords, ", "))
		}
		for _, id := range c.PaperIDs {
			if p, ok := paperByID[id]; ok {
				fmt.Fprintf(&b, "- %s\n", citation(p))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	for _, claim := range out.Reasoning.Claims {
		fmt.Fprintf(&b, "**%s** (%s, confidence %.2f)\n\n", claim.Statement, claim.Type, claim.Confidence)
		for _, ev := range claim.Evidence {
			if p, ok := paperByID[ev.PaperID]; ok {
				fmt.Fprintf(&b, "> %s — %s\n\n", ev.Excerpt, citation(p))
			}
		}
	}

	if len(out.Reasoning.Gaps) > 0 {
		b.WriteString("## Research Gaps\n\n")
		for _, gap := range out.Reasoning.Gaps {
			fmt.Fprintf(&b, "- **%s** %s\n", gap.Description, gap.Significance)
		}
		b.WriteString("\n")
	}

	b.WriteString("## References\n\n")
	for _, p := range out.Papers {
		fmt.Fprintf(&b, "- %s\n", citation(p))
	}

	return b.String()
}

// citation formats one paper as an inline reference line.
func citation(p types.PaperItem) string {
	var b strings.Builder
	if len(p.Authors) > 0 {
		first := p.Authors[0]
		if len(p.Authors) > 1 {
			first += " et al."
		}
		b.WriteString(first)
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "%q", p.Title)
	if p.Venue != "" {
		b.WriteString(", " + p.Venue)
	}
	if p.Year != 0 {
		fmt.Fprintf(&b, " (%d)", p.Year)
	}
	if p.URL != "" {
		fmt.Fprintf(&b, ". %s", p.URL)
	}
	return b.String()
}
