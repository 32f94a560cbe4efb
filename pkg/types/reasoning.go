// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// TopicCluster groups topically related papers within one run.
type TopicCluster struct {
	ClusterID   string   `json:"cluster_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PaperIDs    []string `json:"paper_ids"`
	Keywords    []string `json:"keywords"`
	Methods     []string `json:"methods"`
}

// ClusterResult is the artifact of the cluster stage.
type ClusterResult struct {
	Clusters       []TopicCluster `json:"clusters"`
	MainDirections []string       `json:"main_directions"`
}

// Validate checks the cluster set field-by-field against its schema.
// Cluster IDs must be unique within a run.
func (c *ClusterResult) Validate() error {
	if len(c.Clusters) == 0 {
		return fmt.Errorf("clusters: at least one cluster is required")
	}
	seen := make(map[string]bool, len(c.Clusters))
	for i, cl := range c.Clusters {
		if cl.ClusterID == "" {
			return fmt.Errorf("clusters[%d]: cluster_id is empty", i)
		}
		if seen[cl.ClusterID] {
			return fmt.Errorf("clusters[%d]: duplicate cluster_id %q", i, cl.ClusterID)
		}
		seen[cl.ClusterID] = true
		if cl.Name == "" {
			return fmt.Errorf("clusters[%d]: name is empty", i)
		}
		if len(cl.PaperIDs) == 0 {
			return fmt.Errorf("clusters[%d]: paper_ids is empty", i)
		}
	}
	return nil
}

// ClusterIDSet returns the set of cluster IDs, the grounded universe for
// gap cluster references.
func (c ClusterResult) ClusterIDSet() map[string]bool {
	ids := make(map[string]bool, len(c.Clusters))
	for _, cl := range c.Clusters {
		ids[cl.ClusterID] = true
	}
	return ids
}

// ClaimType categorizes a reasoning claim.
type ClaimType string

const (
	ClaimTrend      ClaimType = "trend"
	ClaimComparison ClaimType = "comparison"
	ClaimLimitation ClaimType = "limitation"
	ClaimConsensus  ClaimType = "consensus"
)

// validClaimTypes is the set of accepted ClaimType values.
var validClaimTypes = map[ClaimType]bool{
	ClaimTrend:      true,
	ClaimComparison: true,
	ClaimLimitation: true,
	ClaimConsensus:  true,
}

// Evidence ties a claim to an excerpt from one paper.
type Evidence struct {
	PaperID string `json:"paper_id"`
	Excerpt string `json:"excerpt"`
}

// ReasoningClaim is a single synthesized claim with its supporting papers.
type ReasoningClaim struct {
	ClaimID          string     `json:"claim_id"`
	Type             ClaimType  `json:"claim_type"`
	Statement        string     `json:"statement"`
	SupportingPapers []string   `json:"supporting_papers"`
	Evidence         []Evidence `json:"evidence"`
	Confidence       float64    `json:"confidence"`
}

// ResearchGap describes something the surveyed literature does not cover.
type ResearchGap struct {
	GapID            string   `json:"gap_id"`
	Description      string   `json:"description"`
	RelatedClusters  []string `json:"related_clusters"`
	SupportingPapers []string `json:"supporting_papers"`
	Significance     string   `json:"significance"`
}

// ReasoningDraft is the schema the generation capability fills during the
// reason stage: claims and gaps over an already-grounded cluster set.
type ReasoningDraft struct {
	Claims []ReasoningClaim  `json:"claims"`
	Gaps   []ResearchGap     `json:"research_gaps"`
	Meta   map[string]string `json:"meta"`
}

// Validate checks the draft field-by-field against its schema. Referential
// integrity against the run's paper and cluster universe is a separate,
// later gate.
func (d *ReasoningDraft) Validate() error {
	if len(d.Claims) == 0 {
		return fmt.Errorf("reasoning: claims must not be empty")
	}
	for i, cl := range d.Claims {
		if cl.ClaimID == "" {
			return fmt.Errorf("claims[%d]: claim_id is empty", i)
		}
		if !validClaimTypes[cl.Type] {
			return fmt.Errorf("claims[%d]: invalid claim_type %q", i, cl.Type)
		}
		if cl.Statement == "" {
			return fmt.Errorf("claims[%d]: statement is empty", i)
		}
		if cl.Confidence < 0.0 || cl.Confidence > 1.0 {
			return fmt.Errorf("claims[%d]: confidence %f out of range [0,1]", i, cl.Confidence)
		}
	}
	for i, g := range d.Gaps {
		if g.GapID == "" {
			return fmt.Errorf("research_gaps[%d]: gap_id is empty", i)
		}
		if g.Description == "" {
			return fmt.Errorf("research_gaps[%d]: description is empty", i)
		}
	}
	return nil
}

// ReasoningResult is the artifact of the reason stage: the validated draft
// joined with the grounded cluster set it reasons over.
type ReasoningResult struct {
	Clusters []TopicCluster    `json:"clusters"`
	Claims   []ReasoningClaim  `json:"claims"`
	Gaps     []ResearchGap     `json:"research_gaps"`
	Meta     map[string]string `json:"meta"`
}

// CritiqueResult is the typed verdict of the reviewer pass over a reasoning
// draft. A failed critique carries concrete findings to address.
type CritiqueResult struct {
	Passed   bool     `json:"passed"`
	Findings []string `json:"findings"`
}

// Validate checks the critique against its schema.
func (c *CritiqueResult) Validate() error {
	if !c.Passed && len(c.Findings) == 0 {
		return fmt.Errorf("critique: a failed review must list at least one finding")
	}
	return nil
}

// FinalOutput aggregates every validated stage artifact for one run. It is
// derived purely from persisted artifacts; packaging performs no generation.
type FinalOutput struct {
	RunID    string         `json:"run_id"`
	Topic    string         `json:"topic"`
	Plan     QueryPlan      `json:"plan"`
	Papers   []PaperItem    `json:"papers"`
	Clusters []TopicCluster `json:"clusters"`

	// MainDirections carries the cluster stage's high-level reading of the field.
	MainDirections []string `json:"main_directions"`

	Reasoning   ReasoningResult `json:"reasoning"`
	Warnings    []string        `json:"warnings"`
	GeneratedAt time.Time       `json:"generated_at"`
}
