// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate enforces referential integrity between generated
// artifacts and the retrieved paper set. Model output that cites a paper the
// run never retrieved is rejected, not patched.
package validate

import (
	"fmt"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// IntegrityError reports the first reference to an unknown identifier.
type IntegrityError struct {
	// Where names the artifact location holding the bad reference, such as
	// "cluster methods_2024" or "claim c3 evidence".
	Where string

	// Kind is the universe the reference should belong to, "paper" or
	// "cluster".
	Kind string

	// Ref is the offending identifier.
	Ref string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity: %s references unknown %s %q", e.Where, e.Kind, e.Ref)
}

const (
	kindPaper   = "paper"
	kindCluster = "cluster"
)

// Clusters checks that every cluster member identifier refers to a retrieved
// paper. It returns the first violation found.
func Clusters(result types.ClusterResult, known map[string]bool) error {
	for _, c := range result.Clusters {
		for _, id := range c.PaperIDs {
			if !known[id] {
				return &IntegrityError{Where: "cluster " + c.ClusterID, Kind: kindPaper, Ref: id}
			}
		}
	}
	return nil
}

// Reasoning checks every paper reference in claims, evidence, and gaps
// against the retrieved set, and every cluster reference in gaps against the
// cluster set. The first violation fails the whole artifact; reasoning with
// fabricated references is worse than no reasoning.
func Reasoning(draft types.ReasoningDraft, knownPapers, knownClusters map[string]bool) error {
	for _, claim := range draft.Claims {
		for _, id := range claim.SupportingPapers {
			if !knownPapers[id] {
				return &IntegrityError{Where: "claim " + claim.ClaimID, Kind: kindPaper, Ref: id}
			}
		}
		for _, ev := range claim.Evidence {
			if !knownPapers[ev.PaperID] {
				return &IntegrityError{Where: "claim " + claim.ClaimID + " evidence", Kind: kindPaper, Ref: ev.PaperID}
			}
		}
	}
	for _, gap := range draft.Gaps {
		for _, id := range gap.SupportingPapers {
			if !knownPapers[id] {
				return &IntegrityError{Where: "gap " + gap.GapID, Kind: kindPaper, Ref: id}
			}
		}
		for _, cid := range gap.RelatedClusters {
			if !knownClusters[cid] {
				return &IntegrityError{Where: "gap " + gap.GapID, Kind: kindCluster, Ref: cid}
			}
		}
	}
	return nil
}
