// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// QueryPlan is the artifact of the plan stage: the expanded search strategy
// for a topic.
type QueryPlan struct {
	Topic           string   `json:"topic"`
	ExpandedQueries []string `json:"expanded_queries"`
	MustInclude     []string `json:"must_include"`
	Exclude         []string `json:"exclude"`
	TargetSubtasks  []string `json:"target_subtasks"`
	Notes           string   `json:"notes"`
}

// Validate checks the plan field-by-field against its schema.
func (p *QueryPlan) Validate() error {
	if len(p.ExpandedQueries) == 0 {
		return fmt.Errorf("query plan: expanded_queries must not be empty")
	}
	for i, q := range p.ExpandedQueries {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("query plan: expanded_queries[%d] is blank", i)
		}
	}
	return nil
}
