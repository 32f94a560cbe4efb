// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// KeyTerm is one glossary entry in an agent reply.
type KeyTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// AgentReply is the compact, user-facing summary produced after a run in
// interactive mode.
type AgentReply struct {
	TopicSummary        string    `json:"topic_summary"`
	KeyTerms            []KeyTerm `json:"key_terms"`
	SuggestedDirections []string  `json:"suggested_directions"`
	SuggestedQueries    []string  `json:"suggested_search_queries"`
}

// Validate checks the reply field-by-field against its schema.
func (r *AgentReply) Validate() error {
	if r.TopicSummary == "" {
		return fmt.Errorf("agent reply: topic_summary is empty")
	}
	for i, kt := range r.KeyTerms {
		if kt.Term == "" || kt.Definition == "" {
			return fmt.Errorf("agent reply: key_terms[%d] is incomplete", i)
		}
	}
	return nil
}
