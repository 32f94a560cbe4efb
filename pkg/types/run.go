// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Stage names one pipeline phase. Stages execute strictly in declaration order.
type Stage string

const (
	StagePlan     Stage = "plan"
	StageRetrieve Stage = "retrieve"
	StageCluster  Stage = "cluster"
	StageReason   Stage = "reason"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StagePlan, StageRetrieve, StageCluster, StageReason}

// StageState is the status of one stage within a run.
type StageState string

const (
	StatePending StageState = "pending"
	StateOK      StageState = "ok"
	StateFail    StageState = "fail"
)

// StageError records which stage failed and why. Full diagnostic detail lives
// in the run's event log; this is the short, user-visible cause.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// RunStatus is the per-run status document, rewritten after every stage
// transition so a run can be inspected externally without re-running.
type RunStatus struct {
	RunID  string                `json:"run_id"`
	Topic  string                `json:"topic"`
	Stages map[Stage]StageState  `json:"stages"`
	Error  *StageError           `json:"error,omitempty"`
}

// NewRunStatus returns a status with every stage pending.
func NewRunStatus(runID, topic string) RunStatus {
	stages := make(map[Stage]StageState, len(Stages))
	for _, s := range Stages {
		stages[s] = StatePending
	}
	return RunStatus{RunID: runID, Topic: topic, Stages: stages}
}

// InputRecord is the persisted record of what the user asked for.
type InputRecord struct {
	Topic   string `json:"topic"`
	Context string `json:"context,omitempty"`
}
