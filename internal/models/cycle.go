package models

import "time"

// Outcome is the state of an iteration controller run
type Outcome string

const (
	OutcomeRunning    Outcome = "running"
	OutcomeQualityMet Outcome = "quality_met"
	OutcomeNoProgress Outcome = "no_progress"
	OutcomeCapReached Outcome = "cap_reached"

	// OutcomeFailed marks a run aborted by a scanner or fixer error
	OutcomeFailed Outcome = "failed"
)

// Terminal reports whether the outcome ends the loop
func (o Outcome) Terminal() bool {
	return o != OutcomeRunning && o != ""
}

// IterationRecord is a snapshot of one controller pass
type IterationRecord struct {
	Iteration int           `json:"iteration"`
	Summary   Summary       `json:"summary"`
	Fixes     int           `json:"fixes"`
	Duration  time.Duration `json:"duration"`
}

// History is the persisted record of one controller run
type History struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	Outcome    Outcome           `json:"outcome"`
	Iterations int               `json:"iterations"`
	History    []IterationRecord `json:"history"`
}
