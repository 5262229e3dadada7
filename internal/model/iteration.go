package model

import "time"

// Outcome classifies how an iteration (or the whole run) ended
type Outcome string

const (
	OutcomeContinue           Outcome = "continue"
	OutcomeConvergedNoGaps    Outcome = "converged_no_gaps"
	OutcomeConvergedNoPatches Outcome = "converged_no_patches"
	OutcomeLimitReached       Outcome = "limit_reached"
)

// Converged reports whether the outcome is a convergence terminal state,
// as opposed to hitting the iteration ceiling
func (o Outcome) Converged() bool {
	return o == OutcomeConvergedNoGaps || o == OutcomeConvergedNoPatches
}

// Terminal reports whether the outcome ends the run
func (o Outcome) Terminal() bool {
	return o != OutcomeContinue
}

// SkippedOperation records one patch operation that was rejected and
// skipped (not fatal to the run)
type SkippedOperation struct {
	Index  int            `json:"index"` // Position in the patch array
	Op     PatchOperation `json:"op"`
	Reason string         `json:"reason"`
}

// IterationRecord is the append-only audit artifact for one loop iteration
type IterationRecord struct {
	Iteration  int                `json:"iteration"`
	Assessment AssessmentResult   `json:"assessment"`
	OpsApplied []PatchOperation   `json:"ops_applied,omitempty"`
	OpsSkipped []SkippedOperation `json:"ops_skipped,omitempty"`
	FactSet    FactSet            `json:"fact_set"` // Snapshot after applying this iteration's patch
	Outcome    Outcome            `json:"outcome"`
	StartedAt  time.Time          `json:"started_at"`
}
