// Package converge decides whether the refinement loop should stop. Two
// independent signals end a run early: an assessment that reports nothing to
// fix, and a patch generation call that produces no operations. The
// iteration ceiling is the backstop.
package converge

import "factloop/internal/model"

// Decision is the evaluator's verdict at a loop checkpoint
type Decision int

const (
	Continue Decision = iota
	ConvergedNoGaps
	ConvergedNoPatches
	LimitReached
)

// String returns the decision name for logs and artifacts
func (d Decision) String() string {
	switch d {
	case ConvergedNoGaps:
		return "converged_no_gaps"
	case ConvergedNoPatches:
		return "converged_no_patches"
	case LimitReached:
		return "limit_reached"
	default:
		return "continue"
	}
}

// Outcome maps the decision to its run outcome
func (d Decision) Outcome() model.Outcome {
	switch d {
	case ConvergedNoGaps:
		return model.OutcomeConvergedNoGaps
	case ConvergedNoPatches:
		return model.OutcomeConvergedNoPatches
	case LimitReached:
		return model.OutcomeLimitReached
	default:
		return model.OutcomeContinue
	}
}

// Terminal reports whether the loop should stop
func (d Decision) Terminal() bool {
	return d != Continue
}

// EvaluateAssessment is the first checkpoint: an assessment with no missing
// and no incorrect facts converges immediately, and the patch generation
// call for this iteration is skipped entirely.
func EvaluateAssessment(a model.AssessmentResult) Decision {
	if a.Clean() {
		return ConvergedNoGaps
	}
	return Continue
}

// EvaluatePatch is the second checkpoint: an assessment may report gaps the
// service nonetheless proposes no concrete fix for, and an empty patch list
// also converges.
func EvaluatePatch(ops []model.PatchOperation) Decision {
	if len(ops) == 0 {
		return ConvergedNoPatches
	}
	return Continue
}

// EvaluateLimit is the final checkpoint, after the iteration counter has
// advanced.
func EvaluateLimit(iteration, maxIterations int) Decision {
	if iteration >= maxIterations {
		return LimitReached
	}
	return Continue
}
