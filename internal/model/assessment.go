package model

// AssessmentResult is the per-iteration coverage judgment produced by the
// analysis service: what the current fact set misses, what it gets wrong,
// and free-text suggestions (informational only, never consumed by the
// convergence evaluator).
type AssessmentResult struct {
	MissingFacts    []string `json:"missing_facts"`
	IncorrectFacts  []string `json:"incorrect_facts"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Clean reports whether the assessment found nothing to fix
func (a AssessmentResult) Clean() bool {
	return len(a.MissingFacts) == 0 && len(a.IncorrectFacts) == 0
}

// AssessmentResponse is the wire envelope for an assessment call. The
// pointer distinguishes a response that omits coverage_analysis entirely
// (a schema violation) from one that reports empty arrays (convergence).
type AssessmentResponse struct {
	CoverageAnalysis *AssessmentResult `json:"coverage_analysis"`
}
