package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"factloop/internal/artifact"
	"factloop/internal/converge"
	"factloop/internal/gateway"
	"factloop/internal/model"
	"factloop/internal/patch"
)

// Sink receives per-iteration artifacts. A nil sink disables persistence;
// the loop's data flow never depends on it.
type Sink interface {
	WriteStage(iteration int, stage artifact.Stage, payload interface{}) error
}

// Controller runs the convergence loop: assess, generate patch, apply,
// repeat. Strictly sequential — each call's input depends on the previous
// call's output.
type Controller struct {
	gw            gateway.Gateway
	maxIterations int
	sink          Sink
	verbose       bool
}

// NewController creates a controller. sink may be nil.
func NewController(gw gateway.Gateway, maxIterations int, sink Sink, verbose bool) *Controller {
	if maxIterations <= 0 {
		maxIterations = 1
	}
	return &Controller{gw: gw, maxIterations: maxIterations, sink: sink, verbose: verbose}
}

// Run iterates until convergence, the iteration ceiling, cancellation, or a
// fatal gateway error. The current fact set and the records accumulated so
// far are always returned, error or not, so converged work is never lost.
func (c *Controller) Run(ctx context.Context, corpus model.Corpus, initial model.FactSet) (model.FactSet, []model.IterationRecord, error) {
	current := initial
	var records []model.IterationRecord

	for iteration := 1; ; iteration++ {
		// Cooperative cancellation, checked at the iteration boundary
		if err := ctx.Err(); err != nil {
			return current, records, err
		}

		rec := model.IterationRecord{
			Iteration: iteration,
			StartedAt: time.Now().UTC(),
		}

		assessment, err := c.gw.Assess(ctx, corpus, current)
		if err != nil {
			return current, records, fmt.Errorf("assess iteration %d: %w", iteration, err)
		}
		rec.Assessment = assessment
		if err := c.persist(iteration, artifact.StageAssessment, assessment); err != nil {
			return current, records, err
		}

		// Checkpoint 1: a clean assessment converges without paying for a
		// patch generation call
		if d := converge.EvaluateAssessment(assessment); d.Terminal() {
			rec.Outcome = d.Outcome()
			rec.FactSet = current.Clone()
			return current, append(records, rec), nil
		}

		ops, err := c.gw.GeneratePatch(ctx, corpus, assessment, current)
		if err != nil {
			return current, records, fmt.Errorf("generate patch iteration %d: %w", iteration, err)
		}
		if err := c.persist(iteration, artifact.StagePatches, ops); err != nil {
			return current, records, err
		}

		// Checkpoint 2: gaps reported but no concrete fix proposed
		if d := converge.EvaluatePatch(ops); d.Terminal() {
			rec.Outcome = d.Outcome()
			rec.FactSet = current.Clone()
			return current, append(records, rec), nil
		}

		next, skips := patch.Apply(current, ops)
		rec.OpsApplied, rec.OpsSkipped = splitApplied(ops, skips)
		for _, s := range skips {
			fmt.Fprintf(os.Stderr, "Warning: iteration %d: skipped patch op %d: %v\n", iteration, s.Index, s.Err)
		}
		if c.verbose {
			fmt.Fprintf(os.Stderr, "Iteration %d: applied %d ops, skipped %d, facts %d -> %d\n",
				iteration, len(rec.OpsApplied), len(skips), current.Len(), next.Len())
		}

		current = next
		rec.FactSet = current.Clone()
		if err := c.persist(iteration, artifact.StageExtraction, current); err != nil {
			return current, records, err
		}

		// Checkpoint 3: iteration ceiling, after the counter advances
		if d := converge.EvaluateLimit(iteration, c.maxIterations); d.Terminal() {
			rec.Outcome = d.Outcome()
			return current, append(records, rec), nil
		}

		rec.Outcome = model.OutcomeContinue
		records = append(records, rec)
	}
}

func (c *Controller) persist(iteration int, stage artifact.Stage, payload interface{}) error {
	if c.sink == nil {
		return nil
	}
	if err := c.sink.WriteStage(iteration, stage, payload); err != nil {
		return fmt.Errorf("persist %s iteration %d: %w", stage, iteration, err)
	}
	return nil
}

// splitApplied partitions the patch array into applied and skipped halves
// using the skip indices
func splitApplied(ops []model.PatchOperation, skips []patch.Skip) ([]model.PatchOperation, []model.SkippedOperation) {
	skipped := make(map[int]patch.Skip, len(skips))
	for _, s := range skips {
		skipped[s.Index] = s
	}

	var applied []model.PatchOperation
	var rejected []model.SkippedOperation
	for i, op := range ops {
		if s, ok := skipped[i]; ok {
			rejected = append(rejected, model.SkippedOperation{Index: i, Op: op, Reason: s.Reason()})
			continue
		}
		applied = append(applied, op)
	}
	return applied, rejected
}
