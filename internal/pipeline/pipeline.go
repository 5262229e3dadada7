// Package pipeline wires the extraction run end to end: document
// conversion, initial extraction, the convergence loop, and artifact
// materialization.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"factloop/internal/artifact"
	"factloop/internal/cache"
	"factloop/internal/convert"
	"factloop/internal/gateway"
	"factloop/internal/model"
	"factloop/internal/worker"
)

// Pipeline orchestrates the complete extraction run
type Pipeline struct {
	converter *convert.Converter
	gw        gateway.Gateway
	config    *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)

	gw, err := gateway.Build(gateway.ConfigFromModel(cfg.Gateway), limiter, cache.FromConfig(cfg.Cache))
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	return &Pipeline{
		converter: convert.NewConverter(cfg.Concurrency.ConvertWorkers),
		gw:        gw,
		config:    cfg,
	}, nil
}

// RunResult is the outcome of a complete pipeline run
type RunResult struct {
	FactSet    model.FactSet
	Records    []model.IterationRecord
	Outcome    model.Outcome
	OutputPath string
}

// Run executes conversion, initial extraction, and the convergence loop,
// persisting every stage's artifact. On a fatal mid-run failure the
// artifacts already written stay on disk for inspection.
func (p *Pipeline) Run(ctx context.Context, inputDir, outputPath string) (*RunResult, error) {
	verbose := p.config.Output.Verbose

	// Check the provider before converting anything: a dead endpoint
	// should fail the run up front, not after the conversion pass.
	if !p.gw.IsAvailable(ctx) {
		return nil, fmt.Errorf("analysis provider %s is not reachable", p.gw.Name())
	}

	// 1. Convert documents (parallel; documents are independent)
	corpus, err := p.converter.ConvertDir(ctx, inputDir)
	if err != nil {
		return nil, fmt.Errorf("conversion: %w", err)
	}
	for _, name := range corpus.Skipped {
		fmt.Fprintf(os.Stderr, "Notice: skipped unsupported file %s\n", name)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Converted %d documents (%d bytes)\n", len(corpus.Documents), corpus.TotalBytes())
	}

	// 2. Open the artifact store
	store, err := artifact.NewStore(outputPath)
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}
	if err := store.WriteConversion(corpus); err != nil {
		return nil, fmt.Errorf("persist conversion: %w", err)
	}

	// 3. Initial extraction
	initial, err := p.gw.ExtractFacts(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("initial extraction: %w", err)
	}
	stampMetadata(&initial, corpus, p.config, store.RunID())
	if err := store.WriteStage(0, artifact.StageExtraction, initial); err != nil {
		return nil, fmt.Errorf("persist extraction: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d initial facts\n", initial.Len())
	}

	// 4. Convergence loop
	controller := NewController(p.gw, p.config.Extraction.MaxIterations, store, verbose)
	final, records, runErr := controller.Run(ctx, corpus, initial)

	outcome := model.OutcomeContinue
	if len(records) > 0 {
		outcome = records[len(records)-1].Outcome
	}

	// 5. Materialize, even for partial results: a failed run still leaves
	// its trail behind
	if p.config.Output.IncludeManifest {
		if err := store.WriteManifest(p.gw.Name(), p.config.Gateway.Model, len(records), outcome); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if runErr != nil {
		return &RunResult{FactSet: final, Records: records, Outcome: outcome}, runErr
	}

	path, err := store.Finalize(final)
	if err != nil {
		return &RunResult{FactSet: final, Records: records, Outcome: outcome}, err
	}

	return &RunResult{
		FactSet:    final,
		Records:    records,
		Outcome:    outcome,
		OutputPath: path,
	}, nil
}

// stampMetadata records run provenance in the fact set's passthrough
// metadata object
func stampMetadata(set *model.FactSet, corpus model.Corpus, cfg *model.Config, runID string) {
	if set.ExtractionMetadata == nil {
		set.ExtractionMetadata = make(map[string]interface{})
	}
	set.ExtractionMetadata["run_id"] = runID
	set.ExtractionMetadata["document_count"] = len(corpus.Documents)
	set.ExtractionMetadata["provider"] = cfg.Gateway.Provider
	set.ExtractionMetadata["model"] = cfg.Gateway.Model
	set.ExtractionMetadata["extracted_at"] = time.Now().UTC().Format(time.RFC3339)
}
