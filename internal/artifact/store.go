// Package artifact persists the pipeline's audit trail: one file per stage
// per iteration under an intermediate directory, a manifest describing the
// layout, and the final fact set. The store is a logging sink only — data
// flows between pipeline stages through function values, never through
// these files.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"factloop/internal/model"
)

// Stage names the pipeline stages that produce artifacts
type Stage string

const (
	StageConversion Stage = "conversion"
	StageExtraction Stage = "extraction"
	StageAssessment Stage = "assessment"
	StagePatches    Stage = "patches"
)

// filePrefix orders stage files the way the pipeline runs
var filePrefix = map[Stage]string{
	StageConversion: "01_conversion",
	StageExtraction: "02_extraction",
	StageAssessment: "03_assessment",
	StagePatches:    "04_patches",
}

// Store manages one run's artifact directory
type Store struct {
	finalPath string
	dir       string
	runID     string
	createdAt time.Time
}

// NewStore creates the intermediate directory for a run. finalPath is where
// Finalize will write the fact set; the intermediate directory sits next to
// it as <output>_intermediate/.
func NewStore(finalPath string) (*Store, error) {
	base := finalPath
	if ext := filepath.Ext(base); ext == ".json" {
		base = base[:len(base)-len(ext)]
	}
	dir := base + "_intermediate"

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create intermediate dir: %w", err)
	}

	return &Store{
		finalPath: finalPath,
		dir:       dir,
		runID:     uuid.New().String(),
		createdAt: time.Now().UTC(),
	}, nil
}

// Dir returns the intermediate directory path
func (s *Store) Dir() string { return s.dir }

// RunID returns the unique identifier for this run
func (s *Store) RunID() string { return s.runID }

// WriteConversion persists the converted corpus (pre-loop stage, no
// iteration number)
func (s *Store) WriteConversion(corpus model.Corpus) error {
	return s.write(filePrefix[StageConversion]+".json", corpus)
}

// WriteStage persists one iteration's payload for a stage. Writes are
// append-only: an existing (iteration, stage) file is never overwritten.
func (s *Store) WriteStage(iteration int, stage Stage, payload interface{}) error {
	prefix, ok := filePrefix[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}
	return s.write(fmt.Sprintf("%s_iter_%d.json", prefix, iteration), payload)
}

func (s *Store) write(name string, payload interface{}) error {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("artifact %s already exists", name)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Finalize writes the final fact set. It is idempotent for an identical
// fact set and refuses to overwrite a different one.
func (s *Store) Finalize(set model.FactSet) (string, error) {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal final fact set: %w", err)
	}
	data = append(data, '\n')

	if existing, err := os.ReadFile(s.finalPath); err == nil {
		if bytes.Equal(existing, data) {
			return s.finalPath, nil
		}
		return "", fmt.Errorf("final output %s already exists with different content", s.finalPath)
	}

	if err := os.WriteFile(s.finalPath, data, 0644); err != nil {
		return "", fmt.Errorf("write final output: %w", err)
	}
	return s.finalPath, nil
}

// WriteManifest writes the human-readable README describing the run layout
func (s *Store) WriteManifest(provider, modelName string, iterations int, outcome model.Outcome) error {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Extraction Run Artifacts\n\n")
	fmt.Fprintf(&b, "- Run ID: %s\n", s.runID)
	fmt.Fprintf(&b, "- Started: %s\n", s.createdAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Provider: %s (%s)\n", provider, modelName)
	fmt.Fprintf(&b, "- Iterations: %d\n", iterations)
	fmt.Fprintf(&b, "- Outcome: %s\n\n", outcome)

	b.WriteString(`## Files

| File | Schema | Description |
|------|--------|-------------|
| 01_conversion.json | Corpus | Converted plain-text documents |
| 02_extraction_iter_<n>.json | FactSet | Fact set snapshot after iteration n |
| 03_assessment_iter_<n>.json | AssessmentResult | Coverage judgment for iteration n |
| 04_patches_iter_<n>.json | PatchOperation[] | Corrections applied in iteration n |

Iteration 0 extraction is the initial pass; later snapshots reflect each
iteration's applied patch. The final fact set lives next to this directory.
`)

	path := filepath.Join(s.dir, "README.md")
	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
