// Package gateway wraps the external structured-output analysis service.
// The pipeline consumes three operations: initial fact extraction, coverage
// assessment, and patch generation. Providers only transport prompts and
// completions; envelope decoding and validation live here so every provider
// gets the same schema enforcement.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"factloop/internal/model"
)

// Gateway is the analysis service boundary consumed by the iteration
// controller. All three calls are potentially slow remote calls; failures
// are reported as *Error, distinguishable from empty results.
type Gateway interface {
	// Name returns the backing provider name
	Name() string

	// ExtractFacts performs the initial extraction over the corpus
	ExtractFacts(ctx context.Context, corpus model.Corpus) (model.FactSet, error)

	// Assess compares the current fact set against the corpus and returns
	// gap/error judgments
	Assess(ctx context.Context, corpus model.Corpus, set model.FactSet) (model.AssessmentResult, error)

	// GeneratePatch turns an assessment into zero or more corrective
	// operations
	GeneratePatch(ctx context.Context, corpus model.Corpus, assessment model.AssessmentResult, set model.FactSet) ([]model.PatchOperation, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Completer is the transport a provider implements: one prompt in, one raw
// completion out
type Completer interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	IsAvailable(ctx context.Context) bool
}

// Error is a failed gateway call. It names the provider and operation so the
// CLI can report the failing stage.
type Error struct {
	Provider  string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s: %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds gateway configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// ConfigFromModel converts the pipeline configuration section
func ConfigFromModel(mc model.GatewayConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  mc.HTTPProxy,
		HTTPSProxy: mc.HTTPSProxy,
	}
}

// Client implements Gateway on top of any Completer
type Client struct {
	completer Completer
}

// NewClient wraps a completer with envelope decoding and validation
func NewClient(c Completer) *Client {
	return &Client{completer: c}
}

// Name returns the backing provider name
func (c *Client) Name() string { return c.completer.Name() }

// IsAvailable checks the backing provider
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.completer.IsAvailable(ctx)
}

// ExtractFacts performs the initial extraction call
func (c *Client) ExtractFacts(ctx context.Context, corpus model.Corpus) (model.FactSet, error) {
	raw, err := c.completer.Complete(ctx, extractionSystemPrompt, buildExtractionPrompt(corpus))
	if err != nil {
		return model.FactSet{}, &Error{Provider: c.Name(), Operation: "extract_facts", Err: err}
	}

	var set model.FactSet
	if err := decodeEnvelope(raw, &set); err != nil {
		return model.FactSet{}, &Error{Provider: c.Name(), Operation: "extract_facts", Err: err}
	}
	if set.ExtractedFacts == nil {
		return model.FactSet{}, &Error{Provider: c.Name(), Operation: "extract_facts",
			Err: fmt.Errorf("response missing extracted_facts")}
	}

	// Records without ids get one assigned; anything else malformed is a
	// schema violation and fatal.
	seen := make(map[string]bool, len(set.ExtractedFacts))
	for i := range set.ExtractedFacts {
		rec := &set.ExtractedFacts[i]
		if rec.ID == "" || seen[rec.ID] {
			rec.ID = newFactID()
		}
		seen[rec.ID] = true
		if err := rec.Validate(); err != nil {
			return model.FactSet{}, &Error{Provider: c.Name(), Operation: "extract_facts", Err: err}
		}
	}
	return set, nil
}

// Assess performs a coverage assessment call
func (c *Client) Assess(ctx context.Context, corpus model.Corpus, set model.FactSet) (model.AssessmentResult, error) {
	raw, err := c.completer.Complete(ctx, assessmentSystemPrompt, buildAssessmentPrompt(corpus, set))
	if err != nil {
		return model.AssessmentResult{}, &Error{Provider: c.Name(), Operation: "assess", Err: err}
	}

	var resp model.AssessmentResponse
	if err := decodeEnvelope(raw, &resp); err != nil {
		return model.AssessmentResult{}, &Error{Provider: c.Name(), Operation: "assess", Err: err}
	}
	if resp.CoverageAnalysis == nil {
		return model.AssessmentResult{}, &Error{Provider: c.Name(), Operation: "assess",
			Err: fmt.Errorf("response missing coverage_analysis")}
	}
	return *resp.CoverageAnalysis, nil
}

// GeneratePatch performs a patch generation call
func (c *Client) GeneratePatch(ctx context.Context, corpus model.Corpus, assessment model.AssessmentResult, set model.FactSet) ([]model.PatchOperation, error) {
	raw, err := c.completer.Complete(ctx, patchSystemPrompt, buildPatchPrompt(corpus, assessment, set))
	if err != nil {
		return nil, &Error{Provider: c.Name(), Operation: "generate_patch", Err: err}
	}

	var resp model.PatchResponse
	if err := decodeEnvelope(raw, &resp); err != nil {
		return nil, &Error{Provider: c.Name(), Operation: "generate_patch", Err: err}
	}
	// A nil slice means the patch key was absent or null. Zero corrections
	// is a convergence signal and must arrive as an explicit empty array.
	if resp.Patch == nil {
		return nil, &Error{Provider: c.Name(), Operation: "generate_patch",
			Err: fmt.Errorf("response missing patch")}
	}
	return resp.Patch, nil
}

// fenceRe matches a markdown code fence wrapping (```json ... ```) that
// models sometimes add around JSON output
var fenceRe = regexp.MustCompile("(?s)^`{3}[^\\n]*\\n(.*?)`{3}\\s*$")

// decodeEnvelope strips markdown fences and parses the response into the
// expected envelope. A failure here is the malformed-schema-response class:
// fatal to the run.
func decodeEnvelope(raw string, v interface{}) error {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

func newFactID() string {
	return "fact_" + uuid.New().String()[:8]
}
