package pipeline

import (
	"context"
	"fmt"
	"strings"

	"factloop/internal/convert"
	"factloop/internal/model"
)

// pricing is cost per million tokens (input, output) in USD. Unknown models
// fall back to the gpt-4o-mini rates.
var pricing = map[string][2]float64{
	"gpt-4o-mini":             {0.15, 0.60},
	"gpt-4o":                  {2.50, 10.00},
	"claude-3-5-haiku-latest": {0.80, 4.00},
}

// Estimate is a dry-run cost projection for a worst-case run (every
// iteration pays both an assessment and a patch generation call).
type Estimate struct {
	Documents    int
	CorpusBytes  int
	PromptTokens int
	Calls        int
	CostUSD      float64
}

// EstimateRun converts the input folder and projects token usage and cost
// without making any gateway calls.
func EstimateRun(ctx context.Context, cfg *model.Config, inputDir string) (*Estimate, error) {
	converter := convert.NewConverter(cfg.Concurrency.ConvertWorkers)
	corpus, err := converter.ConvertDir(ctx, inputDir)
	if err != nil {
		return nil, fmt.Errorf("conversion: %w", err)
	}

	// Rough tokenization: ~4 bytes per token for English prose
	corpusTokens := corpus.TotalBytes() / 4

	// Worst case: 1 extraction + maxIter x (assess + patch). Every call
	// carries the corpus; assess and patch also carry the fact set, folded
	// in as a 25% overhead.
	calls := 1 + 2*cfg.Extraction.MaxIterations
	promptTokens := corpusTokens + (calls-1)*(corpusTokens+corpusTokens/4)

	rates, ok := pricing[cfg.Gateway.Model]
	if !ok {
		rates = pricing["gpt-4o-mini"]
	}
	outputTokens := calls * cfg.Gateway.MaxTokens
	cost := float64(promptTokens)/1e6*rates[0] + float64(outputTokens)/1e6*rates[1]

	return &Estimate{
		Documents:    len(corpus.Documents),
		CorpusBytes:  corpus.TotalBytes(),
		PromptTokens: promptTokens,
		Calls:        calls,
		CostUSD:      cost,
	}, nil
}

// Render returns the human-readable estimate table
func (e *Estimate) Render(provider, modelName string, maxIter int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cost estimate (worst case, %d iterations):\n", maxIter)
	fmt.Fprintf(&b, "  Provider:       %s (%s)\n", provider, modelName)
	fmt.Fprintf(&b, "  Documents:      %d (%d bytes)\n", e.Documents, e.CorpusBytes)
	fmt.Fprintf(&b, "  Gateway calls:  %d\n", e.Calls)
	fmt.Fprintf(&b, "  Prompt tokens:  ~%d\n", e.PromptTokens)
	fmt.Fprintf(&b, "  Estimated cost: ~$%.4f\n", e.CostUSD)
	return b.String()
}
