package gateway

import (
	"fmt"
	"strings"

	"factloop/internal/cache"
	"factloop/internal/worker"
)

// NewCompleter creates the raw provider transport based on configuration
func NewCompleter(config Config) (Completer, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAICompleter(config)

	case "anthropic", "claude":
		return NewAnthropicCompleter(config)

	case "ollama":
		return NewOllamaCompleter(config)

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// New builds a ready-to-use gateway for the configured provider
func New(config Config) (Gateway, error) {
	completer, err := NewCompleter(config)
	if err != nil {
		return nil, err
	}
	return NewClient(completer), nil
}

// Build assembles the full gateway stack for a run: provider transport,
// optional rate limiting, optional response caching, then envelope decoding.
// Pass nil for limiter or store to skip that layer.
func Build(config Config, limiter *worker.Limiter, store cache.Cache) (Gateway, error) {
	completer, err := NewCompleter(config)
	if err != nil {
		return nil, err
	}
	completer = WithRateLimit(completer, limiter)
	completer = WithCache(completer, store, config.Model)
	return NewClient(completer), nil
}
