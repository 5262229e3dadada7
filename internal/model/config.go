package model

import "time"

// Config is the complete pipeline configuration
type Config struct {
	Gateway     GatewayConfig     `yaml:"gateway" mapstructure:"gateway"`
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// GatewayConfig configures the external analysis service
type GatewayConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"-"` // From environment only, never from file
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // Seconds per call
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// ExtractionConfig configures the convergence loop
type ExtractionConfig struct {
	MaxIterations int `yaml:"max_iterations" mapstructure:"max_iterations"`
}

// CacheConfig configures gateway response caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures parallel conversion and gateway rate limiting
type ConcurrencyConfig struct {
	ConvertWorkers    int     `yaml:"convert_workers" mapstructure:"convert_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// OutputConfig configures artifact and console output
type OutputConfig struct {
	Verbose         bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeManifest bool `yaml:"include_manifest" mapstructure:"include_manifest"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   120,
			MaxTokens: 4096,
		},
		Extraction: ExtractionConfig{
			MaxIterations: 5,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Dir:       "",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			ConvertWorkers:    4,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Output: OutputConfig{
			Verbose:         false,
			IncludeManifest: true,
		},
	}
}
