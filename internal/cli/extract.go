package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"factloop/internal/model"
	"factloop/internal/pipeline"
)

var (
	maxIter     int
	estimate    bool
	provider    string
	modelName   string
	gwTimeout   int
	useCache    bool
	cacheDir    string
	httpProxy   string
	httpsProxy  string
	convWorkers int
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <input_folder> [output_name]",
	Short: "Extract facts from a document folder and refine them to convergence",
	Long: `Extract converts the documents in a folder (txt, md, html), performs an
initial fact extraction through the analysis service, then loops:
- Assess the fact set's coverage against the sources
- Generate JSON Patch corrections for the gaps
- Apply the corrections
until the assessment is clean, no corrections are proposed, or --max-iter
passes have run. Output defaults to <folder>_facts.json, with per-stage
artifacts in <output>_intermediate/.

Example:
  factloop extract ./papers
  factloop extract ./papers results.json --max-iter 8
  factloop extract ./papers --estimate
  factloop extract ./papers --provider ollama --model llama3.1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().IntVar(&maxIter, "max-iter", 5, "maximum refinement iterations")
	extractCmd.Flags().BoolVar(&estimate, "estimate", false, "print a cost estimate and exit without calling the analysis service")
	extractCmd.Flags().StringVar(&provider, "provider", "openai", "analysis provider (openai, anthropic, ollama)")
	extractCmd.Flags().StringVar(&modelName, "model", "gpt-4o-mini", "model name")
	extractCmd.Flags().IntVar(&gwTimeout, "timeout", 120, "per-call timeout in seconds")
	extractCmd.Flags().BoolVar(&useCache, "cache", false, "cache gateway responses (repeat runs over an unchanged corpus are free)")
	extractCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "response cache directory (implies --cache, adds disk persistence)")
	extractCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	extractCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	extractCmd.Flags().IntVar(&convWorkers, "convert-workers", 4, "parallel document conversion workers")
}

func runExtract(cmd *cobra.Command, args []string) error {
	inputDir := args[0]

	outputPath := ""
	if len(args) > 1 {
		outputPath = args[1]
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(filepath.Base(filepath.Clean(inputDir)), "/") + "_facts.json"
	}
	if !strings.HasSuffix(outputPath, ".json") {
		outputPath += ".json"
	}

	// Preconditions, checked before any work begins
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("input folder %s does not exist or is not a directory", inputDir)
	}

	cfg := model.DefaultConfig()
	cfg.Gateway.Provider = provider
	cfg.Gateway.Model = modelName
	cfg.Gateway.Timeout = gwTimeout
	cfg.Gateway.HTTPProxy = httpProxy
	cfg.Gateway.HTTPSProxy = httpsProxy
	cfg.Extraction.MaxIterations = maxIter
	cfg.Cache.Enabled = useCache || cacheDir != ""
	cfg.Cache.Dir = cacheDir
	cfg.Concurrency.ConvertWorkers = convWorkers
	cfg.Output.Verbose = verbose

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if estimate {
		est, err := pipeline.EstimateRun(ctx, cfg, inputDir)
		if err != nil {
			return err
		}
		fmt.Print(est.Render(provider, modelName, maxIter))
		return nil
	}

	if err := resolveCredentials(cfg); err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Extracting: %s -> %s\n", inputDir, outputPath)
		fmt.Fprintf(os.Stderr, "Provider: %s (%s), max iterations: %d\n\n", provider, modelName, maxIter)
	}

	result, err := p.Run(ctx, inputDir, outputPath)
	if err != nil {
		if result != nil {
			fmt.Fprintf(os.Stderr, "Run failed after %d completed iterations; artifacts preserved for inspection\n", len(result.Records))
		}
		return err
	}

	switch result.Outcome {
	case model.OutcomeLimitReached:
		fmt.Fprintf(os.Stderr, "Warning: stopped at the iteration limit without full convergence\n")
	default:
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Converged: %s\n", result.Outcome)
		}
	}

	fmt.Printf("✓ Wrote %d facts after %d iterations: %s\n", result.FactSet.Len(), len(result.Records), result.OutputPath)
	return nil
}

// resolveCredentials loads the provider credential from the environment.
// Absence is a precondition failure: nothing runs without it.
func resolveCredentials(cfg *model.Config) error {
	switch strings.ToLower(cfg.Gateway.Provider) {
	case "openai":
		cfg.Gateway.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Gateway.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.Gateway.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Gateway.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Gateway.BaseURL = baseURL
		}
	}
	return nil
}
