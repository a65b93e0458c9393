package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pmizuno/kensho/internal/model"
	"github.com/pmizuno/kensho/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON        string
	outMD          string
	llmProvider    string
	llmModel       string
	llmBaseURL     string
	llmTimeout     int
	maxAttempts    int
	backoffBase    time.Duration
	backoffMult    float64
	fuzzyThreshold float64
	maxQuoteChars  int
	workers        int
	rps            float64
	noCache        bool
	noFooter       bool
	runTimeout     time.Duration
)

// mineCmd represents the mine command
var mineCmd = &cobra.Command{
	Use:   "mine <document> <review>",
	Short: "Verify evidence for one examiner review against one document",
	Long: `Mine parses the examiner review into essential assertions, asks the
configured model for minimal verbatim citations per assertion, and verifies
every citation against the document text.

The document is a JSON file (section name -> paragraph list, order
preserved) or an HTML file (headings become sections). The review is plain
text, or a JSON file carrying "examiner_review".

Example:
  kensho mine prior-art.json review.txt
  kensho mine prior-art.json review.txt --json report.json --md report.md
  kensho mine prior-art.json review.txt --provider ollama --model qwen2.5 --workers 4`,
	Args: cobra.ExactArgs(2),
	RunE: runMine,
}

func init() {
	rootCmd.AddCommand(mineCmd)

	// Output flags
	mineCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	mineCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	mineCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// LLM flags
	mineCmd.Flags().StringVar(&llmProvider, "provider", "openai", "LLM provider (openai, anthropic, ollama)")
	mineCmd.Flags().StringVar(&llmModel, "model", "", "model name (provider default if empty)")
	mineCmd.Flags().StringVar(&llmBaseURL, "base-url", "", "custom endpoint base URL")
	mineCmd.Flags().IntVar(&llmTimeout, "llm-timeout", 60, "per-request timeout in seconds")

	// Retry / pacing flags
	mineCmd.Flags().IntVar(&maxAttempts, "max-attempts", 3, "attempts per generation call")
	mineCmd.Flags().DurationVar(&backoffBase, "backoff", 1*time.Second, "first retry delay")
	mineCmd.Flags().Float64Var(&backoffMult, "backoff-multiplier", 4, "retry delay growth factor")
	mineCmd.Flags().Float64Var(&rps, "rps", 1, "generation calls per second across all workers")

	// Verification flags
	mineCmd.Flags().Float64Var(&fuzzyThreshold, "fuzzy-threshold", 0.85, "fuzzy-match character overlap threshold")
	mineCmd.Flags().IntVar(&maxQuoteChars, "max-quote-chars", 100, "longest quote still considered minimal")

	// Run flags
	mineCmd.Flags().IntVar(&workers, "workers", 1, "concurrent assertion workers")
	mineCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
	mineCmd.Flags().DurationVar(&runTimeout, "timeout", 15*time.Minute, "overall run timeout")
}

func runMine(cmd *cobra.Command, args []string) error {
	docPath, reviewPath := args[0], args[1]

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Document: %s\n", docPath)
		fmt.Fprintf(os.Stderr, "Review:   %s\n", reviewPath)
		fmt.Fprintf(os.Stderr, "Provider: %s (%s)\n\n", cfg.LLM.Provider, cfg.LLM.Model)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.MineFiles(ctx, docPath, reviewPath)
	if err != nil {
		return err
	}

	return p.RenderResult(result, outJSON, outMD)
}

// buildConfig resolves flags and environment into an explicit config struct
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	cfg.LLM.BaseURL = llmBaseURL
	cfg.LLM.Timeout = llmTimeout

	// API keys come from the environment, resolved here once; nothing below
	// the CLI reads env vars.
	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	cfg.Retry.MaxAttempts = maxAttempts
	cfg.Retry.BackoffBase = backoffBase
	cfg.Retry.Multiplier = backoffMult
	cfg.Verify.FuzzyThreshold = fuzzyThreshold
	cfg.Verify.MaxQuoteChars = maxQuoteChars
	cfg.Concurrency.AssertionWorkers = workers
	cfg.Rate.RequestsPerSecond = rps
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	return cfg, nil
}
