package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pmizuno/kensho/internal/pipeline"
	"github.com/pmizuno/kensho/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchOutDir      string
	batchConcurrency int
	batchTimeout     time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <pairs-file>",
	Short: "Mine evidence for many document/review pairs concurrently",
	Long: `Batch reads document/review pairs from a file (one pair per line,
separated by whitespace; # starts a comment) and mines them concurrently.
One report is written per pair into the output directory.

Example pairs file:
  prior-art-1.json review-1.txt
  prior-art-2.json review-2.txt

Example:
  kensho batch pairs.txt --out reports/ --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchOutDir, "out", "reports", "output directory for per-pair reports")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "pairs processed concurrently")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 2*time.Hour, "overall batch timeout")

	// Same knob set as mine; the flags package requires distinct registration
	batchCmd.Flags().StringVar(&llmProvider, "provider", "openai", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "model", "", "model name (provider default if empty)")
	batchCmd.Flags().StringVar(&llmBaseURL, "base-url", "", "custom endpoint base URL")
	batchCmd.Flags().IntVar(&llmTimeout, "llm-timeout", 60, "per-request timeout in seconds")
	batchCmd.Flags().IntVar(&maxAttempts, "max-attempts", 3, "attempts per generation call")
	batchCmd.Flags().DurationVar(&backoffBase, "backoff", 1*time.Second, "first retry delay")
	batchCmd.Flags().Float64Var(&backoffMult, "backoff-multiplier", 4, "retry delay growth factor")
	batchCmd.Flags().Float64Var(&rps, "rps", 1, "generation calls per second across all workers")
	batchCmd.Flags().Float64Var(&fuzzyThreshold, "fuzzy-threshold", 0.85, "fuzzy-match character overlap threshold")
	batchCmd.Flags().IntVar(&maxQuoteChars, "max-quote-chars", 100, "longest quote still considered minimal")
	batchCmd.Flags().IntVar(&workers, "workers", 1, "concurrent assertion workers per pair")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(batchOutDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor := worker.NewBatchProcessor(p, batchConcurrency)
	outcomes, err := processor.ProcessFile(ctx, args[0])
	if err != nil {
		return err
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.Pair.DocPath, outcome.Error)
			continue
		}
		jsonPath := filepath.Join(batchOutDir, reportName(outcome.Pair.DocPath))
		if err := p.RenderResult(outcome.Result, jsonPath, ""); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.Pair.DocPath, err)
			continue
		}
		fmt.Println()
	}

	fmt.Printf("Processed %d pairs, %d failed\n", len(outcomes), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d pairs failed", failed, len(outcomes))
	}
	return nil
}

// reportName derives the per-pair report file name from the document path
func reportName(docPath string) string {
	base := filepath.Base(docPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".report.json"
}
