// Package pipeline wires configuration into a ready-to-run mining stack and
// handles the file-level concerns around it: loading documents and reviews,
// scoring, and rendering reports.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmizuno/kensho/internal/cache"
	"github.com/pmizuno/kensho/internal/invoke"
	"github.com/pmizuno/kensho/internal/llm"
	"github.com/pmizuno/kensho/internal/miner"
	"github.com/pmizuno/kensho/internal/model"
	"github.com/pmizuno/kensho/internal/score"
	"github.com/pmizuno/kensho/internal/worker"
)

// Pipeline owns one configured mining stack. Safe for concurrent MineFiles
// calls: the throttle and invoker are shared so batch workers pace each other.
type Pipeline struct {
	miner    *miner.Miner
	scorer   *score.Scorer
	renderer *Renderer
	config   *model.Config
}

// NewPipeline builds the stack from configuration
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}

	throttle := worker.NewThrottle(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	invoker := invoke.NewInvoker(provider, cfg.Retry, throttle)

	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err == nil {
				dir = filepath.Join(home, ".kensho", "cache")
			}
		}
		if dir != "" {
			invoker = invoker.WithCache(cache.NewLayeredCache(cfg.Cache.TTL, dir, cfg.Cache.TTL), cfg.Cache.TTL)
		}
	}

	return &Pipeline{
		miner:    miner.NewMiner(invoker, cfg),
		scorer:   score.NewScorer(),
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		config:   cfg,
	}, nil
}

// Mine runs one extraction against an in-memory document
func (p *Pipeline) Mine(ctx context.Context, reviewText string, doc model.Document) *model.ExtractionResult {
	return p.miner.Run(ctx, reviewText, doc)
}

// MineFiles loads a document and review from disk and mines them
func (p *Pipeline) MineFiles(ctx context.Context, docPath, reviewPath string) (*model.ExtractionResult, error) {
	doc, err := LoadDocument(docPath)
	if err != nil {
		return nil, err
	}
	review, err := LoadReview(reviewPath)
	if err != nil {
		return nil, err
	}
	return p.miner.Run(ctx, review, doc), nil
}

// RenderResult scores the result and writes the requested outputs. The
// stdout summary is always printed.
func (p *Pipeline) RenderResult(result *model.ExtractionResult, jsonPath, mdPath string) error {
	report := BuildReport(result, p.scorer.Calculate(result))

	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if p.config.Output.Verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if p.config.Output.Verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(os.Stdout, report)
	return nil
}
