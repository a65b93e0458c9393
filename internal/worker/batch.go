package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pmizuno/kensho/internal/model"
)

// Runner mines one (document, review) pair. Implemented by pipeline.Pipeline.
type Runner interface {
	MineFiles(ctx context.Context, docPath, reviewPath string) (*model.ExtractionResult, error)
}

// Pair names a document file and the examiner review to verify against it
type Pair struct {
	DocPath    string
	ReviewPath string
}

// MineTask mines a single pair
type MineTask struct {
	Pair   Pair
	Runner Runner
}

// Run executes the mining task
func (t *MineTask) Run(ctx context.Context) Outcome {
	result, err := t.Runner.MineFiles(ctx, t.Pair.DocPath, t.Pair.ReviewPath)
	return &MineOutcome{Pair: t.Pair, Result: result, Error: err}
}

// MineOutcome is the result of mining one pair
type MineOutcome struct {
	Pair   Pair
	Result *model.ExtractionResult
	Error  error
}

// Err returns the error from the outcome
func (o *MineOutcome) Err() error { return o.Error }

// BatchProcessor mines multiple pairs concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{runner: runner, concurrency: concurrency}
}

// ProcessPairs mines all pairs using the worker pool
func (b *BatchProcessor) ProcessPairs(ctx context.Context, pairs []Pair) []*MineOutcome {
	if len(pairs) == 0 {
		return []*MineOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pool.Abort()
		case <-done:
		}
	}()

	for _, pair := range pairs {
		pool.Submit(&MineTask{Pair: pair, Runner: b.runner})
	}

	outcomes := pool.Drain()
	close(done)
	mineOutcomes := make([]*MineOutcome, 0, len(outcomes))
	for _, outcome := range outcomes {
		mineOutcomes = append(mineOutcomes, outcome.(*MineOutcome))
	}
	return mineOutcomes
}

// ProcessFile reads pairs from a file and mines them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*MineOutcome, error) {
	pairs, err := ReadPairsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pairs: %w", err)
	}
	return b.ProcessPairs(ctx, pairs), nil
}

// ReadPairsFromFile reads document/review pairs from a file, one pair per
// line separated by whitespace. Empty lines and #-comments are skipped,
// duplicate pairs are dropped.
func ReadPairsFromFile(path string) ([]Pair, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var pairs []Pair
	seen := make(map[Pair]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"document review\", got %q", lineNo, line)
		}

		pair := Pair{DocPath: fields[0], ReviewPath: fields[1]}
		if !seen[pair] {
			seen[pair] = true
			pairs = append(pairs, pair)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return pairs, nil
}
