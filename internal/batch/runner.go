// Package batch runs snapshot fetches and metric derivation over lists
// of tickers, isolating per-ticker failures and reporting progress.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/evametrics/evascan/internal/analysis"
	"github.com/evametrics/evascan/internal/datasource"
	"github.com/evametrics/evascan/pkg/models"
	"github.com/evametrics/evascan/pkg/utils"
)

// Progress stages.
const (
	StageStarted  = "started"
	StageTicker   = "ticker"
	StageFinished = "finished"
)

// Progress is one batch lifecycle event.
type Progress struct {
	Stage     string `json:"stage"`
	Ticker    string `json:"ticker,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Err       string `json:"error,omitempty"`
}

// ProgressFunc receives batch lifecycle events. The runner calls it
// inline, so implementations must not block.
type ProgressFunc func(Progress)

// Config holds the parameters for a batch run.
type Config struct {
	MaxTickers    int                // cap on tickers per batch
	FetchInterval time.Duration      // minimum spacing between source fetches
	Assumptions   models.Assumptions // zero value means defaults
	OnProgress    ProgressFunc       // optional
}

// Runner executes derivation batches against a snapshot source.
type Runner struct {
	source  datasource.SnapshotSource
	cfg     Config
	limiter *rate.Limiter
}

// NewRunner creates a batch runner with the given source and config.
func NewRunner(source datasource.SnapshotSource, cfg Config) *Runner {
	if cfg.MaxTickers <= 0 {
		cfg.MaxTickers = 10
	}
	if cfg.Assumptions == (models.Assumptions{}) {
		cfg.Assumptions = models.DefaultAssumptions()
	}
	r := &Runner{source: source, cfg: cfg}
	if cfg.FetchInterval > 0 {
		r.limiter = rate.NewLimiter(rate.Every(cfg.FetchInterval), 1)
	}
	return r
}

// Run fetches and derives metrics for each ticker in order. Every
// requested ticker ends up in either Metrics or Errors; a failed ticker
// never aborts the batch. A cancelled context fails the remaining
// tickers individually, so the result still covers the full request.
func (r *Runner) Run(ctx context.Context, tickers []string) (*models.BatchResult, error) {
	symbols := utils.ParseTickerList(strings.Join(tickers, ","), r.cfg.MaxTickers)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no valid tickers in %v", tickers)
	}

	result := &models.BatchResult{
		Tickers:     symbols,
		Metrics:     make(map[string]*models.DerivedMetrics, len(symbols)),
		Errors:      make(map[string]*models.ErrorRecord),
		Assumptions: r.cfg.Assumptions,
		StartedAt:   time.Now(),
	}

	total := len(symbols)
	r.emit(Progress{Stage: StageStarted, Total: total})

	for i, symbol := range symbols {
		if err := r.pace(ctx); err != nil {
			r.record(result, symbol, i, total, reasonFor(err))
			continue
		}

		snap, err := r.source.GetSnapshot(ctx, symbol)
		if err != nil {
			r.record(result, symbol, i, total, reasonFor(err))
			continue
		}
		if snap == nil {
			r.record(result, symbol, i, total, "source returned empty snapshot")
			continue
		}

		result.Metrics[symbol] = analysis.Derive(snap, r.cfg.Assumptions)
		r.emit(Progress{Stage: StageTicker, Ticker: symbol, Completed: i + 1, Total: total})
	}

	result.FinishedAt = time.Now()
	r.emit(Progress{Stage: StageFinished, Completed: total, Total: total})
	return result, nil
}

// pace enforces the minimum fetch spacing. Without a limiter it still
// surfaces context cancellation.
func (r *Runner) pace(ctx context.Context) error {
	if r.limiter != nil {
		return r.limiter.Wait(ctx)
	}
	return ctx.Err()
}

func (r *Runner) record(result *models.BatchResult, symbol string, i, total int, reason string) {
	result.Errors[symbol] = &models.ErrorRecord{Ticker: symbol, Reason: reason}
	r.emit(Progress{Stage: StageTicker, Ticker: symbol, Completed: i + 1, Total: total, Err: reason})
}

func (r *Runner) emit(ev Progress) {
	if r.cfg.OnProgress != nil {
		r.cfg.OnProgress(ev)
	}
}

// reasonFor turns a fetch error into a short human-readable reason.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, datasource.ErrTickerNotFound):
		return "ticker not found"
	case errors.Is(err, datasource.ErrRateLimited):
		return "rate limited by data source"
	default:
		return err.Error()
	}
}
