// Package pipeline runs acquisition, adjustment, feature computation and
// persistence over a batch of instruments.
//
// Flow per instrument: gap policy → adjust → features → stores.
// Instruments are processed concurrently; one instrument's failure never
// affects another.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"equity-feature-lab/internal/adjust"
	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/features"
	"equity-feature-lab/internal/observability"
	"equity-feature-lab/internal/source"
	"equity-feature-lab/internal/storage"
)

// DefaultWorkers is the worker pool size when Options.Workers is zero.
const DefaultWorkers = 4

// Options for creating a Runner.
type Options struct {
	// Required
	Source   source.Source
	Adjuster *adjust.Adjuster
	Engine   *features.Engine

	// Optional stores; nil skips persistence
	AdjustedStore storage.AdjustedPriceStore
	FeatureStore  storage.FeatureStore

	GapPolicy source.GapPolicy
	Workers   int
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// Runner executes batches. It is safe for concurrent use.
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Source == nil || opts.Adjuster == nil || opts.Engine == nil {
		return nil, errors.New("pipeline: source, adjuster and engine are required")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.GapPolicy == "" {
		opts.GapPolicy = source.GapFail
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{opts: opts, logger: logger}, nil
}

// BatchResult partitions a batch by outcome. Every requested instrument
// appears in exactly one of Succeeded and Failed.
type BatchResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Succeeded map[string]*domain.FeatureTable
	Failed    map[string]error
}

// Instruments returns the succeeded instrument ids, sorted.
func (r *BatchResult) Instruments() []string {
	ids := make([]string, 0, len(r.Succeeded))
	for id := range r.Succeeded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Run processes req. The returned error is non-nil only when the request is
// invalid, the fetch fails or ctx is cancelled; per-instrument failures are
// reported in BatchResult.Failed.
func (r *Runner) Run(ctx context.Context, req source.Request) (*BatchResult, error) {
	started := time.Now()
	result := &BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: started.UTC(),
		Succeeded: make(map[string]*domain.FeatureTable),
		Failed:    make(map[string]error),
	}
	logger := r.logger.With("run_id", result.RunID)

	status := "failure"
	defer func() {
		result.Duration = time.Since(started)
		r.opts.Metrics.RecordPipelineRun(status, result.Duration.Seconds())
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.InstrumentIDs = req.Instruments()

	logger.Info("fetching", "instruments", len(req.InstrumentIDs),
		"start", req.Start.Format(domain.DateLayout), "end", req.End.Format(domain.DateLayout))
	series, err := r.opts.Source.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for _, id := range req.InstrumentIDs {
		s := series[id]
		if s == nil {
			s = &source.Series{InstrumentID: id}
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.opts.Metrics.WorkerStarted()
			defer r.opts.Metrics.WorkerDone()

			table, err := r.process(gctx, s)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				result.Failed[id] = err
				r.opts.Metrics.RecordInstrument("failed", Kind(err))
				logger.Warn("instrument failed", "instrument", id, "kind", Kind(err), "error", err)
				return nil
			}
			result.Succeeded[id] = table
			r.opts.Metrics.RecordInstrument("succeeded", "")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(result.Failed) == 0 {
		status = "success"
	} else if len(result.Succeeded) > 0 {
		status = "partial"
	}
	logger.Info("batch complete", "succeeded", len(result.Succeeded), "failed", len(result.Failed),
		"duration", time.Since(started))
	return result, nil
}

// process runs one instrument through gap resolution, adjustment, features and persistence.
func (r *Runner) process(ctx context.Context, s *source.Series) (*domain.FeatureTable, error) {
	records, err := r.opts.GapPolicy.Resolve(s)
	if err != nil {
		return nil, err
	}

	t := time.Now()
	adjusted, err := r.opts.Adjuster.Adjust(records)
	r.opts.Metrics.RecordAdjustment(time.Since(t).Seconds(), reason(err))
	if err != nil {
		return nil, err
	}

	t = time.Now()
	table, err := r.opts.Engine.Compute(adjusted)
	if err != nil {
		return nil, err
	}
	r.opts.Metrics.RecordFeatures(len(table.Names), time.Since(t).Seconds())

	if r.opts.AdjustedStore != nil {
		if err := r.opts.AdjustedStore.Replace(ctx, s.InstrumentID, adjusted); err != nil {
			return nil, fmt.Errorf("store adjusted prices: %w", err)
		}
	}
	if r.opts.FeatureStore != nil {
		if err := r.opts.FeatureStore.Replace(ctx, s.InstrumentID, storage.FeatureValues(table)); err != nil {
			return nil, fmt.Errorf("store features: %w", err)
		}
	}
	return table, nil
}

// Kind classifies a per-instrument error for metrics and reports.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrDataIntegrity):
		return "data_integrity"
	case errors.Is(err, domain.ErrFeatureNotFound):
		return "feature_not_found"
	case errors.Is(err, domain.ErrDatasetIncomplete):
		return "dataset_incomplete"
	case errors.Is(err, domain.ErrDateRange):
		return "date_range"
	default:
		return "other"
	}
}

// integrityReasons maps known DataIntegrityError reasons to metric label values.
// Anything else is reported as "other_integrity" to keep label cardinality fixed.
var integrityReasons = map[string]string{
	"empty series":                 "empty_series",
	"empty adjusted series":        "empty_series",
	"nil record":                   "nil_record",
	"mixed instruments in series":  "mixed_instruments",
	"duplicate date":               "duplicate_date",
	"dates not in ascending order": "unsorted_dates",
	"close missing":                "close_missing",
	"close not positive":           "close_not_positive",
	"invalid dividend":             "invalid_dividend",
	"invalid split ratio":          "invalid_split_ratio",
	"zero close in adjustment":     "zero_close",
	"adjusted close not positive":  "adjusted_not_positive",
}

func reason(err error) string {
	if err == nil {
		return ""
	}
	var die *domain.DataIntegrityError
	if !errors.As(err, &die) {
		return "other"
	}
	if code, ok := integrityReasons[die.Reason]; ok {
		return code
	}
	return "other_integrity"
}
