// Package reports builds the dashboard's aggregations.
//
// Every report runs as a two-phase plan. Phase one issues the primary and
// secondary collection reads concurrently, with per-item fan-out reads
// bounded by MaxConcurrency and optionally paced by a rate limiter. Phase
// two folds the typed records locally. Any failed read rejects the whole
// report; partial accumulations are discarded.
package reports

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultMaxConcurrency bounds in-flight fan-out reads when Options leaves
// it unset.
const DefaultMaxConcurrency = 8

// Options tune a Builder.
type Options struct {
	// MaxConcurrency bounds in-flight fan-out reads per report.
	MaxConcurrency int
	// ReadsPerSecond paces fan-out reads across all reports. 0 disables.
	ReadsPerSecond float64
	// Location is used for month and day boundaries. Defaults to UTC.
	Location *time.Location
}

// Builder computes reports against a Source.
type Builder struct {
	src     Source
	limit   int
	limiter *rate.Limiter
	loc     *time.Location
	log     *zap.Logger
}

// NewBuilder creates a Builder over src.
func NewBuilder(src Source, opts Options, logger *zap.Logger) *Builder {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Builder{
		src:   src,
		limit: opts.MaxConcurrency,
		loc:   opts.Location,
		log:   logger,
	}
	if opts.ReadsPerSecond > 0 {
		burst := opts.MaxConcurrency
		b.limiter = rate.NewLimiter(rate.Limit(opts.ReadsPerSecond), burst)
	}
	return b
}

// Location returns the zone used for calendar boundaries.
func (b *Builder) Location() *time.Location {
	return b.loc
}

// observe records duration and outcome for one report.
func (b *Builder) observe(report string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.RecordReport(report, err, elapsed.Seconds())
	if err != nil {
		b.log.Warn("report failed",
			zap.String("report", report),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return
	}
	b.log.Debug("report built",
		zap.String("report", report),
		zap.Duration("elapsed", elapsed))
}

func (b *Builder) wait(ctx context.Context) error {
	if b.limiter != nil {
		return b.limiter.Wait(ctx)
	}
	return ctx.Err()
}

// fanOut runs fn once per item with at most b.limit calls in flight. The
// first error cancels the remaining calls and is returned.
func fanOut[T any](ctx context.Context, b *Builder, kind string, items []T, fn func(ctx context.Context, item T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)
	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := b.wait(ctx); err != nil {
				return err
			}
			metrics.RecordFanOut(kind)
			return fn(ctx, item)
		})
	}
	return g.Wait()
}

// parallel runs the phase one reads together and waits for all of them.
func parallel(ctx context.Context, reads ...func(ctx context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, read := range reads {
		read := read
		g.Go(func() error { return read(ctx) })
	}
	return g.Wait()
}

// tally is a mutex-guarded accumulator for concurrent fan-out folds.
type tally struct {
	mu     sync.Mutex
	counts map[string]float64
}

func newTally() *tally {
	return &tally{counts: make(map[string]float64)}
}

func (t *tally) add(key string, n float64) {
	t.mu.Lock()
	t.counts[key] += n
	t.mu.Unlock()
}

func (t *tally) result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(Result, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}
