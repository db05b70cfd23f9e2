// Package report runs analyses off the caller's goroutine, consults the
// result cache and renders text summaries.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/tradestats/cache"
	"github.com/rustyeddy/tradestats/dataset"
	"github.com/rustyeddy/tradestats/journal"
	"github.com/rustyeddy/tradestats/pkg/id"
	"github.com/rustyeddy/tradestats/stats"
)

// ErrBusy is returned by an exclusive Runner while a run is in flight.
var ErrBusy = errors.New("report: analysis already running")

// Request is one analysis. Breakdown is optional; when set the yearly
// breakdown runs alongside the metrics.
type Request struct {
	Table     *dataset.Table
	Dataset   string
	Options   stats.Options
	Breakdown *stats.BreakdownOptions
}

// Report is the outcome of a Request.
type Report struct {
	RunID   string
	Created time.Time
	Dataset string
	Cached  bool

	Options stats.Options
	Result  stats.Result
	Years   map[string]stats.PeriodMetrics
}

// Org converts the report for journal.FormatReportOrg.
func (r Report) Org() journal.ReportRun {
	return journal.ReportRun{
		RunID:   r.RunID,
		Created: r.Created,
		Dataset: r.Dataset,
		Cached:  r.Cached,
		Options: r.Options,
		Metrics: r.Result.Metrics,
		Years:   r.Years,
	}
}

// Runner executes requests as tasks. The zero value is not usable; call
// NewRunner.
type Runner struct {
	cache     cache.Cache
	log       zerolog.Logger
	exclusive bool

	mu      sync.Mutex
	running int
}

// NewRunner returns a Runner. c may be nil to disable caching. An
// exclusive runner refuses a second Submit until the first task ends.
func NewRunner(c cache.Cache, log zerolog.Logger, exclusive bool) *Runner {
	return &Runner{
		cache:     c,
		log:       log.With().Str("component", "report").Logger(),
		exclusive: exclusive,
	}
}

// Running is the number of tasks in flight.
func (r *Runner) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Task is a pending Report.
type Task struct {
	RunID string

	done chan struct{}
	rep  Report
	err  error
}

// Done is closed once the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes or ctx ends. A cancelled wait
// discards the result.
func (t *Task) Wait(ctx context.Context) (Report, error) {
	select {
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case <-t.done:
		return t.rep, t.err
	}
}

// Submit validates req and starts it on its own goroutine.
func (r *Runner) Submit(ctx context.Context, req Request) (*Task, error) {
	if req.Table == nil {
		return nil, fmt.Errorf("report: table is required")
	}

	r.mu.Lock()
	if r.exclusive && r.running > 0 {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.running++
	r.mu.Unlock()

	t := &Task{RunID: id.New(), done: make(chan struct{})}
	go func() {
		defer func() {
			r.mu.Lock()
			r.running--
			r.mu.Unlock()
			close(t.done)
		}()
		t.rep, t.err = r.run(ctx, t.RunID, req)
	}()
	return t, nil
}

// Run submits req and waits for it.
func (r *Runner) Run(ctx context.Context, req Request) (Report, error) {
	t, err := r.Submit(ctx, req)
	if err != nil {
		return Report{}, err
	}
	return t.Wait(ctx)
}

type cacheKeyInput struct {
	Options   stats.Options           `json:"options"`
	Breakdown *stats.BreakdownOptions `json:"breakdown,omitempty"`
}

func (r *Runner) run(ctx context.Context, runID string, req Request) (Report, error) {
	log := r.log.With().Str("run_id", runID).Str("dataset", req.Dataset).Logger()
	start := time.Now()

	rep := Report{
		RunID:   runID,
		Created: start.UTC(),
		Dataset: req.Dataset,
		Options: req.Options,
	}

	var key cache.Key
	if r.cache != nil {
		var err error
		key, err = cache.KeyOf(req.Table, cacheKeyInput{Options: req.Options, Breakdown: req.Breakdown})
		if err != nil {
			return Report{}, fmt.Errorf("cache key: %w", err)
		}
		e, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("cache lookup failed")
		} else if ok {
			log.Debug().Str("cached_run_id", e.RunID).Msg("cache hit")
			rep.RunID, rep.Created, rep.Cached = e.RunID, e.Created, true
			rep.Result, rep.Years = e.Result, e.Years
			return rep, nil
		}
		log.Debug().Msg("cache miss")
	}

	log.Info().Int("rows", req.Table.Len()).Msg("analysis started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		res, err := stats.Calculate(req.Table, req.Options)
		if err != nil {
			return fmt.Errorf("calculate metrics: %w", err)
		}
		rep.Result = res
		return nil
	})
	if req.Breakdown != nil {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			years, err := stats.Yearly(req.Table, *req.Breakdown)
			if err != nil {
				return fmt.Errorf("yearly breakdown: %w", err)
			}
			rep.Years = years
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("analysis failed")
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	log.Info().
		Int("trades", rep.Result.Metrics.NumTrades).
		Int("years", len(rep.Years)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis finished")

	if r.cache != nil {
		err := r.cache.Put(ctx, key, cache.Entry{
			RunID:   runID,
			Created: rep.Created,
			Result:  rep.Result,
			Years:   rep.Years,
		})
		if err != nil {
			log.Warn().Err(err).Msg("cache store failed")
		}
	}
	return rep, nil
}
