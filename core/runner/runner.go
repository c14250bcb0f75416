// Package runner fetches or produces the metrics of one (Config, Instance)
// run. Fresh runs write the solver output to a temporary file beside the
// cache path and only rename it into place once the output validates.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kilianp07/sweep/core/cache"
	"github.com/kilianp07/sweep/core/extract"
	"github.com/kilianp07/sweep/core/logger"
	"github.com/kilianp07/sweep/core/model"
	"github.com/kilianp07/sweep/core/solver"
)

// ErrInterrupted is returned when an operator interrupt arrives while a
// solver run is in flight. Callers must stop scheduling further runs.
var ErrInterrupted = errors.New("run interrupted")

// Options controls caching and failure handling. It is built once from
// configuration and flags.
type Options struct {
	Caching     bool
	CacheOnly   bool
	StopOnError bool
	Verbose     bool
}

// DefaultOptions enables caching and tolerates failed runs.
func DefaultOptions() Options { return Options{Caching: true} }

// Solver writes a complete run record for (cfg, inst) to out.
type Solver interface {
	Run(ctx context.Context, cfg model.Config, inst model.Instance, out io.Writer) error
}

// NotifyFunc scopes signal delivery to one run; see signal.NotifyContext.
type NotifyFunc func(ctx context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc)

// Result is the outcome of one run request. Known is false when the run
// was skipped in cache-only mode or failed validation.
type Result struct {
	Table   extract.Table
	Known   bool
	Cached  bool
	Elapsed time.Duration
}

// Runner serves run requests from the cache or the solver.
type Runner struct {
	store  *cache.Store
	solver Solver
	opts   Options
	log    logger.Logger
	notify NotifyFunc
	now    func() time.Time
}

// Option customises a Runner.
type Option func(*Runner)

// WithNotify replaces signal.NotifyContext.
func WithNotify(fn NotifyFunc) Option { return func(r *Runner) { r.notify = fn } }

// New returns a Runner.
func New(store *cache.Store, s Solver, opts Options, log logger.Logger, options ...Option) *Runner {
	r := &Runner{store: store, solver: s, opts: opts, log: log, notify: signal.NotifyContext, now: time.Now}
	for _, o := range options {
		o(r)
	}
	return r
}

// Options returns the options the runner was built with.
func (r *Runner) Options() Options { return r.opts }

// Cached reports whether Run would serve (cfg, inst) from a completed
// record. It is always false when caching is disabled.
func (r *Runner) Cached(cfg model.Config, inst model.Instance) (bool, error) {
	if !r.opts.Caching {
		return false, nil
	}
	return r.store.Cached(cfg, inst)
}

// Run returns the metrics for (cfg, inst). A cached record is parsed when
// caching is enabled. Otherwise, unless in cache-only mode, the solver is
// run. Validation failures yield an unknown result, or an error when
// StopOnError is set. Cache failures and interrupts are always errors.
func (r *Runner) Run(ctx context.Context, cfg model.Config, inst model.Instance) (Result, error) {
	hit, err := r.store.Cached(cfg, inst)
	if err != nil {
		return Result{}, err
	}
	if hit && r.opts.Caching {
		b, err := r.store.Read(cfg, inst)
		if err != nil {
			return Result{}, err
		}
		return Result{Table: extract.Extract(b), Known: true, Cached: true}, nil
	}
	if r.opts.CacheOnly {
		return Result{}, nil
	}
	return r.execute(ctx, cfg, inst)
}

func (r *Runner) execute(ctx context.Context, cfg model.Config, inst model.Instance) (res Result, err error) {
	runCtx, stop := r.notify(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := r.store.Create(cfg, inst)
	if err != nil {
		return Result{}, err
	}
	tmp := f.Name()
	committed := false
	defer func() {
		if committed {
			return
		}
		if derr := r.store.Discard(cfg, inst); derr != nil {
			r.log.Errorf("discard %s: %v", tmp, derr)
			if err == nil {
				err = derr
			}
			return
		}
		if errors.Is(err, ErrInterrupted) {
			r.log.Warnf("file '%s' deleted", tmp)
		}
	}()

	start := r.now()
	r.log.Debugf("running %s", cache.Fingerprint(cfg, inst))
	runErr := r.solver.Run(runCtx, cfg, inst, f)
	closeErr := f.Close()
	elapsed := r.now().Sub(start)

	if runCtx.Err() != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrInterrupted, cache.Fingerprint(cfg, inst))
	}
	var verr *solver.ValidationError
	switch {
	case errors.As(runErr, &verr):
		return r.failed(cfg, inst, verr)
	case runErr != nil:
		return Result{}, runErr
	case closeErr != nil:
		return Result{}, &cache.IOError{Op: "close", Path: tmp, Err: closeErr}
	}

	b, err := os.ReadFile(tmp)
	if err != nil {
		return Result{}, &cache.IOError{Op: "read", Path: tmp, Err: err}
	}
	if err := solver.Validate(b); err != nil {
		if errors.As(err, &verr) {
			return r.failed(cfg, inst, verr)
		}
		return Result{}, err
	}
	if err := r.store.Commit(cfg, inst); err != nil {
		return Result{}, err
	}
	committed = true
	return Result{Table: extract.Extract(b), Known: true, Elapsed: elapsed}, nil
}

func (r *Runner) failed(cfg model.Config, inst model.Instance, verr *solver.ValidationError) (Result, error) {
	verr.Run = cache.Fingerprint(cfg, inst)
	r.log.Errorf("%v", verr)
	if r.opts.StopOnError {
		return Result{}, verr
	}
	return Result{}, nil
}

// Measure runs (cfg, inst) and returns the named metric. An absent metric
// is unknown, not an error; it is reported when running verbosely.
func (r *Runner) Measure(ctx context.Context, measure string, cfg model.Config, inst model.Instance) (model.Value, bool, error) {
	res, err := r.Run(ctx, cfg, inst)
	if err != nil || !res.Known {
		return model.Value{}, false, err
	}
	v, ok := res.Table.Get(measure)
	if !ok && r.opts.Verbose {
		r.log.Warnf("request for unknown measure %s (%s)", measure, inst.Params().Description())
	}
	return v, ok, nil
}
