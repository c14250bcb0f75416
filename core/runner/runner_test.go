package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kilianp07/sweep/core/cache"
	"github.com/kilianp07/sweep/core/extract"
	"github.com/kilianp07/sweep/core/model"
	"github.com/kilianp07/sweep/core/solver"
	"github.com/kilianp07/sweep/infra/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("os/signal.signal_recv"))
}

const okOutput = "----------results----------\nAlgorithm execution time: 3.5\nAlgorithm execution CPU time: 3.2\nstats run successful\n"

type countingSolver struct {
	calls  int
	output string
	err    error
	during func()
}

func (s *countingSolver) Run(ctx context.Context, _ model.Config, _ model.Instance, out io.Writer) error {
	s.calls++
	fmt.Fprint(out, s.output)
	if s.during != nil {
		s.during()
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return s.err
}

func setup(t *testing.T, s Solver, opts Options, options ...Option) (*Runner, *cache.Store) {
	t.Helper()
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)
	return New(store, s, opts, logger.NopLogger{}, options...), store
}

var (
	cfg  = model.NewConfig("PLTL", "none", "spudd", "")
	inst = model.MustInstance(model.P("reward_spec", model.StringValue("AllTrue")), model.P("n", model.IntValue(3)))
)

func TestRunCachesResult(t *testing.T) {
	s := &countingSolver{output: okOutput}
	r, store := setup(t, s, DefaultOptions())

	first, err := r.Run(context.Background(), cfg, inst)
	require.NoError(t, err)
	require.True(t, first.Known)
	assert.False(t, first.Cached)

	second, err := r.Run(context.Background(), cfg, inst)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, s.calls)

	a, _ := first.Table.Float(extract.TotalTime)
	b, _ := second.Table.Float(extract.TotalTime)
	assert.Equal(t, a, b)
	assert.InDelta(t, 3.5, b, 1e-9)

	_, err = os.Stat(store.TempPath(cfg, inst))
	assert.True(t, os.IsNotExist(err))
}

func TestRunWithoutCachingReruns(t *testing.T) {
	s := &countingSolver{output: okOutput}
	r, _ := setup(t, s, Options{})
	for i := 0; i < 2; i++ {
		_, err := r.Run(context.Background(), cfg, inst)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.calls)
}

func TestCachedFollowsCachingOption(t *testing.T) {
	s := &countingSolver{output: okOutput}
	dir := t.TempDir()
	store, err := cache.NewStore(dir)
	require.NoError(t, err)
	caching := New(store, s, DefaultOptions(), logger.NopLogger{})
	_, err = caching.Run(context.Background(), cfg, inst)
	require.NoError(t, err)

	hit, err := caching.Cached(cfg, inst)
	require.NoError(t, err)
	assert.True(t, hit)

	// The record is on disk but a run without caching never reads it.
	fresh := New(store, s, Options{}, logger.NopLogger{})
	hit, err = fresh.Cached(cfg, inst)
	require.NoError(t, err)
	assert.False(t, hit)
	res, err := fresh.Run(context.Background(), cfg, inst)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, s.calls)
}

func TestRunCacheOnlySkipsSolver(t *testing.T) {
	s := &countingSolver{output: okOutput}
	r, _ := setup(t, s, Options{Caching: true, CacheOnly: true})
	res, err := r.Run(context.Background(), cfg, inst)
	require.NoError(t, err)
	assert.False(t, res.Known)
	assert.Zero(t, s.calls)
}

func TestRunValidationFailure(t *testing.T) {
	s := &countingSolver{output: "----------results----------\nCommand execution failed: boom\n"}
	r, store := setup(t, s, DefaultOptions())

	res, err := r.Run(context.Background(), cfg, inst)
	require.NoError(t, err)
	assert.False(t, res.Known)
	assertNoFiles(t, store)

	strict, store := setup(t, s, Options{Caching: true, StopOnError: true})
	_, err = strict.Run(context.Background(), cfg, inst)
	var verr *solver.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, cache.Fingerprint(cfg, inst), verr.Run)
	assertNoFiles(t, store)
}

func TestRunLaunchFailureCleansUp(t *testing.T) {
	s := &countingSolver{err: &solver.ValidationError{Reason: "solver could not be launched"}}
	r, store := setup(t, s, DefaultOptions())
	res, err := r.Run(context.Background(), cfg, inst)
	require.NoError(t, err)
	assert.False(t, res.Known)
	assertNoFiles(t, store)
}

func TestRunInterruptRemovesTempFile(t *testing.T) {
	var cancel context.CancelFunc
	notify := func(ctx context.Context, _ ...os.Signal) (context.Context, context.CancelFunc) {
		ctx, cancel = context.WithCancel(ctx)
		return ctx, cancel
	}
	s := &countingSolver{output: "----------results----------\npartial", during: func() { cancel() }}
	r, store := setup(t, s, DefaultOptions(), WithNotify(notify))

	_, err := r.Run(context.Background(), cfg, inst)
	require.ErrorIs(t, err, ErrInterrupted)
	assertNoFiles(t, store)
}

func TestRunConfigurationErrorIsFatal(t *testing.T) {
	s := &countingSolver{err: &model.ConfigurationError{Kind: "reward_spec", Name: "Nope"}}
	r, store := setup(t, s, DefaultOptions())
	_, err := r.Run(context.Background(), cfg, inst)
	var cerr *model.ConfigurationError
	assert.True(t, errors.As(err, &cerr))
	assertNoFiles(t, store)
}

func TestMeasure(t *testing.T) {
	s := &countingSolver{output: okOutput}
	r, _ := setup(t, s, Options{Caching: true, Verbose: true})
	v, ok, err := r.Measure(context.Background(), extract.TotalCPUTime, cfg, inst)
	require.NoError(t, err)
	require.True(t, ok)
	f, _ := v.Float()
	assert.InDelta(t, 3.2, f, 1e-9)

	_, ok, err = r.Measure(context.Background(), "Iterations", cfg, inst)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.calls)
}

func assertNoFiles(t *testing.T, store *cache.Store) {
	t.Helper()
	_, err := os.Stat(store.TempPath(cfg, inst))
	assert.True(t, os.IsNotExist(err), "temporary file left behind")
	_, err = os.Stat(store.Path(cfg, inst))
	assert.True(t, os.IsNotExist(err), "final file written")
}
