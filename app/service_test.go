package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sweep/config"
	"github.com/kilianp07/sweep/core/campaignfile"
	"github.com/kilianp07/sweep/core/ledger"
	"github.com/kilianp07/sweep/core/model"
	"github.com/kilianp07/sweep/infra/logger"
)

const campaign = `
methods:
  - language: PLTL
    algorithm: valIt
    description: pltl-vi
  - language: FLTL
    algorithm: valIt
    description: fltl-vi
problems:
  - name: alltrue
    growth: linear
    params:
      reward_spec: AllTrue
      action_spec: FiftyFifty
      n: {range: [1, 3]}
`

// countingExecutor reports an increasing algorithm time on every call.
type countingExecutor struct{ calls int }

func (e *countingExecutor) Execute(_ context.Context, _, _ string, out io.Writer) (int, error) {
	e.calls++
	fmt.Fprintf(out, "Algorithm execution time: %d\nstats run successful\n", e.calls)
	return 0, nil
}

func noSignals(ctx context.Context, _ ...os.Signal) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Cache.Dir = filepath.Join(dir, "data")
	cfg.Solver.WorkDir = filepath.Join(dir, "work")
	cfg.Tables.Dir = filepath.Join(dir, "points")
	cfg.Ledger.Path = filepath.Join(dir, "runs.jsonl")
	return &cfg
}

func newTestService(t *testing.T, cfg *config.Config, exec *countingExecutor) *Service {
	t.Helper()
	svc, err := New(cfg, WithExecutor(exec), WithSession("test-session"), WithNotify(noSignals))
	require.NoError(t, err)
	svc.log = logger.NopLogger{}
	return svc
}

func parse(t *testing.T, src string) *campaignfile.File {
	t.Helper()
	f, err := campaignfile.Parse([]byte(src))
	require.NoError(t, err)
	return f
}

func TestRunDrivesEveryCampaign(t *testing.T) {
	cfg := testConfig(t)
	exec := &countingExecutor{}
	svc := newTestService(t, cfg, exec)
	f := parse(t, campaign)

	sum, err := svc.Run(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Runs)
	assert.Equal(t, 0, sum.Cached)
	assert.Equal(t, 0, sum.Unknown)
	assert.Equal(t, 2, sum.Finished)
	assert.Equal(t, 6, exec.calls)

	recs, err := svc.History(context.Background(), ledger.Query{Session: "test-session"})
	require.NoError(t, err)
	require.Len(t, recs, 6)
	for _, r := range recs {
		assert.True(t, r.Known)
		assert.False(t, r.Cached)
	}

	pending, err := svc.Pending(f)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, p := range pending {
		assert.Equal(t, 3, p.Total)
		assert.Equal(t, 3, p.Cached)
		assert.Empty(t, p.Missing)
	}

	// A second session is served from the cache.
	sum, err = svc.Run(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Cached)
	assert.Equal(t, 6, exec.calls)
}

func TestRunCachedOnlyRetiresCampaigns(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.CachedOnly = true
	exec := &countingExecutor{}
	svc := newTestService(t, cfg, exec)

	sum, err := svc.Run(context.Background(), parse(t, campaign))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Runs)
	assert.Equal(t, 2, sum.Unknown)
	assert.Zero(t, exec.calls)
}

func TestRunInterrupted(t *testing.T) {
	svc := newTestService(t, testConfig(t), &countingExecutor{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Run(ctx, parse(t, campaign))
	require.Error(t, err)
}

func TestCampaignsRejectUnknownSpec(t *testing.T) {
	svc := newTestService(t, testConfig(t), &countingExecutor{})
	f := parse(t, strings.Replace(campaign, "AllTrue", "NoSuchReward", 1))
	_, err := svc.Run(context.Background(), f)
	var cerr *model.ConfigurationError
	require.True(t, errors.As(err, &cerr), "got %v", err)
}

func TestPendingBeforeAnyRun(t *testing.T) {
	svc := newTestService(t, testConfig(t), &countingExecutor{})
	pending, err := svc.Pending(parse(t, campaign))
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "pltl-vi", pending[0].Method)
	assert.Zero(t, pending[0].Cached)
	assert.Len(t, pending[0].Missing, 3)
}

func TestTablesWritesDataAndOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tables.Header = true
	exec := &countingExecutor{}
	svc := newTestService(t, cfg, exec)
	f := parse(t, campaign)

	_, err := svc.Run(context.Background(), f)
	require.NoError(t, err)
	paths, err := svc.Tables(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ".dat", filepath.Ext(paths[0]))
	assert.Equal(t, 6, exec.calls)

	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "n,"))
	assert.True(t, strings.HasPrefix(lines[1], "1,"))

	opts := strings.TrimSuffix(paths[0], ".dat") + ".opts"
	assert.FileExists(t, opts)
}

func TestTablesJSONFromCacheOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.CachedOnly = true
	cfg.Tables.Format = config.FormatJSON
	exec := &countingExecutor{}
	svc := newTestService(t, cfg, exec)

	paths, err := svc.Tables(context.Background(), parse(t, campaign))
	require.NoError(t, err)
	require.Len(t, paths, 1)
	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), "null")
	assert.Zero(t, exec.calls)
}

func TestHistoryWithoutLedger(t *testing.T) {
	svc := newTestService(t, testConfig(t), &countingExecutor{})
	recs, err := svc.History(context.Background(), ledger.Query{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Estimator.Backend = "abacus"
	_, err := New(cfg)
	require.Error(t, err)
}

func TestStartPromServerStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := StartPromServer(ctx, "127.0.0.1:0", logger.NopLogger{})
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("prom server did not stop")
	}
}
