package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kilianp07/sweep/core/estimator"
	"github.com/kilianp07/sweep/core/events"
	"github.com/kilianp07/sweep/core/extract"
	"github.com/kilianp07/sweep/core/ledger"
	"github.com/kilianp07/sweep/core/model"
	"github.com/kilianp07/sweep/core/runner"
	"github.com/kilianp07/sweep/infra/logger"
	"github.com/kilianp07/sweep/internal/eventbus"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type constEstimator float64

func (c constEstimator) Next([]float64) (float64, error) { return float64(c), nil }

type fakeRunner struct {
	order   []string
	cost    map[string]float64
	unknown map[string]bool
	err     error
}

func (f *fakeRunner) Cached(model.Config, model.Instance) (bool, error) { return false, nil }

func (f *fakeRunner) Run(_ context.Context, cfg model.Config, _ model.Instance) (runner.Result, error) {
	f.order = append(f.order, cfg.Description)
	if f.err != nil {
		return runner.Result{}, f.err
	}
	if f.unknown[cfg.Description] {
		return runner.Result{}, nil
	}
	raw := fmt.Sprintf("----------results----------\nAlgorithm execution time: %g\n", f.cost[cfg.Description])
	return runner.Result{Table: extract.Extract([]byte(raw)), Known: true}, nil
}

func campaign(t *testing.T, name string, est Estimator) *Campaign {
	t.Helper()
	ps := model.NewParameterSet(
		model.P("reward_spec", model.StringValue("AllTrue")),
		model.P("n", model.RangeValue(1, 3)),
	)
	c, err := NewCampaign(ps, model.NewConfig("PLTL", "none", "spudd", name), est)
	require.NoError(t, err)
	return c
}

func TestPriorityRunCheapestFirst(t *testing.T) {
	a := campaign(t, "A", constEstimator(10))
	b := campaign(t, "B", constEstimator(1))
	r := &fakeRunner{cost: map[string]float64{"A": 10, "B": 1}}

	sum, err := New(r, logger.NopLogger{}).PriorityRun(context.Background(), []*Campaign{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "B", "B", "A", "A", "A"}, r.order)
	assert.Equal(t, Summary{Runs: 6, Finished: 2}, sum)
	assert.True(t, a.Finished())
	assert.Equal(t, []float64{10, 10, 10}, a.Costs())
}

func TestPriorityRunTieGoesToFirstRegistered(t *testing.T) {
	a := campaign(t, "A", constEstimator(5))
	b := campaign(t, "B", constEstimator(-5))
	r := &fakeRunner{cost: map[string]float64{"A": 1, "B": 1}}

	_, err := New(r, logger.NopLogger{}).PriorityRun(context.Background(), []*Campaign{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A", "A", "B", "B", "B"}, r.order)
}

func TestPriorityRunReordersOnObservedCosts(t *testing.T) {
	a := campaign(t, "A", estimator.New(nil, estimator.Linear))
	b := campaign(t, "B", estimator.New(nil, estimator.Linear))
	r := &fakeRunner{cost: map[string]float64{"A": 100, "B": 1}}

	_, err := New(r, logger.NopLogger{}).PriorityRun(context.Background(), []*Campaign{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "B", "B", "A", "A"}, r.order)
}

func TestPriorityRunUnknownRetiresCampaign(t *testing.T) {
	a := campaign(t, "A", constEstimator(1))
	b := campaign(t, "B", constEstimator(2))
	r := &fakeRunner{cost: map[string]float64{"B": 2}, unknown: map[string]bool{"A": true}}

	sum, err := New(r, logger.NopLogger{}).PriorityRun(context.Background(), []*Campaign{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "B", "B"}, r.order)
	assert.Equal(t, 1, sum.Unknown)
	assert.True(t, a.Failed())
	assert.False(t, b.Failed())
}

func TestPriorityRunAbortsOnError(t *testing.T) {
	boom := errors.New("boom")
	a := campaign(t, "A", constEstimator(1))
	r := &fakeRunner{err: boom}

	sum, err := New(r, logger.NopLogger{}).PriorityRun(context.Background(), []*Campaign{a})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, sum.Runs)
	assert.False(t, a.Finished())
}

func TestPriorityRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRunner{}
	_, err := New(r, logger.NopLogger{}).PriorityRun(ctx, []*Campaign{campaign(t, "A", constEstimator(1))})
	require.ErrorIs(t, err, runner.ErrInterrupted)
	assert.Empty(t, r.order)
}

func TestPriorityRunEmpty(t *testing.T) {
	empty, err := NewCampaign(model.NewParameterSet(model.P("n", model.ListValue())), model.NewConfig("PLTL", "none", "spudd", "E"), constEstimator(1))
	require.NoError(t, err)
	assert.True(t, empty.Finished())

	r := &fakeRunner{}
	sum, err := New(r, logger.NopLogger{}).PriorityRun(context.Background(), []*Campaign{empty})
	require.NoError(t, err)
	assert.Empty(t, r.order)
	assert.Equal(t, 1, sum.Finished)
}

func TestPriorityRunPublishesAndRecords(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	store, err := ledger.Open("jsonl", t.TempDir()+"/runs.jsonl")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	a := campaign(t, "A", constEstimator(1))
	r := &fakeRunner{cost: map[string]float64{"A": 2}}
	s := New(r, logger.NopLogger{}, WithEventBus(bus), WithLedger(store, "s1"), WithCostMeasure(extract.TotalTime))
	_, err = s.PriorityRun(context.Background(), []*Campaign{a})
	require.NoError(t, err)

	var started, completed, finished int
	timeout := time.After(time.Second)
	for finished == 0 {
		select {
		case e := <-sub:
			switch ev := e.(type) {
			case events.RunStarted:
				started++
				assert.Equal(t, 3, ev.Total)
			case events.RunCompleted:
				completed++
				assert.True(t, ev.Known)
				assert.InDelta(t, 2, ev.Cost, 1e-9)
			case events.CampaignFinished:
				finished++
				assert.True(t, ev.Completed)
				assert.Equal(t, 3, ev.Runs)
			}
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
	assert.Equal(t, 3, started)
	assert.Equal(t, 3, completed)

	recs, err := store.Query(context.Background(), ledger.Query{Session: "s1"})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "A", recs[0].Method)
	assert.Equal(t, "reward_spec=AllTrue", recs[0].Campaign)
}

func TestValidateStopsAtFirstError(t *testing.T) {
	a := campaign(t, "A", constEstimator(1))
	calls := 0
	err := Validate([]*Campaign{a}, func(_ model.Config, inst model.Instance) error {
		calls++
		if v, _ := inst.Get("n"); v.String() == "2" {
			return errors.New("bad n")
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad n")
	assert.Equal(t, 2, calls)
}
