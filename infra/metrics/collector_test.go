package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kilianp07/sweep/core/events"
	"github.com/kilianp07/sweep/core/factory"
	coremetrics "github.com/kilianp07/sweep/core/metrics"
	"github.com/kilianp07/sweep/infra/logger"
	"github.com/kilianp07/sweep/internal/eventbus"
)

type memSink struct {
	mu        sync.Mutex
	runs      []coremetrics.RunRecord
	campaigns []coremetrics.CampaignRecord
}

func (m *memSink) RecordRun(r coremetrics.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func (m *memSink) RecordCampaign(c coremetrics.CampaignRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns = append(m.campaigns, c)
	return nil
}

func (m *memSink) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs), len(m.campaigns)
}

func TestEventCollector(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	bus := eventbus.New()
	sink := &memSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink, logger.NopLogger{})

	bus.Publish(events.RunStarted{Method: "spudd"})
	bus.Publish(events.RunCompleted{Method: "spudd", Cost: 2, Known: true})
	bus.Publish(events.CampaignFinished{Method: "spudd", Completed: true})

	require.Eventually(t, func() bool {
		r, c := sink.counts()
		return r == 1 && c == 1
	}, time.Second, 5*time.Millisecond)
	assert.InDelta(t, 2, sink.runs[0].Cost, 1e-9)
	assert.True(t, sink.campaigns[0].Completed)

	cancel()
	<-done
	bus.Close()
}

func TestEventCollectorStopsOnBusClose(t *testing.T) {
	bus := eventbus.New()
	done := StartEventCollector(context.Background(), bus, &memSink{}, logger.NopLogger{})
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestEventCollectorNilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, &memSink{}, logger.NopLogger{})
	_, open := <-done
	assert.False(t, open)
}

func TestBuiltinSinks(t *testing.T) {
	s, err := coremetrics.NewSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, s)
	assert.Subset(t, coremetrics.SinkTypes(), []string{"influx", "nop", "prometheus"})
}
