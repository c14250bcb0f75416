package metrics

import (
	"context"

	"github.com/kilianp07/sweep/core/events"
	coremetrics "github.com/kilianp07/sweep/core/metrics"
	"github.com/kilianp07/sweep/infra/logger"
	"github.com/kilianp07/sweep/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records run and
// campaign events in sink. It stops when the context is canceled or the
// bus is closed; the returned channel is closed once it has.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.Sink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := collect(ev, sink); err != nil {
					log.Warnf("metrics: %v", err)
				}
			}
		}
	}()
	return done
}

func collect(ev eventbus.Event, sink coremetrics.Sink) error {
	switch e := ev.(type) {
	case events.RunCompleted:
		return sink.RecordRun(coremetrics.RunRecord{
			Session:  e.Session,
			Campaign: e.Campaign,
			Method:   e.Method,
			Cost:     e.Cost,
			Known:    e.Known,
			Cached:   e.Cached,
			Estimate: e.Estimate,
			Elapsed:  e.Elapsed,
			Time:     e.Time,
		})
	case events.CampaignFinished:
		if r, ok := sink.(coremetrics.CampaignRecorder); ok {
			return r.RecordCampaign(coremetrics.CampaignRecord{
				Session:   e.Session,
				Campaign:  e.Campaign,
				Method:    e.Method,
				Runs:      e.Runs,
				Size:      e.Size,
				Completed: e.Completed,
				Time:      e.Time,
			})
		}
	}
	return nil
}
