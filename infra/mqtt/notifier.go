package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/sweep/core/events"
	coremqtt "github.com/kilianp07/sweep/core/mqtt"
	"github.com/kilianp07/sweep/infra/logger"
	"github.com/kilianp07/sweep/internal/eventbus"
)

// Message is the JSON payload published for a run event.
type Message struct {
	Type         string    `json:"type"`
	Session      string    `json:"session"`
	Campaign     string    `json:"campaign"`
	Method       string    `json:"method"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	Run          int       `json:"run,omitempty"`
	Total        int       `json:"total,omitempty"`
	Estimate     float64   `json:"estimate"`
	Cost         *float64  `json:"cost,omitempty"`
	Cached       bool      `json:"cached"`
	ElapsedMS    int64     `json:"elapsed_ms,omitempty"`
	NextEstimate float64   `json:"next_estimate,omitempty"`
	Completed    *bool     `json:"completed,omitempty"`
	Runs         int       `json:"runs,omitempty"`
	Size         int       `json:"size,omitempty"`
	Time         time.Time `json:"time"`
}

// Message types.
const (
	TypeRunStarted       = "run_started"
	TypeRunCompleted     = "run_completed"
	TypeCampaignFinished = "campaign_finished"
)

// Notifier publishes scheduler events under "<topic>/<session>/<type>".
type Notifier struct {
	pub   coremqtt.Publisher
	topic string
	log   logger.Logger
}

// NewNotifier returns a Notifier publishing through pub.
func NewNotifier(pub coremqtt.Publisher, topic string, log logger.Logger) *Notifier {
	if topic == "" {
		topic = "sweep"
	}
	return &Notifier{pub: pub, topic: topic, log: log}
}

// Encode converts an event into its message. ok is false for events the
// notifier does not publish.
func Encode(ev eventbus.Event) (Message, bool) {
	switch e := ev.(type) {
	case events.RunStarted:
		return Message{
			Type: TypeRunStarted, Session: e.Session, Campaign: e.Campaign, Method: e.Method,
			Fingerprint: e.Fingerprint, Run: e.Run, Total: e.Total, Estimate: e.Estimate,
			Cached: e.Cached, Time: e.Time,
		}, true
	case events.RunCompleted:
		m := Message{
			Type: TypeRunCompleted, Session: e.Session, Campaign: e.Campaign, Method: e.Method,
			Fingerprint: e.Fingerprint, Run: e.Run, Total: e.Total, Estimate: e.Estimate,
			Cached: e.Cached, ElapsedMS: e.Elapsed.Milliseconds(), NextEstimate: e.NextEstimate, Time: e.Time,
		}
		if e.Known {
			cost := e.Cost
			m.Cost = &cost
		}
		return m, true
	case events.CampaignFinished:
		completed := e.Completed
		return Message{
			Type: TypeCampaignFinished, Session: e.Session, Campaign: e.Campaign, Method: e.Method,
			Completed: &completed, Runs: e.Runs, Size: e.Size, Time: e.Time,
		}, true
	}
	return Message{}, false
}

// Notify publishes one event. Unsupported events are ignored.
func (n *Notifier) Notify(ev eventbus.Event) error {
	m, ok := Encode(ev)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return n.pub.Publish(fmt.Sprintf("%s/%s/%s", n.topic, m.Session, m.Type), payload)
}

// Start forwards bus events until ctx is canceled or the bus is closed.
// The returned channel is closed once forwarding has stopped.
func (n *Notifier) Start(ctx context.Context, bus eventbus.EventBus) <-chan struct{} {
	done := make(chan struct{})
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
				if err := n.Notify(ev); err != nil {
					n.log.Warnf("notify: %v", err)
				}
			}
		}
	}()
	return done
}
