package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/sweep/core/cache"
	"github.com/kilianp07/sweep/core/events"
	"github.com/kilianp07/sweep/core/extract"
	"github.com/kilianp07/sweep/core/ledger"
	"github.com/kilianp07/sweep/core/logger"
	"github.com/kilianp07/sweep/core/model"
	"github.com/kilianp07/sweep/core/runner"
	"github.com/kilianp07/sweep/internal/eventbus"
)

// Runner serves one run request.
type Runner interface {
	Run(ctx context.Context, cfg model.Config, inst model.Instance) (runner.Result, error)
	// Cached reports whether Run would be served from the cache. It marks
	// the run as cached in the progress line and the RunStarted event.
	Cached(cfg model.Config, inst model.Instance) (bool, error)
}

// Summary counts what a PriorityRun did.
type Summary struct {
	Runs     int
	Cached   int
	Unknown  int
	Finished int
}

// Scheduler runs campaigns shortest-estimated-job first.
type Scheduler struct {
	runner  Runner
	log     logger.Logger
	measure string
	bus     eventbus.EventBus
	ledger  ledger.Store
	session string
	now     func() time.Time
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithCostMeasure selects the metric used as run cost.
func WithCostMeasure(name string) Option { return func(s *Scheduler) { s.measure = name } }

// WithEventBus publishes run events on bus.
func WithEventBus(bus eventbus.EventBus) Option { return func(s *Scheduler) { s.bus = bus } }

// WithLedger records every run in store under session.
func WithLedger(store ledger.Store, session string) Option {
	return func(s *Scheduler) {
		s.ledger = store
		s.session = session
	}
}

// New returns a Scheduler measuring cost as total time by default.
func New(r Runner, log logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{runner: r, log: log, measure: extract.TotalTime, ledger: ledger.Nop{}, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Validate checks every instance of every campaign with check before any
// run starts and returns the first error.
func Validate(campaigns []*Campaign, check func(model.Config, model.Instance) error) error {
	for _, c := range campaigns {
		for _, inst := range c.instances {
			if err := check(c.Config, inst); err != nil {
				return fmt.Errorf("%s method=%s: %w", inst.Params().Description(), c.Method(), err)
			}
		}
	}
	return nil
}

// pick returns the index of the pending campaign with the smallest
// absolute estimate. Equal estimates go to the earliest registered.
func pick(pending []*Campaign) int {
	best := 0
	for i := 1; i < len(pending); i++ {
		if math.Abs(pending[i].estimate) < math.Abs(pending[best].estimate) {
			best = i
		}
	}
	return best
}

// PriorityRun drives campaigns until none is pending. A run without a
// measurable cost retires its campaign and the loop goes on; any error
// from the runner aborts the loop.
func (s *Scheduler) PriorityRun(ctx context.Context, campaigns []*Campaign) (Summary, error) {
	var sum Summary
	total := 0
	var pending []*Campaign
	for _, c := range campaigns {
		total += c.Len()
		if c.finished {
			sum.Finished++
			s.finish(c)
			continue
		}
		pending = append(pending, c)
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("%w: %v", runner.ErrInterrupted, err)
		}
		i := pick(pending)
		c := pending[i]
		inst, _ := c.Next()
		sum.Runs++
		estimate := c.estimate

		cached, err := s.runner.Cached(c.Config, inst)
		if err != nil {
			return sum, err
		}
		prefix := ""
		if cached {
			prefix = "*cached* "
		}
		fp := cache.Fingerprint(c.Config, inst)
		s.log.Infof("%s%d/%d: %s method=%s: ETA=%g", prefix, sum.Runs, total, inst.Params().Description(), c.Method(), estimate)
		s.publish(events.RunStarted{
			Session: s.session, Campaign: c.Name(), Method: c.Method(), Fingerprint: fp,
			Run: sum.Runs, Total: total, Estimate: estimate, Cached: cached, Time: s.now(),
		})

		res, err := s.runner.Run(ctx, c.Config, inst)
		if err != nil {
			if errors.Is(err, runner.ErrInterrupted) {
				s.log.Warnf("interrupted during %s", fp)
			}
			return sum, err
		}

		cost, known := 0.0, false
		if res.Known {
			cost, known = res.Table.Float(s.measure)
		}
		if res.Cached {
			sum.Cached++
		}
		if known {
			if err := c.record(cost); err != nil {
				return sum, fmt.Errorf("estimate %s: %w", c.Name(), err)
			}
			s.log.Infof("%d/%d: %g seconds NETA=%g", sum.Runs, total, cost, c.estimate)
		} else {
			sum.Unknown++
			c.retire()
			s.log.Warnf("%d/%d: no %s for %s, retiring campaign", sum.Runs, total, s.measure, fp)
		}

		s.log.Debugw("run completed", map[string]any{
			"fingerprint": fp, "estimate": estimate, "cost": cost, "known": known,
			"cached": res.Cached, "elapsed_ms": res.Elapsed.Milliseconds(),
		})
		s.publish(events.RunCompleted{
			Session: s.session, Campaign: c.Name(), Method: c.Method(), Fingerprint: fp,
			Run: sum.Runs, Total: total, Estimate: estimate, Cost: cost, Known: known,
			Cached: res.Cached, Elapsed: res.Elapsed, NextEstimate: c.estimate, Time: s.now(),
		})
		rec := ledger.Record{
			Timestamp: s.now(), Session: s.session, Campaign: c.Name(), Method: c.Method(),
			Fingerprint: fp, Instance: inst.String(), Estimate: estimate, Cost: cost,
			Known: known, Cached: res.Cached, ElapsedMS: res.Elapsed.Milliseconds(),
		}
		if err := s.ledger.Append(ctx, rec); err != nil {
			s.log.Errorf("ledger append: %v", err)
		}

		if c.finished {
			sum.Finished++
			s.finish(c)
			pending = append(pending[:i], pending[i+1:]...)
		}
	}
	return sum, nil
}

func (s *Scheduler) finish(c *Campaign) {
	s.publish(events.CampaignFinished{
		Session: s.session, Campaign: c.Name(), Method: c.Method(),
		Runs: len(c.costs), Size: c.Len(), Completed: !c.failed, Time: s.now(),
	})
}

func (s *Scheduler) publish(e eventbus.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
