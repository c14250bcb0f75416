package scheduler

import (
	"fmt"

	"github.com/kilianp07/sweep/core/model"
)

// Estimator predicts the next cost from the observed ones.
type Estimator interface {
	Next(costs []float64) (float64, error)
}

// Campaign pairs one parameter set with one solver configuration. Its
// instances run in sorted expansion order.
type Campaign struct {
	Problem model.ParameterSet
	Config  model.Config

	est       Estimator
	instances []model.Instance
	costs     []float64
	estimate  float64
	finished  bool
	failed    bool
}

// NewCampaign expands ps. A campaign without instances starts finished.
func NewCampaign(ps model.ParameterSet, cfg model.Config, est Estimator) (*Campaign, error) {
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	c := &Campaign{
		Problem:   ps.Clone(),
		Config:    cfg,
		est:       est,
		instances: model.Expand(ps).Instances(),
	}
	e, err := est.Next(nil)
	if err != nil {
		return nil, fmt.Errorf("initial estimate: %w", err)
	}
	c.estimate = e
	c.finished = len(c.instances) == 0
	return c, nil
}

// Name is the description of the scalar problem parameters.
func (c *Campaign) Name() string { return c.Problem.Description() }

// Method is the solver configuration label.
func (c *Campaign) Method() string { return c.Config.String() }

// Len returns the number of instances.
func (c *Campaign) Len() int { return len(c.instances) }

// Instances returns the instances in run order.
func (c *Campaign) Instances() []model.Instance {
	out := make([]model.Instance, len(c.instances))
	copy(out, c.instances)
	return out
}

// Costs returns the observed costs in run order.
func (c *Campaign) Costs() []float64 {
	out := make([]float64, len(c.costs))
	copy(out, c.costs)
	return out
}

// Estimate is the current estimate of the next run's cost.
func (c *Campaign) Estimate() float64 { return c.estimate }

// Finished reports whether the campaign left the schedule.
func (c *Campaign) Finished() bool { return c.finished }

// Failed reports whether a run without a measurable cost retired the
// campaign early.
func (c *Campaign) Failed() bool { return c.failed }

// Next returns the instance that runs next.
func (c *Campaign) Next() (model.Instance, bool) {
	if c.finished || len(c.costs) >= len(c.instances) {
		return model.Instance{}, false
	}
	return c.instances[len(c.costs)], true
}

func (c *Campaign) record(cost float64) error {
	c.costs = append(c.costs, cost)
	if len(c.costs) == len(c.instances) {
		c.finished = true
	}
	e, err := c.est.Next(c.costs)
	if err != nil {
		return err
	}
	c.estimate = e
	return nil
}

func (c *Campaign) retire() {
	c.finished = true
	c.failed = true
}
