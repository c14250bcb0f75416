package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/sweep/core/metrics"
)

// PromSink records runs in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	cost      *prometheus.HistogramVec
	estimate  *prometheus.GaugeVec
	campaigns *prometheus.CounterVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The HTTP endpoint is served separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_runs_total",
		Help: "Total number of scheduled runs",
	}, []string{"method", "known", "cached"})
	cost := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sweep_run_cost",
		Help:    "Measured cost of completed runs",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"method"})
	estimate := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sweep_estimate_error",
		Help: "Absolute difference between the estimated and measured cost of the last run",
	}, []string{"campaign", "method"})
	campaigns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_campaigns_finished_total",
		Help: "Campaigns that left the schedule",
	}, []string{"method", "completed"})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if cost, err = register(reg, cost); err != nil {
		return nil, err
	}
	if estimate, err = register(reg, estimate); err != nil {
		return nil, err
	}
	if campaigns, err = register(reg, campaigns); err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, cost: cost, estimate: estimate, campaigns: campaigns}, nil
}

// register returns the already registered collector when c was
// registered before.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts the run and observes its cost when known.
func (s *PromSink) RecordRun(r coremetrics.RunRecord) error {
	s.runs.WithLabelValues(r.Method, strconv.FormatBool(r.Known), strconv.FormatBool(r.Cached)).Inc()
	if r.Known {
		s.cost.WithLabelValues(r.Method).Observe(r.Cost)
		diff := r.Cost - r.Estimate
		if diff < 0 {
			diff = -diff
		}
		s.estimate.WithLabelValues(r.Campaign, r.Method).Set(diff)
	}
	return nil
}

// RecordCampaign counts finished campaigns.
func (s *PromSink) RecordCampaign(c coremetrics.CampaignRecord) error {
	s.campaigns.WithLabelValues(c.Method, strconv.FormatBool(c.Completed)).Inc()
	return nil
}
