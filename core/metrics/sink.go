package metrics

import (
	"time"
)

// RunRecord describes one completed run.
type RunRecord struct {
	Session  string
	Campaign string
	Method   string
	Cost     float64
	Known    bool
	Cached   bool
	Estimate float64
	Elapsed  time.Duration
	Time     time.Time
}

// CampaignRecord describes a campaign leaving the schedule.
type CampaignRecord struct {
	Session   string
	Campaign  string
	Method    string
	Runs      int
	Size      int
	Completed bool
	Time      time.Time
}

// Sink records runs.
type Sink interface {
	RecordRun(r RunRecord) error
}

// CampaignRecorder is implemented by sinks that also track campaigns.
type CampaignRecorder interface {
	RecordCampaign(c CampaignRecord) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error           { return nil }
func (NopSink) RecordCampaign(CampaignRecord) error { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordRun(r RunRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordCampaign forwards to sinks that track campaigns.
func (m *MultiSink) RecordCampaign(c CampaignRecord) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CampaignRecorder); ok {
			if err := rec.RecordCampaign(c); err != nil {
				return err
			}
		}
	}
	return nil
}
