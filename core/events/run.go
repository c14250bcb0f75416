package events

import "time"

// RunStarted is published when the scheduler selects the next run.
type RunStarted struct {
	Session     string
	Campaign    string
	Method      string
	Fingerprint string
	Run         int
	Total       int
	Estimate    float64
	Cached      bool
	Time        time.Time
}

// RunCompleted is published after a run. Known is false when no cost
// could be measured.
type RunCompleted struct {
	Session      string
	Campaign     string
	Method       string
	Fingerprint  string
	Run          int
	Total        int
	Estimate     float64
	Cost         float64
	Known        bool
	Cached       bool
	Elapsed      time.Duration
	NextEstimate float64
	Time         time.Time
}

// CampaignFinished is published when a campaign leaves the schedule.
// Completed is false when a failed run retired it early.
type CampaignFinished struct {
	Session   string
	Campaign  string
	Method    string
	Runs      int
	Size      int
	Completed bool
	Time      time.Time
}
