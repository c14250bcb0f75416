// Package events defines the campaign events emitted on the event bus.
//
// Available event types:
//   - RunStarted: a run was selected by the scheduler
//   - RunCompleted: a run finished, from cache or from the solver
//   - CampaignFinished: a campaign has no more runs to schedule
package events
