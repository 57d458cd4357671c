package events

import (
	"fmt"
	"time"

	"github.com/dshills/piston/internal/event"
)

// KeyScheduled is fired for every due cron job.
const KeyScheduled event.Key = "schedule"

// JobKey returns the capability key carried by one job's events, so a
// listener can observe a single job.
func JobKey(job string) event.Key {
	return event.Key("schedule." + job)
}

// Scheduled is fired when a cron job comes due.
type Scheduled struct {
	event.Base

	// Job is the job name.
	Job string

	// Expression is the cron expression that matched.
	Expression string

	// Due is the minute the job was due.
	Due time.Time

	// Data is the job's configured payload.
	Data any
}

// NewScheduled creates a scheduled event.
func NewScheduled(job, expr string, due time.Time, data any) *Scheduled {
	return &Scheduled{
		Base:       event.NewNamedBase(KeyScheduled, "ScheduledEvent"),
		Job:        job,
		Expression: expr,
		Due:        due,
		Data:       data,
	}
}

// EventTags implements event.Tagged.
func (e *Scheduled) EventTags() []event.Key { return []event.Key{JobKey(e.Job)} }

// String implements fmt.Stringer.
func (e *Scheduled) String() string {
	return fmt.Sprintf("%s{job=%s, due=%s}", e.EventName(), e.Job, e.Due.Format(time.RFC3339))
}
