// Package schedule fires named events on cron expressions.
//
// Each due job produces an events.Scheduled event dispatched with
// Bus.FireAsync, keyed both by events.KeyScheduled and by the job's own
// events.JobKey so a listener may observe one job or all of them.
package schedule
