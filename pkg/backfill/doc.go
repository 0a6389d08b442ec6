// Package backfill decides, for a job that just failed to run
// immediately, whether it is worth reserving a future start time for —
// and if so, admits it against one of the configured quotas and hands it
// to pkg/calendar.CalcRunTime to find that slot.
//
// Rejection classes that can never be satisfied by waiting (a hard
// dedicated-time boundary, a per-user/group/project limit, an
// insufficient aggregate group share), and any failure recorded with
// never-run status (such as a queue that is not enabled and started),
// short-circuit before any quota is consulted. Everything else is admitted in priority order: a queue's
// own set-aside top-job slots, a fairshare group's top-job slots, a
// group currently running under its fair allocation, and finally the
// site's global backfill depth.
package backfill
