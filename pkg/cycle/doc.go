// Package cycle implements the top-level scheduling cycle: a pure
// function of a server snapshot, its policy, and the persistent
// fairshare state, producing an ordered sequence of run/backfill/
// preempt decisions plus the calendar those decisions leave behind.
//
//	cycle(snapshot, policy, fairshare_state) -> (run_actions, calendar, updated_fairshare)
//
// Run owns the whole control flow: build the placement sets once, seed
// the calendar from whatever is already running or reserved, sort the
// queued candidates, and then for each one in turn rebuild the
// running-job tallies and try to run it now; if that fails and the failure is the
// kind preemption can fix, ask pkg/preempt for a victim set; otherwise
// ask pkg/backfill whether a future slot should be reserved for it.
package cycle
