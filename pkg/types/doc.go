// Package types holds the scheduler's in-memory snapshot entities: nodes,
// queues, resource reservations (jobs and advance reservations share one
// type), chunks, and node allocations (nspec). These are pure data types;
// the operations that act on them live in their own packages (pkg/universe,
// pkg/eligibility, pkg/placement, pkg/calendar, ...), mirroring how the
// scheduler core keeps entity storage separate from entity behavior.
//
// Every entity carries a Rank: a process-local, monotonically increasing
// integer assigned when the entity is created from the snapshot. Ranks are
// the scheduler's only stable identity and the only thing worth holding
// onto across a clone — see pkg/universe for the arena that owns them.
package types
