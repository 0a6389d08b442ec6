package calendar

import (
	"time"

	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/types"
)

// CmdKind selects how far Advance walks the calendar.
type CmdKind int

const (
	// CmdNextEvent advances Delta events (1 if Delta <= 0).
	CmdNextEvent CmdKind = iota
	// CmdUntilTime advances through every event at or before Time.
	CmdUntilTime
)

// Command is the advance request passed to Advance, mirroring
// simulate_events' next_event/time=T modes.
type Command struct {
	Kind  CmdKind
	Delta int
	Time  time.Time
}

// PrimeTableFunc returns the next prime<->non-prime transition strictly
// after t, and false when the site has no prime table configured.
type PrimeTableFunc func(t time.Time) (time.Time, bool)

// Advance walks c forward from now, applying each event's effect to the
// universe it belongs to, until cmd is satisfied or the calendar is
// exhausted. It returns the simulated time reached and whether an event
// was available to process at all (false once the calendar runs dry).
//
// Before consuming the next event, Advance lazily inserts a
// policy_change event at the next known prime/non-prime boundary after
// the current simulated time, unless that boundary was already inserted,
// and keeps the list sorted, so a
// caller that only asks for "the next event" still observes the prime
// flip in order rather than skipping over it.
func (c *Calendar) Advance(now time.Time, policy *types.Policy, cmd Command, primeTable PrimeTableFunc) (time.Time, bool) {
	simTime := now
	n := cmd.Delta
	if cmd.Kind == CmdNextEvent && n <= 0 {
		n = 1
	}
	processed := 0
	for {
		if primeTable != nil {
			c.insertPendingBoundary(simTime, primeTable)
		}
		e := c.nextUnconsumed()
		if e == nil {
			return simTime, false
		}
		if cmd.Kind == CmdUntilTime && e.Time.After(cmd.Time) {
			return simTime, true
		}
		c.apply(policy, e)
		e.consumed = true
		simTime = e.Time
		processed++
		if cmd.Kind == CmdNextEvent && processed >= n {
			return simTime, true
		}
	}
}

func (c *Calendar) insertPendingBoundary(after time.Time, primeTable PrimeTableFunc) {
	t, ok := primeTable(after)
	if !ok || c.insertedBoundaries[t] {
		return
	}
	c.insertedBoundaries[t] = true
	c.Events = append(c.Events, &Event{Time: t, Kind: KindPolicyChange})
	c.sort()
}

func (c *Calendar) apply(policy *types.Policy, e *Event) {
	switch e.Kind {
	case KindRun:
		for _, ns := range e.Resv.NSpecs {
			applyRun(ns)
		}
		e.Resv.State = types.StateRunning
	case KindEnd:
		for _, ns := range e.Resv.NSpecs {
			applyEnd(ns)
		}
		e.Resv.State = types.StateExiting
	case KindNodeUp:
		e.Node.State &^= types.NodeSleeping
		e.Node.State |= types.NodeFree
	case KindDedTimeStart:
		policy.IsDedTime = true
	case KindDedTimeEnd:
		policy.IsDedTime = false
	case KindPolicyChange:
		policy.IsPrimeTime = !policy.IsPrimeTime
	}
}

// applyRun and applyEnd mirror pkg/placement's consume, kept as separate
// copies here since calendar must not import placement: a run event
// claims a chunk's resources on its node, an end event releases them.
func applyRun(ns types.NSpec) {
	for _, e := range ns.ResReq.Entries() {
		if !e.Def.Flags.Has(resource.FlagConsumable) {
			continue
		}
		ne, ok := ns.Node.Res.Get(e.Def)
		if !ok {
			continue
		}
		sum, err := resource.Add(e.Def, ne.Assigned, e.Available)
		if err == nil {
			ne.Assigned = sum
		}
	}
}

func applyEnd(ns types.NSpec) {
	for _, e := range ns.ResReq.Entries() {
		if !e.Def.Flags.Has(resource.FlagConsumable) {
			continue
		}
		ne, ok := ns.Node.Res.Get(e.Def)
		if !ok {
			continue
		}
		diff, err := resource.Subtract(e.Def, ne.Assigned, e.Available)
		if err == nil {
			ne.Assigned = diff
		}
	}
}
