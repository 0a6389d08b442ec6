package eligibility

import (
	"time"

	"github.com/openpbs/pbssched/pkg/placement"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/types"
)

// checkQueueState is gate 1: the queue must be enabled and started, and
// its prime/nonprime/dedicated type must match the current policy state.
func checkQueueState(queue *types.Queue, policy *types.Policy) *schderr.SchedError {
	if !queue.Enabled || !queue.Started {
		return schderr.New(schderr.StatusNeverRun, schderr.CodeQueueNotRunning,
			"queue "+queue.Name+" is not enabled and started")
	}
	if queue.IsDedicated() && !policy.IsDedTime {
		return schderr.New(schderr.StatusNeverRun, schderr.CodeDedTime,
			"queue "+queue.Name+" only runs during dedicated time")
	}
	if queue.IsPrimeOnly() && !policy.IsPrimeTime {
		return schderr.New(schderr.StatusNotRun, schderr.CodePrimeBoundary,
			"queue "+queue.Name+" only runs during prime time")
	}
	if queue.IsNonprimeOnly() && policy.IsPrimeTime {
		return schderr.New(schderr.StatusNotRun, schderr.CodePrimeBoundary,
			"queue "+queue.Name+" only runs during non-prime time")
	}
	return nil
}

// checkDedTimeBoundary is gate 2: a job running now must not cross into
// dedicated time before it finishes unless its queue is itself dedicated,
// and a job evaluated while dedicated time is already in effect must be
// in a dedicated queue.
func checkDedTimeBoundary(resv *types.ResourceResv, policy *types.Policy, now time.Time, nextDedStart *time.Time) *schderr.SchedError {
	dedicated := resv.Queue != nil && resv.Queue.IsDedicated()
	if policy.IsDedTime && !dedicated {
		return schderr.New(schderr.StatusNeverRun, schderr.CodeDedTime,
			"dedicated time is in effect and "+resv.Name+" is not in a dedicated queue")
	}
	if nextDedStart != nil && !dedicated && resv.Duration > 0 {
		if now.Add(resv.Duration).After(*nextDedStart) {
			return schderr.New(schderr.StatusNeverRun, schderr.CodeCrossDedTimeBoundary,
				resv.Name+" would still be running when dedicated time starts")
		}
	}
	return nil
}

// checkPrimeBoundary is gate 3: walltime must fit before the next
// prime<->non-prime transition, unless backfill_prime grants a
// prime_spill allowance past it.
func checkPrimeBoundary(resv *types.ResourceResv, now time.Time, nextPrimeBoundary *time.Time, backfillPrime bool, primeSpill time.Duration) *schderr.SchedError {
	if nextPrimeBoundary == nil || resv.Duration <= 0 {
		return nil
	}
	boundary := *nextPrimeBoundary
	if backfillPrime {
		boundary = boundary.Add(primeSpill)
	}
	if now.Add(resv.Duration).After(boundary) {
		return schderr.New(schderr.StatusNotRun, schderr.CodePrimeBoundary,
			resv.Name+" would run across the next prime/non-prime boundary")
	}
	return nil
}

// checkQueueLimits is half of gate 4: per-queue max-running and
// per-user/group/project counts.
func (c *RunningCounts) checkQueueLimits(q *types.Queue, resv *types.ResourceResv) *schderr.SchedError {
	lim := q.Limits
	if lim.MaxRunning > 0 && c.QueueTotal[q.Name] >= lim.MaxRunning {
		return schderr.New(schderr.StatusNotRun, schderr.CodeQueueUserLimitReached,
			"queue "+q.Name+" is at its running-job limit")
	}
	if max, ok := lim.MaxRunningPerUser[resv.Owner]; ok && c.QueueUser[q.Name][resv.Owner] >= max {
		return schderr.New(schderr.StatusNeverRun, schderr.CodeQueueUserLimitReached,
			"user "+resv.Owner+" is at queue "+q.Name+"'s per-user limit")
	}
	if max, ok := lim.MaxRunningPerGroup[resv.Group]; ok && c.QueueGroup[q.Name][resv.Group] >= max {
		return schderr.New(schderr.StatusNeverRun, schderr.CodeQueueUserLimitReached,
			"group "+resv.Group+" is at queue "+q.Name+"'s per-group limit")
	}
	if max, ok := lim.MaxRunningPerProj[resv.Project]; ok && c.QueueProj[q.Name][resv.Project] >= max {
		return schderr.New(schderr.StatusNeverRun, schderr.CodeQueueUserLimitReached,
			"project "+resv.Project+" is at queue "+q.Name+"'s per-project limit")
	}
	return nil
}

// checkServerLimits is the other half of gate 4, against the server-wide
// Limits rather than the queue's.
func (c *RunningCounts) checkServerLimits(server *types.Server, resv *types.ResourceResv) *schderr.SchedError {
	lim := server.Limits
	if lim.MaxRunning > 0 && c.ServerTotal >= lim.MaxRunning {
		return schderr.New(schderr.StatusNotRun, schderr.CodeServerUserLimitReached,
			"server is at its running-job limit")
	}
	if max, ok := lim.MaxRunningPerUser[resv.Owner]; ok && c.ServerUser[resv.Owner] >= max {
		return schderr.New(schderr.StatusNeverRun, schderr.CodeServerUserLimitReached,
			"user "+resv.Owner+" is at the server's per-user limit")
	}
	if max, ok := lim.MaxRunningPerGroup[resv.Group]; ok && c.ServerGroup[resv.Group] >= max {
		return schderr.New(schderr.StatusNeverRun, schderr.CodeServerUserLimitReached,
			"group "+resv.Group+" is at the server's per-group limit")
	}
	if max, ok := lim.MaxRunningPerProj[resv.Project]; ok && c.ServerProj[resv.Project] >= max {
		return schderr.New(schderr.StatusNeverRun, schderr.CodeServerUserLimitReached,
			"project "+resv.Project+" is at the server's per-project limit")
	}
	return nil
}

// checkReservationConflict is gate 5: a job pinning specific nodes must
// not collide with a confirmed reservation's node set during its window.
func checkReservationConflict(resv *types.ResourceResv, server *types.Server, now time.Time) *schderr.SchedError {
	if !placement.RequestsSpecificNode(resv) {
		return nil
	}
	names := requestedNodeNames(resv)
	jobEnd := now.Add(resv.Duration)
	for _, other := range server.ConfirmedReservations() {
		if !windowsOverlap(now, jobEnd, other.Start, other.EndTime()) {
			continue
		}
		for _, ns := range other.NSpecs {
			if ns.Node != nil && names[ns.Node.Name] {
				return schderr.New(schderr.StatusNotRun, schderr.CodeReservationConflict,
					"node "+ns.Node.Name+" is claimed by reservation "+other.Name)
			}
		}
	}
	return nil
}

func requestedNodeNames(resv *types.ResourceResv) map[string]bool {
	out := map[string]bool{}
	for _, c := range resv.Select {
		for _, e := range c.ResReq.Entries() {
			if (e.Def.Name == "host" || e.Def.Name == "vnode") && e.Available.IsSet() {
				out[e.Available.Str] = true
			}
		}
	}
	return out
}

func windowsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if bStart.IsZero() || bEnd.IsZero() {
		return false
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// checkCrossJobRassn is gate 6: the job's total request for every rassn
// resource must not exceed what is actually available across the
// candidate partition's nodes, computed once up front so the (possibly
// expensive) node search in gate 7 is never attempted for a request that
// cannot fit in aggregate regardless of layout.
func checkCrossJobRassn(resv *types.ResourceResv, partNodes []*types.Node) *schderr.SchedError {
	demand := map[*resource.Def]int64{}
	for _, c := range resv.Select {
		for _, e := range c.ResReq.Entries() {
			if !e.Def.Flags.Has(resource.FlagRassn) {
				continue
			}
			demand[e.Def] += rassnAmount(e.Available) * int64(c.NumChunks)
		}
	}
	for def, want := range demand {
		have := int64(0)
		for _, n := range partNodes {
			ne, ok := n.Res.Get(def)
			if !ok {
				continue
			}
			have += rassnAmount(ne.EffectiveAvailable())
		}
		if want > have {
			return schderr.New(schderr.StatusNotRun, schderr.CodeInsufficientResource,
				def.Name+" demand exceeds partition aggregate for "+resv.Name)
		}
	}
	return nil
}

// rassnAmount reduces a consumable value to a single int64 scalar for
// aggregate-sum purposes; size values are normalised to bytes.
func rassnAmount(v resource.Value) int64 {
	switch v.Kind {
	case resource.KindSize:
		return int64(v.Size.Bytes())
	case resource.KindFloat:
		return int64(v.Float)
	default:
		return v.Long
	}
}

// checkLicense is gate 8, evaluated ahead of gate 7's node allocation in
// this implementation (see DESIGN.md) so a license rejection never needs
// to unwind an already-committed placement.
func checkLicense(resv *types.ResourceResv, available func(*types.ResourceResv) bool) *schderr.SchedError {
	if available == nil {
		return nil
	}
	if !available(resv) {
		return schderr.New(schderr.StatusNotRun, schderr.CodeNoLicense, "insufficient licenses for "+resv.Name)
	}
	return nil
}
