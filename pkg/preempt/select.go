package preempt

import (
	"github.com/openpbs/pbssched/pkg/placement"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/sortkey"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
)

// eligibleTargets filters running to jobs in a strictly lower preempt
// class than blocked, restricted to blocked's preempt_targets names when
// that job resource is set.
func eligibleTargets(blocked *types.ResourceResv, running []*types.ResourceResv) []*types.ResourceResv {
	restrict := targetSet(blocked.PreemptTargets)
	out := make([]*types.ResourceResv, 0, len(running))
	for _, r := range running {
		if r.PreemptPriority >= blocked.PreemptPriority {
			continue
		}
		if restrict != nil && !restrict[r.Name] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func targetSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// releaseOnClone mirrors pkg/calendar's end-event effect: it frees a
// job's nspecs against whatever node objects they currently point at.
// Kept as its own copy (rather than imported) since pkg/placement,
// pkg/calendar, and pkg/preempt each need this one arithmetic step
// without creating a dependency between the three.
func releaseOnClone(nspecs []types.NSpec) {
	for _, ns := range nspecs {
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
}

// SelectCandidates simulates ending eligible running jobs, one at a
// time in preemption order, on a throwaway clone of server until
// blocked's select request can be placed. It returns the chosen running
// jobs (from the real server, not the clone) and the allocation blocked
// would receive once they are actually terminated.
//
// Like pkg/calendar's run/end events, releaseOnClone updates node
// resource levels directly without touching bucket bitmaps, so a
// blocked job eligible for the bucket fast path may see a stale bucket
// view mid-selection; see pkg/calendar.CalcRunTime's doc comment for the
// same caveat.
func SelectCandidates(
	reg *resource.Registry,
	chain *sortkey.Chain,
	partitions map[string]*universe.Partition,
	server *types.Server,
	blocked *types.ResourceResv,
	placeOpts placement.Options,
) ([]*types.ResourceResv, []types.NSpec, *schderr.SchedError) {
	targets := eligibleTargets(blocked, server.RunningJobs())
	SortCandidates(targets)
	if len(targets) == 0 {
		return nil, nil, schderr.New(schderr.StatusNotRun, schderr.CodeInsufficientResource,
			"no eligible running job to preempt for "+blocked.Name)
	}

	clone := universe.Clone(server)
	cloneResvByRank := make(map[int]*types.ResourceResv, len(clone.Resvs))
	for _, r := range clone.Resvs {
		cloneResvByRank[r.Rank] = r
	}
	cloneNodeByRank := make(map[int]*types.Node, len(clone.Nodes))
	for _, n := range clone.Nodes {
		cloneNodeByRank[n.Rank] = n
	}

	var selected []*types.ResourceResv
	for _, cand := range targets {
		cc, ok := cloneResvByRank[cand.Rank]
		if !ok {
			continue
		}
		releaseOnClone(cc.NSpecs)
		selected = append(selected, cand)

		nspecs, err := placement.Allocate(reg, chain, partitions, cloneNodeByRank, blocked, placeOpts)
		if err == nil {
			return selected, nspecs, nil
		}
	}
	return nil, nil, schderr.New(schderr.StatusNotRun, schderr.CodeInsufficientResource,
		"preempting every eligible job still does not free enough resources for "+blocked.Name)
}
