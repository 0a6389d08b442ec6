package calendar

import (
	"time"

	"github.com/openpbs/pbssched/pkg/placement"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/sortkey"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
)

// Flags mirrors calc_run_time's behavior toggles.
type Flags struct {
	// SimRunJob commits the winning allocation onto the real server and
	// appends job to it; without it CalcRunTime only reports when and
	// where job would fit.
	SimRunJob bool
}

// CalcRunTime clones server (so every event applied while searching is
// throwaway), rebinds cal onto the clone, and simulates forward until
// job's select/place request can be placed or the calendar runs dry.
//
// On success it inserts job's run and end events into the real calendar
// cal at the simulated time, and — if flags.SimRunJob is set — commits
// the allocation onto server itself and appends job to server.Resvs.
// partitions must be rank-indexed (as produced by universe.BuildPartitions)
// so the same structure resolves correctly against both server and its
// clone.
//
// Run/end events mutate node resource levels directly; they do not
// update a partition's bucket bitmaps, which only reflect the state of
// the real, committed universe. A job whose place request would take
// the bucket fast path may therefore see a stale bucket view while
// being simulated forward — callers most sensitive to this should favor
// jobs without place=excl for calendar-heavy backfill candidates.
func CalcRunTime(
	reg *resource.Registry,
	chain *sortkey.Chain,
	job *types.ResourceResv,
	server *types.Server,
	cal *Calendar,
	partitions map[string]*universe.Partition,
	placeOpts placement.Options,
	primeTable PrimeTableFunc,
	flags Flags,
) (time.Time, []types.NSpec, *schderr.SchedError) {
	clone := universe.Clone(server)
	simCal := cal.Rebind(clone)

	cloneNodeByRank := make(map[int]*types.Node, len(clone.Nodes))
	for _, n := range clone.Nodes {
		cloneNodeByRank[n.Rank] = n
	}

	simTime := clone.Time
	for {
		opts := placeOpts
		opts.Now = simTime
		nspecs, placeErr := placement.Allocate(reg, chain, partitions, cloneNodeByRank, job, opts)
		if placeErr == nil {
			fitTime := simTime
			endTime := fitTime
			if job.Duration > 0 {
				endTime = fitTime.Add(job.Duration)
			}
			cal.addRunEnd(job, fitTime, endTime)
			cal.Reindex()

			if flags.SimRunJob {
				commitToReal(server, job, nspecs, fitTime)
			}
			return fitTime, nspecs, nil
		}

		next, more := simCal.Advance(simTime, clone.Policy, Command{Kind: CmdNextEvent, Delta: 1}, primeTable)
		if !more {
			return time.Time{}, nil, schderr.New(schderr.StatusNeverRun, schderr.CodeNoFreeNodes,
				"no future event lets "+job.Name+" fit")
		}
		simTime = next
		clone.Time = simTime
	}
}

// commitToReal remaps nspecs (which point at clone nodes) back onto
// server's real nodes by rank and applies them, the way a backfill
// admission turns a successful simulation into an actual placement.
func commitToReal(server *types.Server, job *types.ResourceResv, nspecs []types.NSpec, fitTime time.Time) {
	realByRank := make(map[int]*types.Node, len(server.Nodes))
	for _, n := range server.Nodes {
		realByRank[n.Rank] = n
	}
	real := make([]types.NSpec, len(nspecs))
	for i, ns := range nspecs {
		real[i] = ns
		real[i].Node = realByRank[ns.Node.Rank]
	}
	placement.Commit(real, job)
	job.NSpecs = real
	job.Start = fitTime
	job.HasSetStart = true
	server.Resvs = append(server.Resvs, job)
}
