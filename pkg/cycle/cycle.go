package cycle

import (
	"github.com/openpbs/pbssched/pkg/backfill"
	"github.com/openpbs/pbssched/pkg/calendar"
	"github.com/openpbs/pbssched/pkg/eligibility"
	"github.com/openpbs/pbssched/pkg/fairshare"
	"github.com/openpbs/pbssched/pkg/placement"
	"github.com/openpbs/pbssched/pkg/preempt"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/sortkey"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
)

// defaultFairshareUsageRes is charged when policy.FairshareUsageRes is
// unset, matching the resource every fairshare deployment charges
// against absent an explicit override.
const defaultFairshareUsageRes = "cput"

// Run executes one scheduling cycle against in.Server and returns its
// decisions. Server is mutated in place: a run decision commits node
// resource consumption and moves the job to StateRunning, and a
// successful backfill admission appends the job to Server.Resvs with
// its simulated start time set. A preempt decision does not mutate
// anything — the targets it names must be acted on by the server before
// their resources actually become free.
func Run(in Input) *Output {
	server := in.Server
	policy := server.Policy
	reg := in.Registry

	nodeByRank := make(map[int]*types.Node, len(server.Nodes))
	for _, n := range server.Nodes {
		nodeByRank[n.Rank] = n
	}

	partitions := universe.BuildPartitions(reg, server.Nodes, policy.NodeGroupKey)
	for _, p := range partitions {
		p.BuildBuckets(nodeByRank)
	}

	var fsLookup func(string) (*fairshare.Node, bool)
	if in.FairshareTree != nil {
		fsLookup = in.FairshareTree.Find
	}
	chain := &sortkey.Chain{
		Registry:        reg,
		Keys:            policy.JobSortKeys,
		FairShare:       policy.FairShare,
		FairshareLookup: fsLookup,
	}

	cal := calendar.CreateEventList(server, in.DedTimes, in.WakeFn)

	candidates := server.QueuedCandidates()
	chain.SortJobs(candidates)

	basePlaceOpts := placement.Options{
		ServerNodeGroupKey: policy.NodeGroupKey,
		DoNotSpanPSets:     policy.DoNotSpanPSets,
		Now:                server.Time,
	}

	quotas := backfill.NewQuotas(policy.PerQueuesTopjobs, policy.PerShareTopjobs, policy.BackfillDepth)
	admitter := &backfill.Admitter{
		Quotas:     quotas,
		Registry:   reg,
		Partitions: partitions,
		PrimeTable: in.PrimeTable,
	}

	out := &Output{Calendar: cal, FairshareTree: in.FairshareTree}

	for i, job := range candidates {
		if in.MaxCandidates > 0 && i >= in.MaxCandidates {
			break
		}

		opts := basePlaceOpts
		if job.Queue != nil && job.Queue.NodeGroupKey != "" {
			opts.QueueNodeGroupKey = job.Queue.NodeGroupKey
		}

		entity, root := resolveFairshare(in.FairshareTree, job)
		counts := eligibility.BuildRunningCounts(server)

		elig := eligibility.Input{
			Registry:          reg,
			Policy:            policy,
			Server:            server,
			Queue:             job.Queue,
			Resv:              job,
			Now:               server.Time,
			Counts:            counts,
			PartitionNodes:    server.Nodes,
			Partitions:        partitions,
			NodeByRank:        nodeByRank,
			SortChain:         chain,
			PlaceOpts:         opts,
			LicensesAvailable: in.LicensesAvailable,
			ReturnAllErr:      in.ReturnAllErr,
		}

		nspecs, chainErr := eligibility.IsOkToRun(elig)
		if chainErr.Empty() {
			job.NSpecs = nspecs
			job.Start = server.Time
			job.HasSetStart = true
			job.State = types.StateRunning
			chargeRunUsage(policy, reg, entity, job)

			out.Decisions = append(out.Decisions, Decision{
				Job: job, Outcome: OutcomeRun, NSpecs: nspecs, StartTime: server.Time,
			})
			continue
		}

		if policy.PreemptiveSched && preemptWorthy(chainErr) {
			decision, perr := preempt.Preempt(reg, chain, partitions, server, policy, job, opts)
			if perr == nil {
				out.Decisions = append(out.Decisions, Decision{
					Job: job, Outcome: OutcomePreempted, NSpecs: decision.NSpecs,
					PreemptTargets: decision.Targets, PreemptMethod: decision.Method,
				})
				continue
			}
		}

		admitter.SortChain = chain
		admitter.PlaceOpts = opts
		reason, fitTime, bnspecs, berr := admitter.Admit(server, cal, backfill.Request{
			Job: job, Chain: chainErr, FairshareEntity: entity, FairshareRoot: root,
		})
		if berr == nil {
			out.Decisions = append(out.Decisions, Decision{
				Job: job, Outcome: OutcomeBackfilled, NSpecs: bnspecs, StartTime: fitTime, BackfillReason: reason,
			})
			continue
		}

		out.Decisions = append(out.Decisions, Decision{Job: job, Outcome: OutcomeRejected, Err: berr})
	}

	return out
}

// preemptWorthy reports whether chain's failure is a pure resource
// shortage — the only class preemption can address — rather than a
// time-boundary, limit, or configuration rejection.
func preemptWorthy(chain *schderr.Chain) bool {
	for _, e := range chain.Errors {
		if e.Code == schderr.CodeInsufficientResource || e.Code == schderr.CodeNoFreeNodes {
			return true
		}
	}
	return false
}

// resolveFairshare looks up job's leaf fairshare entity and the tree
// root, returning nil, nil when fairshare is disabled or the job carries
// no resolved fairshare path.
func resolveFairshare(tree *fairshare.Tree, job *types.ResourceResv) (entity, root *fairshare.Node) {
	if tree == nil || len(job.FairsharePath) == 0 {
		return nil, nil
	}
	leaf := job.FairsharePath[len(job.FairsharePath)-1]
	n, ok := tree.Find(leaf)
	if !ok {
		return nil, tree.Root
	}
	return n, tree.Root
}

// chargeRunUsage adds job's demand for the configured fairshare usage
// resource (cput by default) to entity's accumulated usage, the charge
// every fairshare deployment applies the instant a job starts running.
func chargeRunUsage(policy *types.Policy, reg *resource.Registry, entity *fairshare.Node, job *types.ResourceResv) {
	if entity == nil {
		return
	}
	resName := policy.FairshareUsageRes
	if resName == "" {
		resName = defaultFairshareUsageRes
	}
	def, ok := reg.Lookup(resName)
	if !ok {
		return
	}
	var delta float64
	for _, c := range job.Select {
		e, ok := c.ResReq.Get(def)
		if !ok {
			continue
		}
		delta += usageAmount(e.Available) * float64(c.NumChunks)
	}
	fairshare.ChargeUsage(entity, delta)
}

// usageAmount reduces a consumable value to a float64 scalar for usage
// accounting, normalising size values to bytes the same way the
// cross-job aggregate check does.
func usageAmount(v resource.Value) float64 {
	switch v.Kind {
	case resource.KindSize:
		return float64(v.Size.Bytes())
	case resource.KindFloat:
		return v.Float
	default:
		return float64(v.Long)
	}
}
