package backfill

import "github.com/openpbs/pbssched/pkg/fairshare"

// Reason records which quota admitted a job to the calendar, for
// logging/diagnostics.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonQueueSetAside
	ReasonFairshareTopjob
	ReasonUnderAllocation
	ReasonGlobalDepth
)

func (r Reason) String() string {
	switch r {
	case ReasonQueueSetAside:
		return "queue_set_aside"
	case ReasonFairshareTopjob:
		return "fairshare_topjob"
	case ReasonUnderAllocation:
		return "under_allocation"
	case ReasonGlobalDepth:
		return "backfill_depth"
	default:
		return "none"
	}
}

// Quotas tracks how many top-job/backfill slots have been consumed so
// far this cycle against each of the four admission pools, evaluated in
// the order per_queues_topjobs, per_share_topjobs, ratio_max<1.0 groups,
// backfill_depth.
type Quotas struct {
	PerQueueTopjobs int
	PerShareTopjobs int
	Depth           int

	queueUsed  map[string]int
	globalUsed int
}

// NewQuotas returns a fresh tracker for one scheduling cycle. A zero or
// negative per-queue or per-share bound disables that pool; a depth <= 0
// is the "no backfill_depth configured" case, meaning the global pool
// never refuses on count alone.
func NewQuotas(perQueueTopjobs, perShareTopjobs, depth int) *Quotas {
	return &Quotas{
		PerQueueTopjobs: perQueueTopjobs,
		PerShareTopjobs: perShareTopjobs,
		Depth:           depth,
		queueUsed:       map[string]int{},
	}
}

// TryAdmit consumes the first quota pool the candidate still qualifies
// for and reports which one, or ReasonNone/false if every pool is
// exhausted. queueName may be empty when the job's queue has no
// set-aside configured; entity/root may be nil when fairshare is
// disabled.
func (q *Quotas) TryAdmit(queueName string, entity, root *fairshare.Node) (Reason, bool) {
	if queueName != "" && q.PerQueueTopjobs > 0 && q.queueUsed[queueName] < q.PerQueueTopjobs {
		q.queueUsed[queueName]++
		return ReasonQueueSetAside, true
	}
	if entity != nil && q.PerShareTopjobs > 0 && entity.TopjobCount < q.PerShareTopjobs {
		entity.TopjobCount++
		return ReasonFairshareTopjob, true
	}
	if entity != nil && root != nil && underAllocation(entity, root) {
		entity.TopjobCount++
		return ReasonUnderAllocation, true
	}
	if q.Depth <= 0 || q.globalUsed < q.Depth {
		q.globalUsed++
		return ReasonGlobalDepth, true
	}
	return ReasonNone, false
}

// underAllocation reports whether entity has used less than its
// entitled share of root's total recorded usage — a ratio_max of 1.0
// would mean "exactly at allocation"; any ratio below that is under it.
// An entity with no normalised tree percentage yet (freshly added) is
// treated as under allocation so it isn't starved by a zero share.
func underAllocation(entity, root *fairshare.Node) bool {
	if entity.TreePercentage <= 0 {
		return true
	}
	if root.Usage <= 0 {
		return true
	}
	ratio := (entity.Usage / root.Usage) / entity.TreePercentage
	return ratio < 1.0
}
