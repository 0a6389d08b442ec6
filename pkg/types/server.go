package types

import "time"

// Policy captures the scheduling policy derived from sched_config that
// governs a single cycle. It is read-only once built.
type Policy struct {
	RoundRobin       bool
	RoundRobinPrime  string // "prime" | "non_prime" | "all"
	ByQueue          bool
	StrictOrdering   bool
	StrictFIFO       bool
	FairShare        bool
	HelpStarvingJobs bool
	MaxStarve        time.Duration

	Backfill      bool
	BackfillPrime bool
	BackfillDepth int
	PrimeSpill    time.Duration

	DedicatedPrefix string
	PreemptiveSched bool
	PreemptPrio     []PreemptLevel
	PreemptOrder    []PreemptMethod
	PreemptQueuePrio int
	PreemptSort     string // "min_time_since_start"

	JobSortKeys  []SortKey
	NodeSortKeys []SortKey
	NodeGroupKey string

	ProvisionPolicy string // "avoid" | "aggressive"

	FairshareUsageRes string
	FairshareEntity   string
	FairshareDecayFactor float64
	FairshareDecayTime   time.Duration
	UnknownShares        int

	PerShareTopjobs  int
	PerQueuesTopjobs int

	OnlyExplicitPSets bool
	DoNotSpanPSets    bool

	IsPrimeTime bool // current policy-table selector, flipped by calendar events
	IsDedTime   bool
}

// PreemptLevel names one of the preemption priority classes a job may
// carry, e.g. "express", "normal", "starving" — the exact label set is
// site configured via preempt_prio.
type PreemptLevel struct {
	Name     string
	Priority int
}

// PreemptMethod is one letter of the configured preempt_order string.
type PreemptMethod rune

const (
	PreemptSuspend  PreemptMethod = 'S'
	PreemptCheckpoint PreemptMethod = 'C'
	PreemptRequeue  PreemptMethod = 'R'
	PreemptDelete   PreemptMethod = 'D'
)

// SortKey is one entry of a job_sort_key/node_sort_key chain.
type SortKey struct {
	// Special is a non-resource key name ("fair_share_perc",
	// "sort_priority", "job_priority", "last_used_time",
	// "preempt_priority"), empty when this key sorts by a resource.
	Special    string
	ResName    string
	Descending bool
	// Basis selects which side of a resource entry to sort on:
	// "avail" | "assigned" | "unused".
	Basis string
}

// Server is the scheduler's full snapshot of one cycle's world: every
// node, queue, and resource_resv (job or reservation), indexed for cheap
// lookup. It is the root the universe arena clones.
type Server struct {
	Time time.Time // server_time — all scheduling arithmetic uses this, never the host clock

	Nodes  []*Node
	Queues []*Queue
	Resvs  []*ResourceResv // jobs and reservations, in submit order

	Policy *Policy
	Limits Limits // server-wide hard limits (max_running, per-user/group/project)

	NextRank int // monotone rank counter for entities created mid-cycle (e.g. simulated clones)
}

// RunningJobs returns the subset of Resvs currently occupying resources.
func (s *Server) RunningJobs() []*ResourceResv {
	var out []*ResourceResv
	for _, r := range s.Resvs {
		if !r.IsResv && r.State == StateRunning {
			out = append(out, r)
		}
	}
	return out
}

// ConfirmedReservations returns advance reservations that have a committed
// start time and will occupy resources in the future or now.
func (s *Server) ConfirmedReservations() []*ResourceResv {
	var out []*ResourceResv
	for _, r := range s.Resvs {
		if r.IsResv && r.State == StateConfirmed {
			out = append(out, r)
		}
	}
	return out
}

// QueuedCandidates returns jobs still waiting to be scheduled, in
// snapshot/submit order (sorting happens in pkg/sortkey).
func (s *Server) QueuedCandidates() []*ResourceResv {
	var out []*ResourceResv
	for _, r := range s.Resvs {
		if !r.IsResv && r.State == StateQueued {
			out = append(out, r)
		}
	}
	return out
}
