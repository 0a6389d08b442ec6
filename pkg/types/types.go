package types

import (
	"time"

	"github.com/openpbs/pbssched/pkg/resource"
)

// ResourceList is an ordered (def, available, assigned, string-value)
// collection. It preserves insertion order — the wire protocol expects
// stable attribute/resource ordering when echoing state back —
// while also indexing by definition for O(1) lookup.
type ResourceList struct {
	entries []*ResourceEntry
	index   map[*resource.Def]*ResourceEntry
}

// ResourceEntry is one (def, available, assigned) triple. Available may be
// an IndirectRef to another node's entry, modelling resource sharing
// between vnodes of one host.
type ResourceEntry struct {
	Def         *resource.Def
	Available   resource.Value
	Assigned    resource.Value
	StringValue string
	IndirectRef *ResourceEntry
}

// EffectiveAvailable resolves an indirect reference to the value actually
// backing this entry.
func (e *ResourceEntry) EffectiveAvailable() resource.Value {
	if e.IndirectRef != nil {
		return e.IndirectRef.EffectiveAvailable()
	}
	return e.Available
}

// NewResourceList returns an empty ordered resource list.
func NewResourceList() *ResourceList {
	return &ResourceList{index: make(map[*resource.Def]*ResourceEntry)}
}

// Set inserts or updates the entry for def, preserving first-seen order.
func (rl *ResourceList) Set(def *resource.Def, available, assigned resource.Value) *ResourceEntry {
	if e, ok := rl.index[def]; ok {
		e.Available = available
		e.Assigned = assigned
		return e
	}
	e := &ResourceEntry{Def: def, Available: available, Assigned: assigned}
	rl.entries = append(rl.entries, e)
	rl.index[def] = e
	return e
}

// Get returns the entry for def, if present.
func (rl *ResourceList) Get(def *resource.Def) (*ResourceEntry, bool) {
	e, ok := rl.index[def]
	return e, ok
}

// Entries returns the list in insertion order. Callers must not mutate the
// returned slice's backing array shape (append-safe only via Set).
func (rl *ResourceList) Entries() []*ResourceEntry { return rl.entries }

// Clone deep-copies the list; used when duplicating a node or resv into a
// simulated universe.
func (rl *ResourceList) Clone() *ResourceList {
	out := NewResourceList()
	for _, e := range rl.entries {
		cp := *e
		out.entries = append(out.entries, &cp)
		out.index[e.Def] = &cp
	}
	// IndirectRef pointers are copied as-is: a cloned entry still points
	// at the original entry it referred to, and universe.Clone does not
	// re-point them either.
	return out
}

// NodeStateFlag is a bitmask of the node state bits a node_info may carry.
type NodeStateFlag uint16

const (
	NodeFree NodeStateFlag = 1 << iota
	NodeOffline
	NodeDown
	NodeStale
	NodeSleeping
	NodeProvisioning
	NodeExclusive
	NodeResvExcl
)

func (f NodeStateFlag) Has(bit NodeStateFlag) bool { return f&bit != 0 }

// Node is the scheduler's view of one vnode.
type Node struct {
	Rank       int
	Name       string
	Host       string
	State      NodeStateFlag
	Res        *ResourceList
	Queue      *Queue // optional queue affinity
	PartSet    string // placement-set (node_partition) name this node belongs to
	BucketIdx  int    // index into its partition's bucket array, -1 if none
	CurrentAOE string
	Provisionable bool
	Running    []*ResourceResv
	Resvs      []*ResourceResv
	NodeEvents []int // indices into the calendar's event slice touching this node
}

// QueueType distinguishes execution queues (jobs run directly from them)
// from routing queues (jobs are forwarded elsewhere; out of scope for the
// scheduler core but modelled so snapshot ingestion is total).
type QueueType int

const (
	QueueExecution QueueType = iota
	QueueRoute
)

// QueueFlag is a bitmask of queue behavior flags.
type QueueFlag uint8

const (
	QueueDedicated QueueFlag = 1 << iota
	QueuePrimeOnly
	QueueNonprimeOnly
)

// Limits bounds the number/usage of running jobs.
// A zero value in any field means "no limit configured"; there is no
// separate field for an explicit infinite limit.
type Limits struct {
	MaxRunning        int
	MaxRunningPerUser  map[string]int
	MaxRunningPerGroup map[string]int
	MaxRunningPerProj  map[string]int
}

// Queue is the scheduler's view of a PBS queue.
type Queue struct {
	Rank       int
	Name       string
	Priority   int
	Type       QueueType
	Enabled    bool
	Started    bool
	Flags      QueueFlag
	Limits     Limits
	Nodes      []*Node // only set for queues with node affinity
	Partition  string
	NodeGroupKey string
}

func (q *Queue) IsDedicated() bool    { return q.Flags.Has(QueueDedicated) }
func (q *Queue) IsPrimeOnly() bool    { return q.Flags.Has(QueuePrimeOnly) }
func (q *Queue) IsNonprimeOnly() bool { return q.Flags.Has(QueueNonprimeOnly) }

// ShareType is the fairshare participation mode of a resource_resv.
type ShareType int

const (
	ShareIgnore ShareType = iota
	ShareLimited
	ShareBorrow
)

// ResvState is the lifecycle state of a job or reservation.
type ResvState int

const (
	StateQueued ResvState = iota
	StateRunning
	StateExiting
	StateHeld
	StateWaiting
	StateTransit
	StateConfirmed // reservations only
)

// Chunk is one '+'-separated term of a select spec: N copies of a
// resource request.
type Chunk struct {
	NumChunks int
	ResReq    *ResourceList
}

// PlaceModifier is one token of a place= spec.
type PlaceModifier int

const (
	PlaceDefault PlaceModifier = iota
	PlacePack
	PlaceScatter
	PlaceVScatter
	PlaceFree
)

// PlaceSpec is a parsed place= string.
type PlaceSpec struct {
	Arrangement PlaceModifier
	Excl        bool
	ExclHost    bool
	Share       bool
	Group       string // place=group=<resource> grouping key, "" if unset
}

// NSpec is a single (node, chunk, resources-used) binding: one line of a
// job's final exec_vnode.
type NSpec struct {
	Node       *Node
	SeqNum     int // preserves chunk order
	SubSeqNum  int // preserves allocation order within a chunk
	EndOfChunk bool
	ResReq     *ResourceList
}

// ResourceResv unifies jobs and advance reservations.
type ResourceResv struct {
	Rank   int
	Name   string
	Owner  string
	Group  string
	Project string
	IsResv bool // true for advance reservations, false for jobs

	Queue  *Queue
	ResReq *ResourceList
	Select []Chunk
	Place  PlaceSpec

	SubmitTime time.Time
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	HasSetStart bool

	State ResvState

	RunEventIdx int // index into the calendar event slice, -1 if none
	EndEventIdx int

	NSpecs []NSpec

	ShareGroupLeader string
	ShareType        ShareType
	FairsharePath    []string // entity names root-to-leaf, resolved at snapshot load

	PreemptPriority int
	PreemptTargets  []string // job names this high-priority job may preempt

	Priority int // job_priority, operator-assigned
	Comment  string

	TopJobEligible   bool
	CanNeverRun      bool
	StartingOnRank   int // which bucket/partition it was placed from, for diagnostics
}

// IsJob / IsReservation are readability helpers over IsResv.
func (r *ResourceResv) IsJob() bool         { return !r.IsResv }
func (r *ResourceResv) IsReservation() bool { return r.IsResv }

// EndTime computes the end instant from Start+Duration when End has not
// been explicitly set (end = start + duration; may be unset for
// queued jobs).
func (r *ResourceResv) EndTime() time.Time {
	if !r.End.IsZero() {
		return r.End
	}
	if r.HasSetStart {
		return r.Start.Add(r.Duration)
	}
	return time.Time{}
}
