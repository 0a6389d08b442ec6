package universe

import (
	"github.com/openpbs/pbssched/pkg/types"
)

// Bucket groups nodes within one placement set that share an identical
// resource signature (ignoring host/vnode identity), one queue affinity,
// and one priority.
//
// Each of the three pools is kept in two copies: Truth (committed state,
// valid between cycles) and Working (mutated while the bucket fast path
// tries a candidate; discarded if the candidate fails, committed into
// Truth if it succeeds).
type Bucket struct {
	ID        int
	Partition string
	ResSpec   *types.ResourceList // representative consumable resource signature
	QueueName string              // "" if no queue affinity
	Priority  int

	// NodeRanks maps bit index -> node rank, so a lit bit can be resolved
	// back to the node it represents.
	NodeRanks []int
	Total     int

	TruthFree      *Bitmap
	TruthBusyLater *Bitmap
	TruthBusy      *Bitmap

	WorkingFree      *Bitmap
	WorkingBusyLater *Bitmap
	WorkingBusy      *Bitmap
}

// NewBucket builds an empty bucket with capacity for n nodes.
func NewBucket(id int, partition string, resSpec *types.ResourceList, queueName string, priority int, nodeRanks []int) *Bucket {
	n := len(nodeRanks)
	b := &Bucket{
		ID: id, Partition: partition, ResSpec: resSpec, QueueName: queueName,
		Priority: priority, NodeRanks: nodeRanks, Total: n,
		TruthFree: NewBitmap(n), TruthBusyLater: NewBitmap(n), TruthBusy: NewBitmap(n),
	}
	b.ResetWorking()
	return b
}

// ResetWorking copies Truth into Working, the first step of any bucket
// fast-path attempt.
func (b *Bucket) ResetWorking() {
	b.WorkingFree = b.TruthFree.Clone()
	b.WorkingBusyLater = b.TruthBusyLater.Clone()
	b.WorkingBusy = b.TruthBusy.Clone()
}

// Commit replaces Truth with the current Working state — called once a
// candidate's placement has been accepted.
func (b *Bucket) Commit() {
	b.TruthFree = b.WorkingFree.Clone()
	b.TruthBusyLater = b.WorkingBusyLater.Clone()
	b.TruthBusy = b.WorkingBusy.Clone()
}

// MoveToBusy moves bit i from whichever working pool currently holds it
// into WorkingBusy.
func (b *Bucket) MoveToBusy(i int) {
	b.WorkingFree.Clear(i)
	b.WorkingBusyLater.Clear(i)
	b.WorkingBusy.Set(i)
}

// FreeCt / BusyLaterCt / BusyCt report the committed pool sizes, computed
// directly from the bitmap's own Popcount rather than a separately
// maintained counter that could drift.
func (b *Bucket) FreeCt() int      { return b.TruthFree.Popcount() }
func (b *Bucket) BusyLaterCt() int { return b.TruthBusyLater.Popcount() }
func (b *Bucket) BusyCt() int      { return b.TruthBusy.Popcount() }

// ValidatePools reports whether the three truth bitmaps are pairwise
// disjoint and their union has cardinality Total.
func (b *Bucket) ValidatePools() bool {
	if !b.TruthFree.Disjoint(b.TruthBusyLater) {
		return false
	}
	if !b.TruthFree.Disjoint(b.TruthBusy) {
		return false
	}
	if !b.TruthBusyLater.Disjoint(b.TruthBusy) {
		return false
	}
	union := b.TruthFree.Clone()
	union.Or(b.TruthBusyLater)
	union.Or(b.TruthBusy)
	return union.Popcount() == b.Total
}

// NodeRankAt resolves bit index i to the node rank it represents.
func (b *Bucket) NodeRankAt(i int) int { return b.NodeRanks[i] }
