package placement

import (
	"time"

	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
)

// FitsDuration reports whether a node currently in busy_later_pool will
// have freed its resources before dur elapses from now, i.e. the node's
// next calendar event leaves enough room for this job. A nil value (the
// common case when the caller has no calendar wired up yet) means
// busy_later_pool is never drawn from, falling back to free_pool only.
type FitsDuration func(n *types.Node, now time.Time, dur time.Duration) bool

// UseFastPath reports whether map_buckets applies to job: place=excl,
// not pack, no specific host/vnode requested, not a reservation, and the
// cluster has no multi-vnode-per-host node.
func UseFastPath(job *types.ResourceResv, multiVnodePerHost bool) bool {
	if !job.Place.Excl {
		return false
	}
	if job.Place.Arrangement == types.PlacePack {
		return false
	}
	if job.IsReservation() {
		return false
	}
	if multiVnodePerHost {
		return false
	}
	return !RequestsSpecificNode(job)
}

// RequestsSpecificNode reports whether job's select pins a particular
// host or vnode by name, which rules out the bucket fast path (bucket
// signatures group nodes by resource shape, not identity).
func RequestsSpecificNode(job *types.ResourceResv) bool {
	for _, c := range job.Select {
		for _, e := range c.ResReq.Entries() {
			if (e.Def.Name == "host" || e.Def.Name == "vnode") && e.Available.IsSet() {
				return true
			}
		}
	}
	return false
}

type bucketCandidate struct {
	bucket  *universe.Bucket
	perNode int
}

// MapBuckets implements the bucket fast path: candidate buckets are found
// per chunk, nodes are drawn first from busy_later_pool (if they free up
// in time) then free_pool, and every touched bucket's Working pools are
// either committed (on success) or reset back to Truth (on failure), so
// a failed attempt never leaks state into the next candidate.
func MapBuckets(reg *resource.Registry, part *universe.Partition, nodeByRank map[int]*types.Node, job *types.ResourceResv, now time.Time, fits FitsDuration) ([]types.NSpec, *schderr.SchedError) {
	if fits == nil {
		fits = func(*types.Node, time.Time, time.Duration) bool { return false }
	}
	touched := make(map[*universe.Bucket]bool)
	rollback := func() {
		for b := range touched {
			b.ResetWorking()
		}
	}

	var nspecs []types.NSpec
	for seq, chunk := range job.Select {
		candidates := candidateBuckets(part, chunk, job)
		total := 0
		for _, c := range candidates {
			total += c.perNode * (c.bucket.FreeCt() + c.bucket.BusyLaterCt())
		}
		if total < chunk.NumChunks {
			rollback()
			return nil, schderr.New(schderr.StatusNotRun, schderr.CodeInsufficientResource,
				"no bucket capacity for chunk in "+job.Name)
		}

		remaining := chunk.NumChunks
		sub := 0
		for _, c := range candidates {
			if remaining == 0 {
				break
			}
			b := c.bucket
			touched[b] = true

			for i := b.WorkingBusyLater.FirstSet(0); i != -1 && remaining > 0; i = b.WorkingBusyLater.FirstSet(i + 1) {
				n := nodeByRank[b.NodeRankAt(i)]
				if !aoeOK(reg, n, chunk) || !fits(n, now, job.Duration) {
					continue
				}
				b.MoveToBusy(i)
				for k := 0; k < c.perNode && remaining > 0; k++ {
					nspecs = append(nspecs, types.NSpec{Node: n, SeqNum: seq, SubSeqNum: sub, ResReq: chunk.ResReq})
					sub++
					remaining--
				}
			}
			for i := b.WorkingFree.FirstSet(0); i != -1 && remaining > 0; i = b.WorkingFree.FirstSet(i + 1) {
				n := nodeByRank[b.NodeRankAt(i)]
				if !aoeOK(reg, n, chunk) {
					continue
				}
				b.MoveToBusy(i)
				for k := 0; k < c.perNode && remaining > 0; k++ {
					nspecs = append(nspecs, types.NSpec{Node: n, SeqNum: seq, SubSeqNum: sub, ResReq: chunk.ResReq})
					sub++
					remaining--
				}
			}
		}
		if remaining > 0 {
			rollback()
			return nil, schderr.New(schderr.StatusNotRun, schderr.CodeNoFreeNodes,
				"could not draw enough nodes for chunk in "+job.Name)
		}
		nspecs[len(nspecs)-1].EndOfChunk = true
	}

	for b := range touched {
		b.Commit()
	}
	return nspecs, nil
}

// candidateBuckets finds every bucket in part whose representative
// resource signature can host chunk.ResReq and whose queue affinity (if
// any) matches the job's queue.
func candidateBuckets(part *universe.Partition, chunk types.Chunk, job *types.ResourceResv) []bucketCandidate {
	var out []bucketCandidate
	for _, b := range part.Buckets {
		if b.QueueName != "" && (job.Queue == nil || job.Queue.Name != b.QueueName) {
			continue
		}
		per := chunksPerNode(b.ResSpec, chunk.ResReq)
		if per <= 0 {
			continue
		}
		out = append(out, bucketCandidate{bucket: b, perNode: per})
	}
	return out
}

// aoeOK reports whether a node can host chunk given the AOE (application
// environment) it requests, if any: a mismatched AOE is only acceptable
// if the node is provisionable.
func aoeOK(reg *resource.Registry, n *types.Node, chunk types.Chunk) bool {
	aoeDef, ok := reg.Lookup("aoe")
	if !ok {
		return true
	}
	e, ok := chunk.ResReq.Get(aoeDef)
	if !ok || !e.Available.IsSet() {
		return true
	}
	if n.CurrentAOE == e.Available.Str {
		return true
	}
	return n.Provisionable
}
