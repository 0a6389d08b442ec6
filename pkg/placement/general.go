package placement

import (
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/sortkey"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
)

// CheckNodes is the general-path node selector: it walks partitions in
// the order given, and within each tries to carve every chunk of the job
// from that partition's nodes alone. If none fits and spanning is
// allowed, allpart is tried last as the union of every node.
func CheckNodes(chain *sortkey.Chain, ordered []*universe.Partition, allpart *universe.Partition, nodeByRank map[int]*types.Node, job *types.ResourceResv, doNotSpanPSets bool) ([]types.NSpec, *schderr.SchedError) {
	for _, part := range ordered {
		if nspecs, ok := tryPartition(chain, part, nodeByRank, job); ok {
			return nspecs, nil
		}
	}
	if !doNotSpanPSets && allpart != nil {
		if nspecs, ok := tryPartition(chain, allpart, nodeByRank, job); ok {
			return nspecs, nil
		}
	}
	return nil, schderr.New(schderr.StatusNotRun, schderr.CodeInsufficientResource,
		"no node_partition satisfies select for "+job.Name)
}

// tryPartition attempts to place every chunk of job using only the nodes
// of part, without mutating any node's real Res until the whole
// allocation succeeds.
func tryPartition(chain *sortkey.Chain, part *universe.Partition, nodeByRank map[int]*types.Node, job *types.ResourceResv) ([]types.NSpec, bool) {
	nodes := make([]*types.Node, 0, len(part.NodeRanks))
	scratch := make(map[int]*types.ResourceList, len(part.NodeRanks))
	for _, rank := range part.NodeRanks {
		n, ok := nodeByRank[rank]
		if !ok || !eligibleHost(n, job) {
			continue
		}
		nodes = append(nodes, n)
		scratch[rank] = n.Res.Clone()
	}
	if chain != nil {
		chain.SortNodes(nodes)
	}

	oneChunkPerNode := job.Place.Arrangement == types.PlaceScatter || job.Place.Arrangement == types.PlaceVScatter

	var nspecs []types.NSpec
	for seq, chunk := range job.Select {
		remaining := chunk.NumChunks
		sub := 0
		used := make(map[int]bool)
		for _, n := range nodes {
			if remaining == 0 {
				break
			}
			if oneChunkPerNode && used[n.Rank] {
				continue
			}
			res := scratch[n.Rank]
			for remaining > 0 && fitsChunk(res, chunk.ResReq) {
				consume(res, chunk.ResReq)
				used[n.Rank] = true
				nspecs = append(nspecs, types.NSpec{Node: n, SeqNum: seq, SubSeqNum: sub, ResReq: chunk.ResReq})
				sub++
				remaining--
				if oneChunkPerNode {
					break
				}
			}
		}
		if remaining > 0 {
			return nil, false
		}
		if n := len(nspecs); n > 0 {
			nspecs[n-1].EndOfChunk = true
		}
	}
	return nspecs, true
}

// eligibleHost filters out nodes that cannot host any part of job
// regardless of resource fit: down/offline/stale, or already claimed
// exclusively by another job.
func eligibleHost(n *types.Node, job *types.ResourceResv) bool {
	if n.State.Has(types.NodeDown) || n.State.Has(types.NodeOffline) || n.State.Has(types.NodeStale) {
		return false
	}
	if n.State.Has(types.NodeExclusive) {
		return false
	}
	if job.Place.ExclHost && n.State.Has(types.NodeResvExcl) {
		return false
	}
	return true
}
