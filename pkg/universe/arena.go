package universe

import (
	"github.com/openpbs/pbssched/pkg/types"
)

// Clone deep-copies a server snapshot so that simulated mutations (a
// speculative run or end event) never leak back into the original unless
// explicitly committed.
//
// Rather than walk the object graph recursively, Clone copies the node,
// queue, and resv arrays in bulk and then re-resolves every pointer
// (Node.Queue, ResourceResv.Queue, NSpec.Node, ...) through a rank-keyed
// lookup table.
func Clone(s *types.Server) *types.Server {
	out := &types.Server{
		Time:     s.Time,
		Limits:   s.Limits,
		NextRank: s.NextRank,
	}

	policyCopy := *s.Policy
	out.Policy = &policyCopy

	queueByRank := make(map[int]*types.Queue, len(s.Queues))
	out.Queues = make([]*types.Queue, len(s.Queues))
	for i, q := range s.Queues {
		qc := *q
		qc.Nodes = nil // re-linked below once node clones exist
		out.Queues[i] = &qc
		queueByRank[q.Rank] = &qc
	}

	nodeByRank := make(map[int]*types.Node, len(s.Nodes))
	out.Nodes = make([]*types.Node, len(s.Nodes))
	for i, n := range s.Nodes {
		nc := *n
		nc.Res = n.Res.Clone()
		if n.Queue != nil {
			nc.Queue = queueByRank[n.Queue.Rank]
		}
		nc.Running = nil
		nc.Resvs = nil
		nc.NodeEvents = append([]int(nil), n.NodeEvents...)
		out.Nodes[i] = &nc
		nodeByRank[n.Rank] = &nc
	}

	for i, q := range s.Queues {
		if len(q.Nodes) == 0 {
			continue
		}
		nodes := make([]*types.Node, 0, len(q.Nodes))
		for _, n := range q.Nodes {
			nodes = append(nodes, nodeByRank[n.Rank])
		}
		out.Queues[i].Nodes = nodes
	}

	resvByRank := make(map[int]*types.ResourceResv, len(s.Resvs))
	out.Resvs = make([]*types.ResourceResv, len(s.Resvs))
	for i, r := range s.Resvs {
		rc := *r
		if r.Queue != nil {
			rc.Queue = queueByRank[r.Queue.Rank]
		}
		if r.ResReq != nil {
			rc.ResReq = r.ResReq.Clone()
		}
		rc.Select = append([]types.Chunk(nil), r.Select...)
		for ci, c := range rc.Select {
			if c.ResReq != nil {
				rc.Select[ci].ResReq = c.ResReq.Clone()
			}
		}
		rc.NSpecs = append([]types.NSpec(nil), r.NSpecs...)
		for ni, nsp := range rc.NSpecs {
			if nsp.Node != nil {
				rc.NSpecs[ni].Node = nodeByRank[nsp.Node.Rank]
			}
			if nsp.ResReq != nil {
				rc.NSpecs[ni].ResReq = nsp.ResReq.Clone()
			}
		}
		out.Resvs[i] = &rc
		resvByRank[r.Rank] = &rc
	}

	for i, n := range s.Nodes {
		for _, r := range n.Running {
			out.Nodes[i].Running = append(out.Nodes[i].Running, resvByRank[r.Rank])
		}
		for _, r := range n.Resvs {
			out.Nodes[i].Resvs = append(out.Nodes[i].Resvs, resvByRank[r.Rank])
		}
	}

	return out
}
