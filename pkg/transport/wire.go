package transport

import (
	"fmt"
	"time"

	"github.com/openpbs/pbssched/pkg/cycle"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/types"
)

// ResourceEntryWire is one (name, available, assigned) triple. Resources
// are addressed by name on the wire; the in-process *resource.Def pointer
// identity is rebuilt against the receiving side's own registry.
type ResourceEntryWire struct {
	Name      string         `json:"name"`
	Available resource.Value `json:"available"`
	Assigned  resource.Value `json:"assigned"`
}

// ResourceListWire is the flat form of *types.ResourceList.
type ResourceListWire []ResourceEntryWire

// ChunkWire is the flat form of types.Chunk.
type ChunkWire struct {
	NumChunks int               `json:"num_chunks"`
	ResReq    ResourceListWire  `json:"res_req"`
}

// NSpecWire is the flat form of types.NSpec: the node is addressed by
// rank rather than by pointer, since the receiving side reconstructs its
// own *types.Node graph from NodeWire.
type NSpecWire struct {
	NodeRank   int              `json:"node_rank"`
	SeqNum     int              `json:"seq_num"`
	SubSeqNum  int              `json:"sub_seq_num"`
	EndOfChunk bool             `json:"end_of_chunk"`
	ResReq     ResourceListWire `json:"res_req"`
}

// NodeWire is the flat form of *types.Node. Queue affinity is carried as
// a queue name rather than a *Queue pointer, breaking the Node<->Queue
// cycle that a direct graph walk would otherwise recurse into.
type NodeWire struct {
	Rank          int                  `json:"rank"`
	Name          string               `json:"name"`
	Host          string               `json:"host"`
	State         types.NodeStateFlag  `json:"state"`
	Res           ResourceListWire     `json:"res"`
	QueueName     string               `json:"queue_name,omitempty"`
	PartSet       string               `json:"part_set"`
	BucketIdx     int                  `json:"bucket_idx"`
	CurrentAOE    string               `json:"current_aoe"`
	Provisionable bool                 `json:"provisionable"`
	RunningRanks  []int                `json:"running_ranks"`
	ResvRanks     []int                `json:"resv_ranks"`
}

// QueueWire is the flat form of *types.Queue. NodeRanks replaces the
// Nodes []*Node affinity list.
type QueueWire struct {
	Rank         int             `json:"rank"`
	Name         string          `json:"name"`
	Priority     int             `json:"priority"`
	Type         types.QueueType `json:"type"`
	Enabled      bool            `json:"enabled"`
	Started      bool            `json:"started"`
	Flags        types.QueueFlag `json:"flags"`
	Limits       types.Limits    `json:"limits"`
	NodeRanks    []int           `json:"node_ranks,omitempty"`
	Partition    string          `json:"partition"`
	NodeGroupKey string          `json:"node_group_key"`
}

// ResourceResvWire is the flat form of *types.ResourceResv. The owning
// queue is addressed by name, and each exec_vnode binding references its
// node by rank.
type ResourceResvWire struct {
	Rank    int    `json:"rank"`
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	Group   string `json:"group"`
	Project string `json:"project"`
	IsResv  bool   `json:"is_resv"`

	QueueName string           `json:"queue_name"`
	ResReq    ResourceListWire `json:"res_req"`
	Select    []ChunkWire      `json:"select"`
	Place     types.PlaceSpec  `json:"place"`

	SubmitTime  time.Time     `json:"submit_time"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Duration    time.Duration `json:"duration"`
	HasSetStart bool          `json:"has_set_start"`

	State types.ResvState `json:"state"`

	NSpecs []NSpecWire `json:"n_specs"`

	ShareGroupLeader string           `json:"share_group_leader"`
	ShareType        types.ShareType  `json:"share_type"`
	FairsharePath    []string         `json:"fairshare_path"`

	PreemptPriority int      `json:"preempt_priority"`
	PreemptTargets  []string `json:"preempt_targets"`

	Priority int    `json:"priority"`
	Comment  string `json:"comment"`

	TopJobEligible bool `json:"top_job_eligible"`
	CanNeverRun    bool `json:"can_never_run"`
	StartingOnRank int  `json:"starting_on_rank"`
}

// SnapshotDTO is the wire form of one cycle's input server state: every
// pointer edge in *types.Server (Node.Queue, Queue.Nodes, NSpec.Node,
// ResourceResv.Queue) is replaced by a rank or name reference so the
// whole graph round-trips through encoding/json without risking a cycle.
type SnapshotDTO struct {
	Time   time.Time          `json:"time"`
	Nodes  []NodeWire         `json:"nodes"`
	Queues []QueueWire        `json:"queues"`
	Resvs  []ResourceResvWire `json:"resvs"`
	Policy types.Policy       `json:"policy"`
	Limits types.Limits       `json:"limits"`
}

// DecisionWire is the wire form of one cycle.Decision.
type DecisionWire struct {
	JobRank        int             `json:"job_rank"`
	JobName        string          `json:"job_name"`
	Outcome        string          `json:"outcome"`
	NSpecs         []NSpecWire     `json:"n_specs,omitempty"`
	StartTime      time.Time       `json:"start_time,omitempty"`
	BackfillReason int             `json:"backfill_reason,omitempty"`
	PreemptTargets []string        `json:"preempt_targets,omitempty"`
	PreemptMethod  rune            `json:"preempt_method,omitempty"`
	Err            *SchedErrorWire `json:"err,omitempty"`
}

// SchedErrorWire is the wire form of *schderr.SchedError. Cause is
// collapsed to its message string since arbitrary wrapped errors don't
// round-trip through JSON.
type SchedErrorWire struct {
	Status    schderr.Status `json:"status"`
	Code      schderr.Code   `json:"code"`
	Arg1      string         `json:"arg1,omitempty"`
	Arg2      string         `json:"arg2,omitempty"`
	Arg3      string         `json:"arg3,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Cause     string         `json:"cause,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func resourceListToWire(rl *types.ResourceList) ResourceListWire {
	if rl == nil {
		return nil
	}
	entries := rl.Entries()
	out := make(ResourceListWire, 0, len(entries))
	for _, e := range entries {
		out = append(out, ResourceEntryWire{
			Name:      e.Def.Name,
			Available: e.Available,
			Assigned:  e.Assigned,
		})
	}
	return out
}

func resourceListFromWire(reg *resource.Registry, w ResourceListWire) (*types.ResourceList, error) {
	rl := types.NewResourceList()
	for _, e := range w {
		def, ok := reg.Lookup(e.Name)
		if !ok {
			return nil, fmt.Errorf("resource %q not found in registry", e.Name)
		}
		rl.Set(def, e.Available, e.Assigned)
	}
	return rl, nil
}

func nodeRanks(nodes []*types.Node) []int {
	if len(nodes) == 0 {
		return nil
	}
	ranks := make([]int, len(nodes))
	for i, n := range nodes {
		ranks[i] = n.Rank
	}
	return ranks
}

func resvRanks(resvs []*types.ResourceResv) []int {
	if len(resvs) == 0 {
		return nil
	}
	ranks := make([]int, len(resvs))
	for i, r := range resvs {
		ranks[i] = r.Rank
	}
	return ranks
}

// ToWire flattens a live server snapshot into its wire form.
func ToWire(s *types.Server) SnapshotDTO {
	dto := SnapshotDTO{Time: s.Time, Limits: s.Limits}
	if s.Policy != nil {
		dto.Policy = *s.Policy
	}

	for _, n := range s.Nodes {
		nw := NodeWire{
			Rank:          n.Rank,
			Name:          n.Name,
			Host:          n.Host,
			State:         n.State,
			Res:           resourceListToWire(n.Res),
			PartSet:       n.PartSet,
			BucketIdx:     n.BucketIdx,
			CurrentAOE:    n.CurrentAOE,
			Provisionable: n.Provisionable,
			RunningRanks:  resvRanks(n.Running),
			ResvRanks:     resvRanks(n.Resvs),
		}
		if n.Queue != nil {
			nw.QueueName = n.Queue.Name
		}
		dto.Nodes = append(dto.Nodes, nw)
	}

	for _, q := range s.Queues {
		dto.Queues = append(dto.Queues, QueueWire{
			Rank:         q.Rank,
			Name:         q.Name,
			Priority:     q.Priority,
			Type:         q.Type,
			Enabled:      q.Enabled,
			Started:      q.Started,
			Flags:        q.Flags,
			Limits:       q.Limits,
			NodeRanks:    nodeRanks(q.Nodes),
			Partition:    q.Partition,
			NodeGroupKey: q.NodeGroupKey,
		})
	}

	for _, r := range s.Resvs {
		rw := ResourceResvWire{
			Rank:             r.Rank,
			Name:             r.Name,
			Owner:            r.Owner,
			Group:            r.Group,
			Project:          r.Project,
			IsResv:           r.IsResv,
			ResReq:           resourceListToWire(r.ResReq),
			Place:            r.Place,
			SubmitTime:       r.SubmitTime,
			Start:            r.Start,
			End:              r.End,
			Duration:         r.Duration,
			HasSetStart:      r.HasSetStart,
			State:            r.State,
			ShareGroupLeader: r.ShareGroupLeader,
			ShareType:        r.ShareType,
			FairsharePath:    r.FairsharePath,
			PreemptPriority:  r.PreemptPriority,
			PreemptTargets:   r.PreemptTargets,
			Priority:         r.Priority,
			Comment:          r.Comment,
			TopJobEligible:   r.TopJobEligible,
			CanNeverRun:      r.CanNeverRun,
			StartingOnRank:   r.StartingOnRank,
		}
		if r.Queue != nil {
			rw.QueueName = r.Queue.Name
		}
		for _, c := range r.Select {
			rw.Select = append(rw.Select, ChunkWire{NumChunks: c.NumChunks, ResReq: resourceListToWire(c.ResReq)})
		}
		for _, ns := range r.NSpecs {
			nsw := NSpecWire{SeqNum: ns.SeqNum, SubSeqNum: ns.SubSeqNum, EndOfChunk: ns.EndOfChunk, ResReq: resourceListToWire(ns.ResReq)}
			if ns.Node != nil {
				nsw.NodeRank = ns.Node.Rank
			}
			rw.NSpecs = append(rw.NSpecs, nsw)
		}
		dto.Resvs = append(dto.Resvs, rw)
	}

	return dto
}

// FromWire rebuilds a *types.Server from its wire form, resolving queue
// and node references against the rank/name keys carried on each entity.
// reg is used to resolve resource names back to *resource.Def pointers.
func FromWire(reg *resource.Registry, dto SnapshotDTO) (*types.Server, error) {
	s := &types.Server{Time: dto.Time, Limits: dto.Limits}
	policy := dto.Policy
	s.Policy = &policy

	nodeByRank := make(map[int]*types.Node, len(dto.Nodes))
	queueByName := make(map[string]*types.Queue, len(dto.Queues))

	for _, qw := range dto.Queues {
		q := &types.Queue{
			Rank:         qw.Rank,
			Name:         qw.Name,
			Priority:     qw.Priority,
			Type:         qw.Type,
			Enabled:      qw.Enabled,
			Started:      qw.Started,
			Flags:        qw.Flags,
			Limits:       qw.Limits,
			Partition:    qw.Partition,
			NodeGroupKey: qw.NodeGroupKey,
		}
		s.Queues = append(s.Queues, q)
		queueByName[q.Name] = q
	}

	for _, nw := range dto.Nodes {
		res, err := resourceListFromWire(reg, nw.Res)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nw.Name, err)
		}
		n := &types.Node{
			Rank:          nw.Rank,
			Name:          nw.Name,
			Host:          nw.Host,
			State:         nw.State,
			Res:           res,
			PartSet:       nw.PartSet,
			BucketIdx:     nw.BucketIdx,
			CurrentAOE:    nw.CurrentAOE,
			Provisionable: nw.Provisionable,
		}
		if nw.QueueName != "" {
			n.Queue = queueByName[nw.QueueName]
		}
		s.Nodes = append(s.Nodes, n)
		nodeByRank[n.Rank] = n
	}

	// second pass: wire queue node-affinity lists now that every node exists.
	for _, qw := range dto.Queues {
		if len(qw.NodeRanks) == 0 {
			continue
		}
		q := queueByName[qw.Name]
		for _, rank := range qw.NodeRanks {
			if n, ok := nodeByRank[rank]; ok {
				q.Nodes = append(q.Nodes, n)
			}
		}
	}

	for _, rw := range dto.Resvs {
		resReq, err := resourceListFromWire(reg, rw.ResReq)
		if err != nil {
			return nil, fmt.Errorf("resv %q: %w", rw.Name, err)
		}
		r := &types.ResourceResv{
			Rank:             rw.Rank,
			Name:             rw.Name,
			Owner:            rw.Owner,
			Group:            rw.Group,
			Project:          rw.Project,
			IsResv:           rw.IsResv,
			ResReq:           resReq,
			Place:            rw.Place,
			SubmitTime:       rw.SubmitTime,
			Start:            rw.Start,
			End:              rw.End,
			Duration:         rw.Duration,
			HasSetStart:      rw.HasSetStart,
			State:            rw.State,
			ShareGroupLeader: rw.ShareGroupLeader,
			ShareType:        rw.ShareType,
			FairsharePath:    rw.FairsharePath,
			PreemptPriority:  rw.PreemptPriority,
			PreemptTargets:   rw.PreemptTargets,
			Priority:         rw.Priority,
			Comment:          rw.Comment,
			TopJobEligible:   rw.TopJobEligible,
			CanNeverRun:      rw.CanNeverRun,
			StartingOnRank:   rw.StartingOnRank,
		}
		if rw.QueueName != "" {
			r.Queue = queueByName[rw.QueueName]
		}
		for _, cw := range rw.Select {
			chunkReq, err := resourceListFromWire(reg, cw.ResReq)
			if err != nil {
				return nil, fmt.Errorf("resv %q chunk: %w", rw.Name, err)
			}
			r.Select = append(r.Select, types.Chunk{NumChunks: cw.NumChunks, ResReq: chunkReq})
		}
		for _, nsw := range rw.NSpecs {
			nsReq, err := resourceListFromWire(reg, nsw.ResReq)
			if err != nil {
				return nil, fmt.Errorf("resv %q nspec: %w", rw.Name, err)
			}
			ns := types.NSpec{SeqNum: nsw.SeqNum, SubSeqNum: nsw.SubSeqNum, EndOfChunk: nsw.EndOfChunk, ResReq: nsReq}
			ns.Node = nodeByRank[nsw.NodeRank]
			r.NSpecs = append(r.NSpecs, ns)
		}
		s.Resvs = append(s.Resvs, r)
	}

	// third pass: node running/resv back-references, now that every
	// *types.ResourceResv exists.
	resvByRank := make(map[int]*types.ResourceResv, len(s.Resvs))
	for _, r := range s.Resvs {
		resvByRank[r.Rank] = r
	}
	byRank := make(map[int]NodeWire, len(dto.Nodes))
	for _, nw := range dto.Nodes {
		byRank[nw.Rank] = nw
	}
	for _, n := range s.Nodes {
		nw := byRank[n.Rank]
		for _, rank := range nw.RunningRanks {
			if r, ok := resvByRank[rank]; ok {
				n.Running = append(n.Running, r)
			}
		}
		for _, rank := range nw.ResvRanks {
			if r, ok := resvByRank[rank]; ok {
				n.Resvs = append(n.Resvs, r)
			}
		}
	}

	return s, nil
}

// DecisionToWire flattens one scheduling decision into its wire form.
func DecisionToWire(d cycle.Decision) DecisionWire {
	dw := DecisionWire{Outcome: d.Outcome.String()}
	if d.Job != nil {
		dw.JobRank = d.Job.Rank
		dw.JobName = d.Job.Name
	}
	for _, ns := range d.NSpecs {
		nsw := NSpecWire{SeqNum: ns.SeqNum, SubSeqNum: ns.SubSeqNum, EndOfChunk: ns.EndOfChunk, ResReq: resourceListToWire(ns.ResReq)}
		if ns.Node != nil {
			nsw.NodeRank = ns.Node.Rank
		}
		dw.NSpecs = append(dw.NSpecs, nsw)
	}
	dw.StartTime = d.StartTime
	dw.BackfillReason = int(d.BackfillReason)
	for _, t := range d.PreemptTargets {
		dw.PreemptTargets = append(dw.PreemptTargets, t.Name)
	}
	dw.PreemptMethod = rune(d.PreemptMethod)
	if d.Err != nil {
		ew := SchedErrorWire{
			Status:    d.Err.Status,
			Code:      d.Err.Code,
			Arg1:      d.Err.Arg1,
			Arg2:      d.Err.Arg2,
			Arg3:      d.Err.Arg3,
			Reason:    d.Err.Reason,
			Timestamp: d.Err.Timestamp,
		}
		if d.Err.Cause != nil {
			ew.Cause = d.Err.Cause.Error()
		}
		dw.Err = &ew
	}
	return dw
}
