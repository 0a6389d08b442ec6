package backfill

import (
	"testing"
	"time"

	"github.com/openpbs/pbssched/pkg/calendar"
	"github.com/openpbs/pbssched/pkg/fairshare"
	"github.com/openpbs/pbssched/pkg/placement"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/sortkey"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeverBackfillMatchesSchderrTaxonomy(t *testing.T) {
	assert.True(t, NeverBackfill(schderr.CodeDedTime))
	assert.True(t, NeverBackfill(schderr.CodeQueueUserLimitReached))
	assert.False(t, NeverBackfill(schderr.CodePrimeBoundary))
}

func TestQuotasAdmitInPriorityOrder(t *testing.T) {
	q := NewQuotas(1, 1, 1)

	reason, ok := q.TryAdmit("setaside", nil, nil)
	require.True(t, ok)
	assert.Equal(t, ReasonQueueSetAside, reason)

	// queue's single slot is used; a second job from the same queue
	// falls through to the fairshare topjob pool.
	entity := &fairshare.Node{Name: "alice", TreePercentage: 0.5, Usage: 10}
	root := &fairshare.Node{Name: "root", Usage: 10}
	reason, ok = q.TryAdmit("setaside", entity, root)
	require.True(t, ok)
	assert.Equal(t, ReasonFairshareTopjob, reason)

	// the global depth (1) has not been used yet, so a third job with
	// no queue/entity context consumes the global pool.
	reason, ok = q.TryAdmit("", nil, nil)
	require.True(t, ok)
	assert.Equal(t, ReasonGlobalDepth, reason)

	// depth exhausted, nothing left to admit.
	_, ok = q.TryAdmit("", nil, nil)
	assert.False(t, ok)
}

func TestQuotasAdmitUnderAllocationGroup(t *testing.T) {
	q := NewQuotas(0, 0, 0)
	entity := &fairshare.Node{Name: "bob", TreePercentage: 0.5, Usage: 1}
	root := &fairshare.Node{Name: "root", Usage: 10}

	reason, ok := q.TryAdmit("", entity, root)
	require.True(t, ok)
	assert.Equal(t, ReasonUnderAllocation, reason, "bob has used 10% of total against a 50% entitlement")
}

func mkNode(t *testing.T, reg *resource.Registry, rank int, name string, cpus int64) *types.Node {
	t.Helper()
	ncpus, _ := reg.Lookup("ncpus")
	rl := types.NewResourceList()
	rl.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: cpus}, resource.Value{Kind: resource.KindLong})
	return &types.Node{Rank: rank, Name: name, Host: name, State: types.NodeFree, Res: rl}
}

func mkJob(t *testing.T, reg *resource.Registry, rank int, name string, cpus int64, dur time.Duration) *types.ResourceResv {
	t.Helper()
	ncpus, _ := reg.Lookup("ncpus")
	req := types.NewResourceList()
	req.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: cpus}, resource.Value{})
	return &types.ResourceResv{
		Rank:     rank,
		Name:     name,
		Select:   []types.Chunk{{NumChunks: 1, ResReq: req}},
		Place:    types.PlaceSpec{Excl: true},
		Duration: dur,
	}
}

func TestAdmitterRejectsNeverRunCandidateWithoutConsumingQuota(t *testing.T) {
	reg := resource.Builtin()
	node := mkNode(t, reg, 1, "n1", 4)
	server := &types.Server{Nodes: []*types.Node{node}, Policy: &types.Policy{}}
	cal := calendar.CreateEventList(server, nil, nil)

	job := mkJob(t, reg, 1, "job1", 4, time.Hour)
	chain := &schderr.Chain{}
	chain.Add(schderr.New(schderr.StatusNeverRun, schderr.CodeDedTime, "dedicated time"))

	quotas := NewQuotas(0, 0, 1)
	a := &Admitter{Quotas: quotas, Registry: reg, SortChain: &sortkey.Chain{}}
	reason, _, _, err := a.Admit(server, cal, Request{Job: job, Chain: chain})
	require.NotNil(t, err)
	assert.Equal(t, schderr.CodeDedTime, err.Code)
	assert.Equal(t, ReasonNone, reason)
}

func TestAdmitterCalendarsJobUnderGlobalDepth(t *testing.T) {
	reg := resource.Builtin()
	node := mkNode(t, reg, 1, "n1", 4)
	ncpus, _ := reg.Lookup("ncpus")
	node.Res.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: 4}, resource.Value{Kind: resource.KindLong, Long: 4})

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	running := mkJob(t, reg, 1, "running", 4, time.Hour)
	running.State = types.StateRunning
	running.HasSetStart = true
	running.Start = now
	running.End = now.Add(time.Hour)
	running.NSpecs = []types.NSpec{{Node: node, ResReq: running.Select[0].ResReq}}

	server := &types.Server{Time: now, Nodes: []*types.Node{node}, Resvs: []*types.ResourceResv{running}, Policy: &types.Policy{}}
	cal := calendar.CreateEventList(server, nil, nil)

	candidate := mkJob(t, reg, 2, "candidate", 4, 30*time.Minute)
	partitions := universe.BuildPartitions(reg, server.Nodes, "")
	byRank := map[int]*types.Node{node.Rank: node}
	for _, p := range partitions {
		p.BuildBuckets(byRank)
	}

	quotas := NewQuotas(0, 0, 5)
	a := &Admitter{
		Quotas:     quotas,
		Registry:   reg,
		SortChain:  &sortkey.Chain{},
		Partitions: partitions,
		PlaceOpts:  placement.Options{},
	}
	chain := &schderr.Chain{}
	chain.Add(schderr.New(schderr.StatusNotRun, schderr.CodeInsufficientResource, "no free node"))

	reason, fitTime, nspecs, err := a.Admit(server, cal, Request{Job: candidate, Chain: chain})
	require.Nil(t, err)
	assert.Equal(t, ReasonGlobalDepth, reason)
	assert.True(t, fitTime.Equal(now.Add(time.Hour)))
	require.Len(t, nspecs, 1)

	found := false
	for _, r := range server.Resvs {
		if r == candidate {
			found = true
		}
	}
	assert.True(t, found, "SimRunJob should append the admitted candidate onto server.Resvs")
}
