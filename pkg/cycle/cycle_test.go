package cycle

import (
	"testing"
	"time"

	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(reg *resource.Registry, rank int, cpus int64, state types.NodeStateFlag) *types.Node {
	ncpus, _ := reg.Lookup("ncpus")
	rl := types.NewResourceList()
	rl.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: cpus}, resource.Value{Kind: resource.KindLong})
	return &types.Node{Rank: rank, Name: "n", State: state, Res: rl}
}

func testJob(reg *resource.Registry, rank int, name string, queue *types.Queue, cpus int64) *types.ResourceResv {
	ncpus, _ := reg.Lookup("ncpus")
	req := types.NewResourceList()
	req.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: cpus}, resource.Value{})
	return &types.ResourceResv{
		Rank: rank, Name: name, Owner: "alice", Group: "g", Project: "p",
		Queue: queue, State: types.StateQueued,
		Select:   []types.Chunk{{NumChunks: 1, ResReq: req}},
		Duration: time.Hour,
	}
}

func TestRunAdmitsJobToFreeNode(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{Name: "workq", Enabled: true, Started: true}
	node := testNode(reg, 1, 8, types.NodeFree)
	job := testJob(reg, 1, "job1", queue, 4)
	server := &types.Server{
		Time:   time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Nodes:  []*types.Node{node},
		Queues: []*types.Queue{queue},
		Resvs:  []*types.ResourceResv{job},
		Policy: &types.Policy{},
	}

	out := Run(Input{Registry: reg, Server: server})
	require.Len(t, out.Decisions, 1)
	d := out.Decisions[0]
	assert.Equal(t, OutcomeRun, d.Outcome)
	require.Len(t, d.NSpecs, 1)
	assert.Equal(t, node.Rank, d.NSpecs[0].Node.Rank)
	assert.Equal(t, types.StateRunning, job.State)
	assert.True(t, job.HasSetStart)
}

func TestRunRejectsWhenNoNodeCanEverFit(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{Name: "workq", Enabled: true, Started: true}
	node := testNode(reg, 1, 2, types.NodeFree)
	job := testJob(reg, 1, "job1", queue, 4)
	server := &types.Server{
		Time:   time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Nodes:  []*types.Node{node},
		Queues: []*types.Queue{queue},
		Resvs:  []*types.ResourceResv{job},
		Policy: &types.Policy{},
	}

	out := Run(Input{Registry: reg, Server: server})
	require.Len(t, out.Decisions, 1)
	assert.Equal(t, OutcomeRejected, out.Decisions[0].Outcome)
	assert.NotNil(t, out.Decisions[0].Err)
}

func TestRunHonoursMaxCandidates(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{Name: "workq", Enabled: true, Started: true}
	node := testNode(reg, 1, 8, types.NodeFree)
	job1 := testJob(reg, 1, "job1", queue, 4)
	job2 := testJob(reg, 2, "job2", queue, 4)
	server := &types.Server{
		Time:   time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Nodes:  []*types.Node{node},
		Queues: []*types.Queue{queue},
		Resvs:  []*types.ResourceResv{job1, job2},
		Policy: &types.Policy{},
	}

	out := Run(Input{Registry: reg, Server: server, MaxCandidates: 1})
	assert.Len(t, out.Decisions, 1)
}

func TestPreemptWorthyMatchesResourceShortageCodesOnly(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{Name: "workq", Enabled: false, Started: true}
	node := testNode(reg, 1, 8, types.NodeFree)
	job := testJob(reg, 1, "job1", queue, 4)
	server := &types.Server{
		Time:   time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Nodes:  []*types.Node{node},
		Queues: []*types.Queue{queue},
		Resvs:  []*types.ResourceResv{job},
		Policy: &types.Policy{PreemptiveSched: true},
	}

	out := Run(Input{Registry: reg, Server: server})
	require.Len(t, out.Decisions, 1)
	assert.Equal(t, OutcomeRejected, out.Decisions[0].Outcome, "a disabled queue is never a preemption target")
}
