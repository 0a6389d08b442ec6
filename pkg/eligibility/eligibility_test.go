package eligibility

import (
	"testing"
	"time"

	"github.com/openpbs/pbssched/pkg/placement"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(t *testing.T, reg *resource.Registry, rank int, cpus int64) *types.Node {
	t.Helper()
	ncpus, _ := reg.Lookup("ncpus")
	rl := types.NewResourceList()
	rl.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: cpus}, resource.Value{Kind: resource.KindLong})
	return &types.Node{Rank: rank, Name: "n", State: types.NodeFree, Res: rl}
}

func testJob(t *testing.T, reg *resource.Registry, queue *types.Queue, cpus int64) *types.ResourceResv {
	t.Helper()
	ncpus, _ := reg.Lookup("ncpus")
	req := types.NewResourceList()
	req.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: cpus}, resource.Value{})
	return &types.ResourceResv{
		Name: "job1", Owner: "alice", Group: "g", Project: "p",
		Queue: queue, Select: []types.Chunk{{NumChunks: 1, ResReq: req}},
	}
}

func baseInput(t *testing.T, reg *resource.Registry, nodes []*types.Node, job *types.ResourceResv, queue *types.Queue, policy *types.Policy, server *types.Server) Input {
	t.Helper()
	byRank := make(map[int]*types.Node, len(nodes))
	for _, n := range nodes {
		byRank[n.Rank] = n
	}
	parts := universe.BuildPartitions(reg, nodes, "")
	return Input{
		Registry:       reg,
		Policy:         policy,
		Server:         server,
		Queue:          queue,
		Resv:           job,
		Now:            time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		Counts:         BuildRunningCounts(server),
		PartitionNodes: nodes,
		Partitions:     parts,
		NodeByRank:     byRank,
		PlaceOpts:      placement.Options{},
	}
}

func TestIsOkToRunSucceedsAndProducesAllocation(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{Name: "workq", Enabled: true, Started: true}
	node := testNode(t, reg, 1, 8)
	job := testJob(t, reg, queue, 4)
	server := &types.Server{Nodes: []*types.Node{node}, Resvs: []*types.ResourceResv{job}, Policy: &types.Policy{}}

	in := baseInput(t, reg, server.Nodes, job, queue, server.Policy, server)
	nspecs, chain := IsOkToRun(in)
	require.True(t, chain.Empty())
	require.Len(t, nspecs, 1)
	assert.Equal(t, node.Rank, nspecs[0].Node.Rank)
}

func TestIsOkToRunFailsOnDisabledQueue(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{Name: "workq", Enabled: false, Started: true}
	node := testNode(t, reg, 1, 8)
	job := testJob(t, reg, queue, 4)
	server := &types.Server{Nodes: []*types.Node{node}, Resvs: []*types.ResourceResv{job}, Policy: &types.Policy{}}

	in := baseInput(t, reg, server.Nodes, job, queue, server.Policy, server)
	nspecs, chain := IsOkToRun(in)
	require.Nil(t, nspecs)
	require.False(t, chain.Empty())
	assert.Equal(t, schderr.CodeQueueNotRunning, chain.First().Code)
}

func TestIsOkToRunShortCircuitsWithoutReturnAllErr(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{Name: "workq", Enabled: false, Started: false}
	node := testNode(t, reg, 1, 1)
	job := testJob(t, reg, queue, 4) // also fails insufficient resource, but queue-state fails first
	server := &types.Server{Nodes: []*types.Node{node}, Resvs: []*types.ResourceResv{job}, Policy: &types.Policy{}}

	in := baseInput(t, reg, server.Nodes, job, queue, server.Policy, server)
	_, chain := IsOkToRun(in)
	assert.Len(t, chain.Errors, 1)
}

func TestIsOkToRunReturnAllErrAccumulates(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{Name: "workq", Enabled: false, Started: false}
	node := testNode(t, reg, 1, 1)
	job := testJob(t, reg, queue, 4)
	server := &types.Server{Nodes: []*types.Node{node}, Resvs: []*types.ResourceResv{job}, Policy: &types.Policy{}}

	in := baseInput(t, reg, server.Nodes, job, queue, server.Policy, server)
	in.ReturnAllErr = true
	_, chain := IsOkToRun(in)
	assert.True(t, len(chain.Errors) >= 1)
}

func TestIsOkToRunFailsOnQueueUserLimit(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{
		Name: "workq", Enabled: true, Started: true,
		Limits: types.Limits{MaxRunningPerUser: map[string]int{"alice": 1}},
	}
	node := testNode(t, reg, 1, 8)
	running := testJob(t, reg, queue, 2)
	running.Owner = "alice"
	running.State = types.StateRunning
	job := testJob(t, reg, queue, 4)
	server := &types.Server{Nodes: []*types.Node{node}, Resvs: []*types.ResourceResv{running, job}, Policy: &types.Policy{}}

	in := baseInput(t, reg, server.Nodes, job, queue, server.Policy, server)
	_, chain := IsOkToRun(in)
	require.False(t, chain.Empty())
	assert.Equal(t, schderr.CodeQueueUserLimitReached, chain.First().Code)
}

func TestIsOkToRunFailsOnLicense(t *testing.T) {
	reg := resource.Builtin()
	queue := &types.Queue{Name: "workq", Enabled: true, Started: true}
	node := testNode(t, reg, 1, 8)
	job := testJob(t, reg, queue, 4)
	server := &types.Server{Nodes: []*types.Node{node}, Resvs: []*types.ResourceResv{job}, Policy: &types.Policy{}}

	in := baseInput(t, reg, server.Nodes, job, queue, server.Policy, server)
	in.LicensesAvailable = func(*types.ResourceResv) bool { return false }
	nspecs, chain := IsOkToRun(in)
	require.Nil(t, nspecs)
	assert.Equal(t, schderr.CodeNoLicense, chain.First().Code)
}
