package placement

import (
	"testing"
	"time"

	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkNode(t *testing.T, reg *resource.Registry, rank int, name string, cpus int64, free bool) *types.Node {
	t.Helper()
	ncpus, _ := reg.Lookup("ncpus")
	rl := types.NewResourceList()
	rl.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: cpus}, resource.Value{Kind: resource.KindLong, Long: 0})
	state := types.NodeOffline
	if free {
		state = types.NodeFree
	}
	return &types.Node{Rank: rank, Name: name, Host: name, State: state, Res: rl}
}

func mkJob(t *testing.T, reg *resource.Registry, numChunks int, cpusPerChunk int64, place types.PlaceSpec) *types.ResourceResv {
	t.Helper()
	ncpus, _ := reg.Lookup("ncpus")
	req := types.NewResourceList()
	req.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: cpusPerChunk}, resource.Value{})
	return &types.ResourceResv{
		Rank:   1,
		Name:   "job1",
		Select: []types.Chunk{{NumChunks: numChunks, ResReq: req}},
		Place:  place,
	}
}

func byRank(nodes []*types.Node) map[int]*types.Node {
	out := make(map[int]*types.Node, len(nodes))
	for _, n := range nodes {
		out[n.Rank] = n
	}
	return out
}

func TestCheckNodesPacksOntoFewestNodes(t *testing.T) {
	reg := resource.Builtin()
	n1 := mkNode(t, reg, 1, "n1", 8, true)
	n2 := mkNode(t, reg, 2, "n2", 8, true)
	nodes := []*types.Node{n1, n2}
	parts := universe.BuildPartitions(reg, nodes, "")
	all := parts[universe.AllPartitionName]
	all.BuildBuckets(byRank(nodes))

	job := mkJob(t, reg, 4, 2, types.PlaceSpec{Arrangement: types.PlacePack})
	nspecs, err := CheckNodes(nil, []*universe.Partition{all}, all, byRank(nodes), job, false)
	require.Nil(t, err)
	require.Len(t, nspecs, 4)
	for _, ns := range nspecs {
		assert.Equal(t, 1, ns.Node.Rank, "pack should exhaust the first sorted node before spilling to the second")
	}
}

func TestCheckNodesScatterUsesDistinctNodes(t *testing.T) {
	reg := resource.Builtin()
	n1 := mkNode(t, reg, 1, "n1", 8, true)
	n2 := mkNode(t, reg, 2, "n2", 8, true)
	nodes := []*types.Node{n1, n2}
	parts := universe.BuildPartitions(reg, nodes, "")
	all := parts[universe.AllPartitionName]
	all.BuildBuckets(byRank(nodes))

	job := mkJob(t, reg, 2, 2, types.PlaceSpec{Arrangement: types.PlaceScatter})
	nspecs, err := CheckNodes(nil, []*universe.Partition{all}, all, byRank(nodes), job, false)
	require.Nil(t, err)
	require.Len(t, nspecs, 2)
	assert.NotEqual(t, nspecs[0].Node.Rank, nspecs[1].Node.Rank)
}

func TestCheckNodesInsufficientResourceFails(t *testing.T) {
	reg := resource.Builtin()
	n1 := mkNode(t, reg, 1, "n1", 2, true)
	nodes := []*types.Node{n1}
	parts := universe.BuildPartitions(reg, nodes, "")
	all := parts[universe.AllPartitionName]
	all.BuildBuckets(byRank(nodes))

	job := mkJob(t, reg, 4, 2, types.PlaceSpec{})
	_, err := CheckNodes(nil, []*universe.Partition{all}, all, byRank(nodes), job, false)
	require.NotNil(t, err)
	assert.Equal(t, "INSUFFICIENT_RESOURCE", string(err.Code))
}

func TestUseFastPathRequiresExclNotPack(t *testing.T) {
	reg := resource.Builtin()
	job := mkJob(t, reg, 1, 2, types.PlaceSpec{Excl: true})
	assert.True(t, UseFastPath(job, false))

	packed := mkJob(t, reg, 1, 2, types.PlaceSpec{Excl: true, Arrangement: types.PlacePack})
	assert.False(t, UseFastPath(packed, false))

	shared := mkJob(t, reg, 1, 2, types.PlaceSpec{})
	assert.False(t, UseFastPath(shared, false))
}

func TestMapBucketsDrawsFromFreePoolAndCommits(t *testing.T) {
	reg := resource.Builtin()
	n1 := mkNode(t, reg, 1, "n1", 4, true)
	n2 := mkNode(t, reg, 2, "n2", 4, true)
	nodes := []*types.Node{n1, n2}
	parts := universe.BuildPartitions(reg, nodes, "")
	all := parts[universe.AllPartitionName]
	all.BuildBuckets(byRank(nodes))
	b := all.Buckets[0]
	require.Equal(t, 2, b.FreeCt())

	job := mkJob(t, reg, 2, 4, types.PlaceSpec{Excl: true})
	nspecs, err := MapBuckets(reg, all, byRank(nodes), job, time.Time{}, nil)
	_ = nspecs
	require.Nil(t, err)
	assert.Equal(t, 0, b.TruthFree.Popcount())
	assert.Equal(t, 2, b.TruthBusy.Popcount())
}

func TestMapBucketsInsufficientCapacityRollsBack(t *testing.T) {
	reg := resource.Builtin()
	n1 := mkNode(t, reg, 1, "n1", 4, true)
	nodes := []*types.Node{n1}
	parts := universe.BuildPartitions(reg, nodes, "")
	all := parts[universe.AllPartitionName]
	all.BuildBuckets(byRank(nodes))
	b := all.Buckets[0]

	job := mkJob(t, reg, 4, 4, types.PlaceSpec{Excl: true})
	_, err := MapBuckets(reg, all, byRank(nodes), job, time.Time{}, nil)
	require.NotNil(t, err)
	assert.Equal(t, 1, b.TruthFree.Popcount(), "a rejected candidate must leave Truth pools untouched")
}

func TestCommitClaimsExclusiveNode(t *testing.T) {
	reg := resource.Builtin()
	n1 := mkNode(t, reg, 1, "n1", 8, true)
	job := mkJob(t, reg, 1, 2, types.PlaceSpec{Excl: true})
	nspecs := []types.NSpec{{Node: n1, ResReq: job.Select[0].ResReq}}
	Commit(nspecs, job)

	ncpus, _ := reg.Lookup("ncpus")
	e, _ := n1.Res.Get(ncpus)
	assert.Equal(t, int64(8), e.Assigned.Long, "excl claims the whole node's remaining capacity, not just the chunk")
	assert.True(t, n1.State.Has(types.NodeExclusive))
}
