package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/types"
)

func TestJSONCodecRoundTrip(t *testing.T) {
	c := jsonCodec{}
	in := DecisionWire{
		JobRank: 3,
		JobName: "1234.server",
		Outcome: "run",
		Err: &SchedErrorWire{
			Status:    schderr.StatusNeverRun,
			Code:      schderr.CodeNoFreeNodes,
			Reason:    "no node could ever satisfy the request",
			Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	data, err := c.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, codecName, c.Name())

	var out DecisionWire
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, in.JobName, out.JobName)
	assert.Equal(t, in.Outcome, out.Outcome)
	require.NotNil(t, out.Err)
	assert.Equal(t, in.Err.Code, out.Err.Code)
}

// buildCyclicServer returns a server where a queue has node affinity
// and its one node points back at that same queue — the pointer cycle
// a direct json.Marshal(*types.Server) would recurse into forever.
func buildCyclicServer(reg *resource.Registry) *types.Server {
	ncpus, _ := reg.Lookup("ncpus")

	q := &types.Queue{Rank: 0, Name: "gpuq", Enabled: true, Started: true}
	res := types.NewResourceList()
	res.Set(ncpus, resource.Value{Kind: resource.KindLong, Long: 8}, resource.Value{Kind: resource.KindLong, Long: 0})
	n := &types.Node{Rank: 0, Name: "node0", State: types.NodeFree, Res: res, Queue: q}
	q.Nodes = []*types.Node{n} // cycle: q -> n -> q

	return &types.Server{
		Time:   time.Date(2026, 7, 29, 8, 0, 0, 0, time.UTC),
		Nodes:  []*types.Node{n},
		Queues: []*types.Queue{q},
		Policy: &types.Policy{},
	}
}

func TestToWireBreaksQueueNodeCycleAndMarshalsCleanly(t *testing.T) {
	reg := resource.Builtin()
	s := buildCyclicServer(reg)

	dto := ToWire(s)
	require.Len(t, dto.Nodes, 1)
	require.Len(t, dto.Queues, 1)
	assert.Equal(t, "gpuq", dto.Nodes[0].QueueName)
	assert.Equal(t, []int{0}, dto.Queues[0].NodeRanks)

	data, err := json.Marshal(dto)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gpuq")
}

func TestFromWireRebuildsQueueNodeCycle(t *testing.T) {
	reg := resource.Builtin()
	s := buildCyclicServer(reg)
	dto := ToWire(s)

	data, err := json.Marshal(dto)
	require.NoError(t, err)
	var decoded SnapshotDTO
	require.NoError(t, json.Unmarshal(data, &decoded))

	rebuilt, err := FromWire(reg, decoded)
	require.NoError(t, err)
	require.Len(t, rebuilt.Nodes, 1)
	require.Len(t, rebuilt.Queues, 1)

	n := rebuilt.Nodes[0]
	q := rebuilt.Queues[0]
	require.NotNil(t, n.Queue)
	assert.Equal(t, "gpuq", n.Queue.Name)
	require.Len(t, q.Nodes, 1)
	assert.Same(t, n, q.Nodes[0])

	entry, ok := n.Res.Get(mustLookup(t, reg, "ncpus"))
	require.True(t, ok)
	assert.Equal(t, int64(8), entry.Available.Long)
}

func mustLookup(t *testing.T, reg *resource.Registry, name string) *resource.Def {
	t.Helper()
	def, ok := reg.Lookup(name)
	require.True(t, ok)
	return def
}

func TestResourceResvWireRoundTripsThroughNodeRank(t *testing.T) {
	reg := resource.Builtin()
	s := buildCyclicServer(reg)
	job := &types.ResourceResv{
		Rank:  0,
		Name:  "100.server",
		Queue: s.Queues[0],
		State: types.StateRunning,
		NSpecs: []types.NSpec{
			{Node: s.Nodes[0], SeqNum: 0, EndOfChunk: true, ResReq: types.NewResourceList()},
		},
	}
	s.Resvs = append(s.Resvs, job)

	dto := ToWire(s)
	require.Len(t, dto.Resvs, 1)
	assert.Equal(t, "gpuq", dto.Resvs[0].QueueName)
	require.Len(t, dto.Resvs[0].NSpecs, 1)
	assert.Equal(t, 0, dto.Resvs[0].NSpecs[0].NodeRank)

	rebuilt, err := FromWire(reg, dto)
	require.NoError(t, err)
	require.Len(t, rebuilt.Resvs, 1)
	require.Len(t, rebuilt.Resvs[0].NSpecs, 1)
	assert.Same(t, rebuilt.Nodes[0], rebuilt.Resvs[0].NSpecs[0].Node)
}
