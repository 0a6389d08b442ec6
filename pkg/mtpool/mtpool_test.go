package mtpool

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/openpbs/pbssched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDoublesEveryItemAcrossChunks(t *testing.T) {
	p := New(Config{NumWorkers: 4, ChunkMin: 1, ChunkMax: 3})
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	out, err := Run(context.Background(), p, items, func(_ int, chunk []int) ([]int, error) {
		doubled := make([]int, len(chunk))
		for i, v := range chunk {
			doubled[i] = v * 2
		}
		return doubled, nil
	})
	require.NoError(t, err)

	sort.Ints(out)
	assert.Equal(t, []int{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}, out)
}

func TestRunPropagatesFirstError(t *testing.T) {
	p := New(Config{NumWorkers: 2, ChunkMin: 1, ChunkMax: 2})
	items := []int{1, 2, 3, 4}

	_, err := Run(context.Background(), p, items, func(_ int, chunk []int) ([]int, error) {
		for _, v := range chunk {
			if v == 3 {
				return nil, errors.New("boom")
			}
		}
		return chunk, nil
	})
	require.Error(t, err)
}

func TestRunOnEmptyInputReturnsNil(t *testing.T) {
	p := New(DefaultConfig())
	out, err := Run(context.Background(), p, []int{}, func(_ int, chunk []int) ([]int, error) {
		return chunk, nil
	})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRunRespectsCancelledContext(t *testing.T) {
	p := New(Config{NumWorkers: 2, ChunkMin: 1, ChunkMax: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, p, []int{1, 2, 3}, func(_ int, chunk []int) ([]int, error) {
		return chunk, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDuplicateNodesClonesEachNode(t *testing.T) {
	p := New(Config{NumWorkers: 2, ChunkMin: 1, ChunkMax: 2})
	nodes := []*types.Node{
		{Rank: 1, Name: "n1"},
		{Rank: 2, Name: "n2"},
		{Rank: 3, Name: "n3"},
	}

	out, err := DuplicateNodes(context.Background(), p, nodes, func(n *types.Node) *types.Node {
		cp := *n
		return &cp
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, n := range out {
		for _, orig := range nodes {
			if orig.Rank == n.Rank {
				assert.NotSame(t, orig, n)
			}
		}
	}
}

func TestFilterEligibleNodesKeepsOnlyMatching(t *testing.T) {
	p := New(Config{NumWorkers: 2, ChunkMin: 1, ChunkMax: 2})
	nodes := []*types.Node{
		{Rank: 1, Name: "free1", State: types.NodeFree},
		{Rank: 2, Name: "down1", State: types.NodeDown},
		{Rank: 3, Name: "free2", State: types.NodeFree},
	}

	out, err := FilterEligibleNodes(context.Background(), p, nodes, func(n *types.Node) bool {
		return n.State == types.NodeFree
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestBuildJobsFromWireConstructsAndPropagatesErrors(t *testing.T) {
	p := New(Config{NumWorkers: 2, ChunkMin: 1, ChunkMax: 2})
	records := []string{"job1", "job2", "bad", "job3"}

	_, err := BuildJobsFromWire(context.Background(), p, records, func(rec string) (*types.ResourceResv, error) {
		if rec == "bad" {
			return nil, errors.New("malformed record")
		}
		return &types.ResourceResv{Name: rec}, nil
	})
	require.Error(t, err)

	ok := []string{"job1", "job2", "job3"}
	out, err := BuildJobsFromWire(context.Background(), p, ok, func(rec string) (*types.ResourceResv, error) {
		return &types.ResourceResv{Name: rec}, nil
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
}
