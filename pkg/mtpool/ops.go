package mtpool

import (
	"context"

	"github.com/openpbs/pbssched/pkg/types"
)

// DuplicateNodes clones every node in nodes across the pool, using
// cloneFn to produce each copy. Used when a cycle needs an independent
// node array to simulate against without disturbing the snapshot it
// came from.
func DuplicateNodes(ctx context.Context, p *Pool, nodes []*types.Node, cloneFn func(*types.Node) *types.Node) ([]*types.Node, error) {
	return Run(ctx, p, nodes, func(_ int, chunk []*types.Node) ([]*types.Node, error) {
		out := make([]*types.Node, len(chunk))
		for i, n := range chunk {
			out[i] = cloneFn(n)
		}
		return out, nil
	})
}

// FilterEligibleNodes returns the subset of nodes for which pred holds,
// evaluated concurrently across disjoint chunks. pred is typically a
// single chunk request's eligibility test, independent per node.
func FilterEligibleNodes(ctx context.Context, p *Pool, nodes []*types.Node, pred func(*types.Node) bool) ([]*types.Node, error) {
	return Run(ctx, p, nodes, func(_ int, chunk []*types.Node) ([]*types.Node, error) {
		var out []*types.Node
		for _, n := range chunk {
			if pred(n) {
				out = append(out, n)
			}
		}
		return out, nil
	})
}

// DuplicateResvs clones every resv/job in resvs across the pool, using
// cloneFn to produce each copy.
func DuplicateResvs(ctx context.Context, p *Pool, resvs []*types.ResourceResv, cloneFn func(*types.ResourceResv) *types.ResourceResv) ([]*types.ResourceResv, error) {
	return Run(ctx, p, resvs, func(_ int, chunk []*types.ResourceResv) ([]*types.ResourceResv, error) {
		out := make([]*types.ResourceResv, len(chunk))
		for i, r := range chunk {
			out[i] = cloneFn(r)
		}
		return out, nil
	})
}

// BuildJobsFromWire constructs the job array out of wire-level records,
// in parallel, returning the first build error encountered (if any)
// across all chunks.
func BuildJobsFromWire[W any](ctx context.Context, p *Pool, records []W, buildFn func(W) (*types.ResourceResv, error)) ([]*types.ResourceResv, error) {
	return Run(ctx, p, records, func(_ int, chunk []W) ([]*types.ResourceResv, error) {
		out := make([]*types.ResourceResv, 0, len(chunk))
		for _, rec := range chunk {
			job, err := buildFn(rec)
			if err != nil {
				return nil, err
			}
			out = append(out, job)
		}
		return out, nil
	})
}
