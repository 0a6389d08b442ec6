package sortkey

import (
	"sort"

	"github.com/openpbs/pbssched/pkg/fairshare"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/types"
)

// Chain evaluates a configured job_sort_key or node_sort_key list plus an
// optional fairshare overlay, in the order the scheduler applies them.
type Chain struct {
	Registry  *resource.Registry
	Keys      []types.SortKey
	FairShare bool
	// FairshareLookup resolves a job's leaf entity name to its fairshare
	// node. Left nil when fairshare is disabled or the caller has no
	// tree loaded.
	FairshareLookup func(entityName string) (*fairshare.Node, bool)
}

// CompareJobs orders candidate jobs: walks Keys, then the fairshare
// overlay if FairShare is set, then falls back to (queue rank, rank) so
// the order is total.
func (c *Chain) CompareJobs(a, b *types.ResourceResv) int {
	for _, k := range c.Keys {
		if cmp := c.compareJobKey(a, b, k); cmp != 0 {
			return cmp
		}
	}
	if c.FairShare && c.FairshareLookup != nil {
		if cmp := c.compareFairshare(a, b); cmp != 0 {
			return cmp
		}
	}
	aq, bq := queueRank(a), queueRank(b)
	if aq != bq {
		return cmpInt(aq, bq)
	}
	return cmpInt(a.Rank, b.Rank)
}

// SortJobs stable-sorts jobs in place according to c.
func (c *Chain) SortJobs(jobs []*types.ResourceResv) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return c.CompareJobs(jobs[i], jobs[j]) < 0
	})
}

// CompareNodes orders candidate nodes within a placement set. Only
// resource-def keys apply to nodes; special job-only keys are skipped.
func (c *Chain) CompareNodes(a, b *types.Node) int {
	for _, k := range c.Keys {
		if k.Special != "" {
			continue
		}
		if cmp := c.compareNodeKey(a, b, k); cmp != 0 {
			return cmp
		}
	}
	return cmpInt(a.Rank, b.Rank)
}

// SortNodes stable-sorts nodes in place according to c.
func (c *Chain) SortNodes(nodes []*types.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return c.CompareNodes(nodes[i], nodes[j]) < 0
	})
}

func queueRank(r *types.ResourceResv) int {
	if r.Queue == nil {
		return -1
	}
	return r.Queue.Rank
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func applyDirection(cmp int, descending bool) int {
	if descending {
		return -cmp
	}
	return cmp
}

// compareFairshare breaks ties by comparing the two jobs' fairshare
// root-to-leaf paths: the path with the lower usage/tree_percentage at
// the first differing level is more deserving and sorts first.
func (c *Chain) compareFairshare(a, b *types.ResourceResv) int {
	leafA := fairshareLeafName(a)
	leafB := fairshareLeafName(b)
	if leafA == "" || leafB == "" {
		return 0
	}
	nodeA, okA := c.FairshareLookup(leafA)
	nodeB, okB := c.FairshareLookup(leafB)
	if !okA || !okB {
		return 0
	}
	return fairshare.ComparePath(fairshare.CreatePath(nodeA), fairshare.CreatePath(nodeB))
}

func fairshareLeafName(r *types.ResourceResv) string {
	if len(r.FairsharePath) == 0 {
		return ""
	}
	return r.FairsharePath[len(r.FairsharePath)-1]
}
