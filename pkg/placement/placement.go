package placement

import (
	"sort"
	"strings"
	"time"

	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/sortkey"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
)

// Options carries everything Allocate needs beyond the job itself: the
// policy-derived grouping keys, the spanning/fast-path toggles, and a
// calendar hook for the bucket fast path's busy_later_pool check.
type Options struct {
	QueueNodeGroupKey  string
	ServerNodeGroupKey string
	DoNotSpanPSets     bool
	MultiVnodePerHost  bool
	Now                time.Time
	Fits               FitsDuration
}

// Allocate resolves job's select/place request into an nspec allocation,
// preferring the bucket fast path when it applies, and commits the
// winning allocation's resource consumption onto the real node objects.
func Allocate(reg *resource.Registry, chain *sortkey.Chain, partitions map[string]*universe.Partition, nodeByRank map[int]*types.Node, job *types.ResourceResv, opts Options) ([]types.NSpec, *schderr.SchedError) {
	name := choosePartitionName(job, opts.QueueNodeGroupKey, opts.ServerNodeGroupKey)
	ordered := orderedPartitions(partitions, name)
	allpart := partitions[universe.AllPartitionName]

	var nspecs []types.NSpec
	var lastErr *schderr.SchedError

	if UseFastPath(job, opts.MultiVnodePerHost) {
		for _, part := range ordered {
			got, err := MapBuckets(reg, part, nodeByRank, job, opts.Now, opts.Fits)
			if err == nil {
				nspecs = got
				break
			}
			lastErr = err
		}
		if nspecs == nil && !opts.DoNotSpanPSets && allpart != nil {
			got, err := MapBuckets(reg, allpart, nodeByRank, job, opts.Now, opts.Fits)
			if err == nil {
				nspecs = got
			} else {
				lastErr = err
			}
		}
	} else {
		got, err := CheckNodes(chain, ordered, allpart, nodeByRank, job, opts.DoNotSpanPSets)
		nspecs, lastErr = got, err
	}

	if nspecs == nil {
		if lastErr == nil {
			lastErr = schderr.New(schderr.StatusNotRun, schderr.CodeInsufficientResource, "no placement found for "+job.Name)
		}
		return nil, lastErr
	}

	Commit(nspecs, job)
	return nspecs, nil
}

// choosePartitionName resolves which grouping resource names the
// placement-set pool to use: the job's place=group=R overrides the
// queue's node_group_key, which overrides the server's.
func choosePartitionName(job *types.ResourceResv, queueKey, serverKey string) string {
	switch {
	case job.Place.Group != "":
		return job.Place.Group
	case queueKey != "":
		return queueKey
	case serverKey != "":
		return serverKey
	default:
		return universe.AllPartitionName
	}
}

// orderedPartitions collects every partition keyed on name (the
// "<name>=<value>" partitions BuildPartitions produced for that grouping
// resource), sorted by node count descending as a proxy for "available
// resources descending" since per-partition aggregate totals are not
// separately tracked.
func orderedPartitions(partitions map[string]*universe.Partition, name string) []*universe.Partition {
	if name == "" || name == universe.AllPartitionName {
		if p, ok := partitions[universe.AllPartitionName]; ok {
			return []*universe.Partition{p}
		}
		return nil
	}
	prefix := name + "="
	var out []*universe.Partition
	for n, p := range partitions {
		if strings.HasPrefix(n, prefix) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].NodeRanks) != len(out[j].NodeRanks) {
			return len(out[i].NodeRanks) > len(out[j].NodeRanks)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Commit applies every nspec's resource consumption to its real node,
// and for place=excl jobs claims the rest of that node's consumable
// capacity so no other job can share it.
func Commit(nspecs []types.NSpec, job *types.ResourceResv) {
	for _, ns := range nspecs {
		consume(ns.Node.Res, ns.ResReq)
		ns.Node.Running = append(ns.Node.Running, job)
		if job.Place.Excl {
			claimExclusive(ns.Node)
		}
	}
}

func claimExclusive(n *types.Node) {
	n.State |= types.NodeExclusive
	for _, e := range n.Res.Entries() {
		if e.Def.Flags.Has(resource.FlagConsumable) {
			e.Assigned = e.EffectiveAvailable()
		}
	}
}
