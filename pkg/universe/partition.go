package universe

import (
	"fmt"
	"sort"

	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/types"
)

// AllPartitionName is the reserved name for the partition covering every
// node regardless of grouping-resource value.
const AllPartitionName = "allpart"

// HostSetsPartitionName is the reserved name for the partition keyed on
// the "host" resource (hostsets partitions by host).
const HostSetsPartitionName = "hostsets"

// Partition is a node_partition: a maximal set of nodes sharing the value
// of a named grouping resource, holding a live sorted node array and its
// node buckets.
type Partition struct {
	Name         string
	NodeRanks    []int // sorted by available resources descending (caller-maintained order)
	Buckets      []*Bucket
	AggregateRes *types.ResourceList
}

// BuildPartitions splits nodes into node_partitions keyed by groupKey.
// The AllPartitionName partition always covers every node. An empty
// groupKey, or one naming no registered resource, yields only that
// partition; otherwise one more partition is built per distinct value,
// and nodes with no value set fall into "allpart" only (never silently
// dropped).
func BuildPartitions(reg *resource.Registry, nodes []*types.Node, groupKey string) map[string]*Partition {
	out := make(map[string]*Partition)

	allRanks := make([]int, 0, len(nodes))
	for _, n := range nodes {
		allRanks = append(allRanks, n.Rank)
	}
	out[AllPartitionName] = &Partition{Name: AllPartitionName, NodeRanks: allRanks}

	if groupKey == "" {
		return out
	}

	def, ok := reg.Lookup(groupKey)
	if !ok {
		return out
	}

	byValue := make(map[string][]int)
	for _, n := range nodes {
		e, ok := n.Res.Get(def)
		if !ok || !e.EffectiveAvailable().IsSet() {
			continue
		}
		key := resource.Encode(e.EffectiveAvailable())
		byValue[key] = append(byValue[key], n.Rank)
	}
	for val, ranks := range byValue {
		name := groupKey + "=" + val
		out[name] = &Partition{Name: name, NodeRanks: ranks}
	}
	return out
}

// nodeSignature builds a deterministic string key over a node's
// consumable-resource availability, ignoring host/vnode identity, so
// nodes with identical capacity land in the same bucket.
func nodeSignature(n *types.Node) string {
	entries := n.Res.Entries()
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Def.Flags.Has(resource.FlagConsumable) {
			continue
		}
		keys = append(keys, e.Def.Name+"="+resource.Encode(e.EffectiveAvailable()))
	}
	sort.Strings(keys)
	sig := ""
	for _, k := range keys {
		sig += k + ";"
	}
	return sig
}

// BuildBuckets partitions the nodes of p into node buckets sharing an
// identical resource signature, queue affinity, and priority. nodeByRank
// resolves a rank to its *types.Node.
func (p *Partition) BuildBuckets(nodeByRank map[int]*types.Node) {
	type key struct {
		sig      string
		queue    string
		priority int
	}
	groups := make(map[key][]int)
	for _, rank := range p.NodeRanks {
		n := nodeByRank[rank]
		qn := ""
		prio := 0
		if n.Queue != nil {
			qn = n.Queue.Name
			prio = n.Queue.Priority
		}
		k := key{sig: nodeSignature(n), queue: qn, priority: prio}
		groups[k] = append(groups[k], rank)
	}

	// Deterministic bucket ordering: sort group keys so bucket IDs (and
	// therefore iteration order in the fast path) are stable cycle to
	// cycle for a static cluster.
	type ordered struct {
		k     key
		ranks []int
	}
	var all []ordered
	for k, ranks := range groups {
		all = append(all, ordered{k, ranks})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].k.sig != all[j].k.sig {
			return all[i].k.sig < all[j].k.sig
		}
		if all[i].k.queue != all[j].k.queue {
			return all[i].k.queue < all[j].k.queue
		}
		return all[i].k.priority < all[j].k.priority
	})

	p.Buckets = p.Buckets[:0]
	for i, o := range all {
		rep := nodeByRank[o.ranks[0]]
		bucket := NewBucket(i, p.Name, rep.Res, o.k.queue, o.k.priority, o.ranks)
		for bit, rank := range o.ranks {
			n := nodeByRank[rank]
			switch {
			case n.State.Has(types.NodeDown) || n.State.Has(types.NodeOffline) || n.State.Has(types.NodeStale):
				bucket.TruthBusy.Set(bit)
			case len(n.NodeEvents) > 0:
				bucket.TruthBusyLater.Set(bit)
			case n.State.Has(types.NodeFree):
				bucket.TruthFree.Set(bit)
			default:
				bucket.TruthBusy.Set(bit)
			}
		}
		bucket.ResetWorking()
		p.Buckets = append(p.Buckets, bucket)
	}
}

func bucketKeyString(b *Bucket) string {
	return fmt.Sprintf("bucket[%s/%d]", b.Partition, b.ID)
}
