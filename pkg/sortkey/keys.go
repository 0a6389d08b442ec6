package sortkey

import (
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/types"
)

// compareJobKey evaluates one sort_info entry between two candidate
// jobs, returning <0, 0, >0 with the entry's direction already applied
// (ascending is the default; Descending flips the sign).
func (c *Chain) compareJobKey(a, b *types.ResourceResv, k types.SortKey) int {
	if k.Special != "" {
		return applyDirection(c.compareJobSpecial(a, b, k.Special), k.Descending)
	}
	return applyDirection(c.compareJobResource(a, b, k), k.Descending)
}

// compareJobSpecial evaluates one of the non-resource sort keys PBS
// recognises for job_sort_key.
func (c *Chain) compareJobSpecial(a, b *types.ResourceResv, special string) int {
	switch special {
	case "job_priority", "sort_priority":
		return cmpInt(a.Priority, b.Priority)
	case "preempt_priority":
		return cmpInt(a.PreemptPriority, b.PreemptPriority)
	case "fair_share_perc":
		// Resolved via the fairshare overlay, not a per-key comparison;
		// treated as a no-op here so the overlay (run unconditionally
		// when FairShare is set) is the single source of truth.
		return 0
	case "last_used_time":
		switch {
		case a.SubmitTime.Before(b.SubmitTime):
			return -1
		case a.SubmitTime.After(b.SubmitTime):
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// compareJobResource compares the two jobs' top-level resource request
// for the named resource (e.g. job_sort_key "ncpus DESC").
func (c *Chain) compareJobResource(a, b *types.ResourceResv, k types.SortKey) int {
	def, ok := c.Registry.Lookup(k.ResName)
	if !ok {
		return 0
	}
	va := jobResourceValue(a, def)
	vb := jobResourceValue(b, def)
	return cmpResult(resource.Compare(va, vb))
}

func jobResourceValue(r *types.ResourceResv, def *resource.Def) resource.Value {
	if r.ResReq == nil {
		return resource.Unset(def)
	}
	e, ok := r.ResReq.Get(def)
	if !ok {
		return resource.Unset(def)
	}
	return e.EffectiveAvailable()
}

// compareNodeKey evaluates one node_sort_key entry between two nodes.
func (c *Chain) compareNodeKey(a, b *types.Node, k types.SortKey) int {
	def, ok := c.Registry.Lookup(k.ResName)
	if !ok {
		return 0
	}
	va := nodeResourceValue(a, def, k.Basis)
	vb := nodeResourceValue(b, def, k.Basis)
	return applyDirection(cmpResult(resource.Compare(va, vb)), k.Descending)
}

// nodeResourceValue resolves which side of a node's resource entry a
// node_sort_key basis of "avail", "assigned", or "unused" refers to.
func nodeResourceValue(n *types.Node, def *resource.Def, basis string) resource.Value {
	e, ok := n.Res.Get(def)
	if !ok {
		return resource.Unset(def)
	}
	switch basis {
	case "assigned":
		return e.Assigned
	case "unused":
		v, err := resource.Subtract(def, e.EffectiveAvailable(), e.Assigned)
		if err != nil {
			return e.EffectiveAvailable()
		}
		return v
	default: // "avail", or unset
		return e.EffectiveAvailable()
	}
}

func cmpResult(r resource.CmpResult) int {
	switch r {
	case resource.CmpLess:
		return -1
	case resource.CmpGreater:
		return 1
	default:
		return 0
	}
}
