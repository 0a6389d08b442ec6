package fairshare

// DecayTree scales every node's usage by factor, the periodic aging step
// that keeps fairshare responsive to recent behaviour rather than a
// lifetime total. factor is expected in [0, 1]; values outside that
// range are applied as-is (the caller validated config at load time).
func DecayTree(root *Node, factor float64) {
	var rec func(*Node)
	rec = func(n *Node) {
		n.Usage *= factor
		n.TempUsage = n.Usage
		for _, c := range n.Children {
			rec(c)
		}
	}
	rec(root)
}

// ChargeUsage adds delta to entity's usage and every ancestor's usage up
// to the root, since a group's usage is the sum of its descendants'.
func ChargeUsage(entity *Node, delta float64) {
	for n := entity; n != nil; n = n.Parent {
		n.Usage += delta
		n.TempUsage += delta
	}
}

// ResetUsage zeroes usage through the whole subtree rooted at node,
// matching pbsfs -s when an operator resets an entity to a clean slate.
func ResetUsage(node *Node) {
	var rec func(*Node)
	rec = func(n *Node) {
		n.Usage = 0
		n.TempUsage = 0
		for _, c := range n.Children {
			rec(c)
		}
	}
	rec(node)
}

// CalcUsageFactor derives each node's UsageFactor as its share of total
// usage recorded across the whole tree, a diagnostic figure surfaced by
// pbsfs -g rather than one consumed by scheduling itself.
func CalcUsageFactor(t *Tree) {
	total := t.Root.Usage
	t.Walk(func(n *Node) {
		if total <= 0 {
			n.UsageFactor = 0
			return
		}
		n.UsageFactor = n.Usage / total
	})
}
