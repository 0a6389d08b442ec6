package fairshare

// epsilon bounds the floating-point slack tolerated when comparing
// usage ratios, so fairshare comparisons are deterministic across
// platforms instead of chasing exact equality on a computed float.
const epsilon = 1e-9

// Path is an entity's fairshare path: ancestors from the root (index 0)
// down to the leaf (last index).
type Path []*Node

// CreatePath builds the root-to-leaf path for leaf.
func CreatePath(leaf *Node) Path {
	var rev Path
	for n := leaf; n != nil; n = n.Parent {
		rev = append(rev, n)
	}
	path := make(Path, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}

// usageRatio is the value compare_path orders on: usage relative to the
// share of the machine a node's tree position entitles it to. A node
// with TreePercentage 0 (freshly added, not yet normalised) is treated
// as maximally deserving of running next, to avoid a divide-by-zero
// starving a brand-new entity.
func usageRatio(n *Node) float64 {
	if n.TreePercentage <= 0 {
		return 0
	}
	return n.TempUsage / n.TreePercentage
}

// ComparePath walks p1 and p2 from the root down; at the first level
// where the two paths name different nodes, the node with the lower
// usage ratio is more deserving. Returns -1 if p1 is more deserving, 1
// if p2 is, 0 if the paths are indistinguishable down to their shorter
// length.
func ComparePath(p1, p2 Path) int {
	n := len(p1)
	if len(p2) < n {
		n = len(p2)
	}
	for i := 0; i < n; i++ {
		if p1[i] == p2[i] {
			continue
		}
		r1, r2 := usageRatio(p1[i]), usageRatio(p2[i])
		switch {
		case r1 < r2-epsilon:
			return -1
		case r2 < r1-epsilon:
			return 1
		default:
			// Equal within epsilon: fall back to name order for a stable
			// tiebreaker rather than declaring the whole comparison equal.
			if p1[i].Name < p2[i].Name {
				return -1
			}
			if p1[i].Name > p2[i].Name {
				return 1
			}
		}
	}
	return 0
}

// OverFairshareUsage reports whether n has consumed more than its strict
// percentage of the total usage recorded at the tree root.
func OverFairshareUsage(n *Node, root *Node) bool {
	if root.Usage <= 0 {
		return false
	}
	return n.Usage/root.Usage > n.TreePercentage+epsilon
}
