package fairshare

import "sort"

// UnknownGroupName is the reserved entity name that absorbs any usage
// charged against an entity not present in the resource-group file.
const UnknownGroupName = "unknown"

// Node is one entry in the fairshare tree: either an internal group or a
// leaf entity. The root node represents the whole machine.
type Node struct {
	Name     string
	Shares   int
	Parent   *Node
	Children []*Node

	Usage          float64
	TempUsage      float64
	TreePercentage float64
	UsageFactor    float64
	TopjobCount    int
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// AddChild links child under parent, appending to parent's Children.
func AddChild(child, parent *Node) {
	child.Parent = parent
	parent.Children = append(parent.Children, child)
}

// Tree is a loaded fairshare hierarchy: a root node, the reserved
// "unknown" group, and a name index for O(1) lookup.
type Tree struct {
	Root    *Node
	Unknown *Node
	byName  map[string]*Node
}

// NewTree builds an empty tree with just the root and "unknown" group,
// mirroring the machine-wide root node every fairshare tree starts with.
func NewTree() *Tree {
	root := &Node{Name: "root", Shares: 1}
	unknown := &Node{Name: UnknownGroupName, Shares: 1}
	AddChild(unknown, root)
	t := &Tree{Root: root, Unknown: unknown, byName: map[string]*Node{
		"root":           root,
		UnknownGroupName: unknown,
	}}
	return t
}

// Find looks up a node by name.
func (t *Tree) Find(name string) (*Node, bool) {
	n, ok := t.byName[name]
	return n, ok
}

// FindOrCreate resolves name to its tree node, creating it under the
// "unknown" group with unknownShares if it is not already registered —
// the tree must never reject usage from an entity absent from the
// resource-group file.
func (t *Tree) FindOrCreate(name string, unknownShares int) *Node {
	if n, ok := t.byName[name]; ok {
		return n
	}
	n := &Node{Name: name, Shares: unknownShares}
	AddChild(n, t.Unknown)
	t.byName[name] = n
	return n
}

// AddNode registers a new node under parentName, creating it if parentName
// is not yet known (used while replaying a resource-group file where
// ordering between a line and its parent is not guaranteed).
func (t *Tree) AddNode(name, parentName string, shares int) *Node {
	if existing, ok := t.byName[name]; ok {
		existing.Shares = shares
		return existing
	}
	parent, ok := t.byName[parentName]
	if !ok {
		parent = &Node{Name: parentName}
		t.byName[parentName] = parent
		AddChild(parent, t.Root)
	}
	n := &Node{Name: name, Shares: shares}
	AddChild(n, parent)
	t.byName[name] = n
	return n
}

// CountShares sums the shares of grp's direct children (grp's own shares
// are not included), used as the divisor when normalising percentages
// at one level of the tree.
func CountShares(grp *Node) int {
	total := 0
	for _, c := range grp.Children {
		total += c.Shares
	}
	return total
}

// CalcFairSharePerc walks the tree top-down, normalising each node's
// shares against its siblings' total into a tree_percentage that
// multiplies down from the root, so a leaf's TreePercentage is its
// fraction of the whole machine (invariant: children's percentages at
// any level sum to their parent's).
func CalcFairSharePerc(root *Node, parentPct float64) {
	root.TreePercentage = parentPct
	total := CountShares(root)
	if total == 0 || len(root.Children) == 0 {
		return
	}
	for _, c := range root.Children {
		childPct := parentPct * (float64(c.Shares) / float64(total))
		CalcFairSharePerc(c, childPct)
	}
}

// Walk visits every node in the tree in a deterministic (name-sorted per
// level) pre-order, used by the usage-file writer and the pbsfs -p/-t
// printers.
func (t *Tree) Walk(fn func(*Node)) {
	var rec func(*Node)
	rec = func(n *Node) {
		fn(n)
		sorted := append([]*Node(nil), n.Children...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		for _, c := range sorted {
			rec(c)
		}
	}
	rec(t.Root)
}

// ResetTempUsage sets every node's TempUsage back to its persisted Usage,
// undoing any speculative charges applied during a cycle's simulation.
func (t *Tree) ResetTempUsage() {
	t.Walk(func(n *Node) { n.TempUsage = n.Usage })
}

// Trim removes every leaf entity not present in keep, per pbsfs -e —
// internal group nodes named in keep's ancestry are never removed even
// if they hold no matching descendants, since the tree shape itself
// comes from the resource-group file.
func (t *Tree) Trim(keep map[string]bool) {
	var prune func(n *Node) []*Node
	prune = func(n *Node) []*Node {
		var kept []*Node
		for _, c := range n.Children {
			if len(c.Children) > 0 {
				c.Children = prune(c)
				kept = append(kept, c)
				continue
			}
			if keep[c.Name] || c.Name == UnknownGroupName {
				kept = append(kept, c)
			} else {
				delete(t.byName, c.Name)
			}
		}
		return kept
	}
	t.Root.Children = prune(t.Root)
}
