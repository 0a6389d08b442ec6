// Package placement resolves a job or reservation's select/place request
// into a concrete node allocation: an ordered list of NSpec entries, one
// per node chosen (possibly several per node for a chunk count greater
// than one per host).
//
// Two algorithms compete for the same job: the bucket fast path groups
// nodes by identical resource signature and walks bitmaps rather than
// node objects, while the general path sorts and carves individual nodes
// within a placement set. Allocate picks whichever applies and commits
// the winning nspecs' resource consumption onto the real node objects.
package placement
