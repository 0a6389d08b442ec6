// Package fairshare implements the hierarchical usage-accounting tree
// used to bias job selection toward entities that have historically
// consumed less of the machine.
//
// A Tree is loaded once per config reload from a resource-group file
// (name/parent/shares triples), decayed periodically, and persisted to a
// binary usage file between cycles. Comparisons walk two entities' root-
// to-leaf paths and prefer the one with lower usage relative to its
// allotted share at the first level where the paths diverge.
package fairshare
