// Package mtpool is the bounded worker pool that accelerates the
// handful of embarrassingly parallel, commutative operations a cycle
// performs on disjoint shards of its input: duplicating the node array,
// filtering nodes for eligibility against one chunk request, duplicating
// the resv/job array, and building the job array out of wire-level
// records. Every other part of a cycle runs single-threaded, owning the
// universe exclusively.
//
// Run spins up one goroutine per configured worker, but no more than
// there are chunks, splits the input into disjoint chunks sized between
// ChunkMin and ChunkMax (the last chunk may be smaller), and merges
// results as they complete without preserving submission order — callers
// must only ever use Run for work where shard order doesn't matter.
package mtpool
