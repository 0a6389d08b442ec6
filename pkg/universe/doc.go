// Package universe owns the scheduler's entity arena and the structures
// built over it for fast placement: placement sets (node_partition),
// node buckets with their three-pool bitmaps, and the clone operation used
// for "what-if" simulation.
//
// Cyclic references (node <-> queue <-> server) are plain pointers; Clone
// copies the entity arrays and re-points them through rank-keyed lookup
// tables, so a clone is a cheap copy-then-reindex rather than a recursive
// graph walk.
package universe
