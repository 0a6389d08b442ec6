// Package sortkey implements the multi-key comparator chains the
// scheduler uses to order candidate jobs and, within a placement set,
// candidate nodes. A chain walks its configured keys in priority order;
// the first key that distinguishes two entities decides the comparison,
// falling back to a fairshare overlay and finally to a stable
// (queue rank, rank) tiebreaker so the resulting order is always a total
// order.
package sortkey
