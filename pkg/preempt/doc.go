// Package preempt picks a set of running, lower-priority-class jobs
// whose termination would free enough resources for a blocked
// high-priority job, and the configured method (suspend, checkpoint,
// requeue, delete) to carry it out.
//
// Candidates are tried in priority order — lowest preempt priority
// first, oldest start time breaking ties — simulating each one's end on
// a throwaway clone of the universe until the blocked job's select
// request fits. The set is that greedy prefix of the order: no candidate
// is dropped afterwards, so the set is not necessarily the smallest one
// that would make the job fit. The method itself is a policy choice, not something
// Select has to discover: it does not change which jobs are chosen, only
// what the scheduler asks the server to do to them.
package preempt
