package preempt

import (
	"sort"

	"github.com/openpbs/pbssched/pkg/types"
)

// CmpPriorityAsc orders by preempt priority ascending: a job in a lower
// priority class is a preferred target over one in a higher class.
func CmpPriorityAsc(a, b *types.ResourceResv) int {
	return a.PreemptPriority - b.PreemptPriority
}

// CmpStimeAsc orders by start time ascending: among equal-class
// candidates, the oldest running job is preempted first.
func CmpStimeAsc(a, b *types.ResourceResv) int {
	switch {
	case a.Start.Before(b.Start):
		return -1
	case b.Start.Before(a.Start):
		return 1
	default:
		return 0
	}
}

// SortCandidates orders cands in place by CmpPriorityAsc then
// CmpStimeAsc, the order candidates are offered up for preemption.
func SortCandidates(cands []*types.ResourceResv) {
	sort.SliceStable(cands, func(i, j int) bool {
		if c := CmpPriorityAsc(cands[i], cands[j]); c != 0 {
			return c < 0
		}
		return CmpStimeAsc(cands[i], cands[j]) < 0
	})
}
