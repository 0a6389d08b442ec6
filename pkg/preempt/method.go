package preempt

import "github.com/openpbs/pbssched/pkg/types"

// ChooseMethod returns the first method in the site's configured
// preempt_order, the method applied to every job in a selection. Order
// defaults to requeue when the site has not configured one, the
// least destructive option that still frees the job's resources.
func ChooseMethod(order []types.PreemptMethod) types.PreemptMethod {
	if len(order) == 0 {
		return types.PreemptRequeue
	}
	return order[0]
}
