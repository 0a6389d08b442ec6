package preempt

import (
	"github.com/openpbs/pbssched/pkg/placement"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/sortkey"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
)

// Decision is the result of preempting on blocked's behalf: the running
// jobs to act on, the method to apply to all of them, and the
// allocation blocked receives once they are gone.
type Decision struct {
	Targets []*types.ResourceResv
	Method  types.PreemptMethod
	NSpecs  []types.NSpec
}

// Preempt selects a target set for blocked (the greedy prefix that
// SelectCandidates returns, not necessarily the smallest) and pairs it with
// the site's configured method. It returns a SchedError, never a panic,
// when no combination of eligible running jobs frees enough resources.
func Preempt(
	reg *resource.Registry,
	chain *sortkey.Chain,
	partitions map[string]*universe.Partition,
	server *types.Server,
	policy *types.Policy,
	blocked *types.ResourceResv,
	placeOpts placement.Options,
) (*Decision, *schderr.SchedError) {
	targets, nspecs, err := SelectCandidates(reg, chain, partitions, server, blocked, placeOpts)
	if err != nil {
		return nil, err
	}
	return &Decision{
		Targets: targets,
		Method:  ChooseMethod(policy.PreemptOrder),
		NSpecs:  nspecs,
	}, nil
}
