package eligibility

import (
	"time"

	"github.com/openpbs/pbssched/pkg/placement"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/sortkey"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
)

// Input bundles everything IsOkToRun needs to evaluate one candidate.
type Input struct {
	Registry *resource.Registry
	Policy   *types.Policy
	Server *types.Server
	Queue  *types.Queue
	Resv   *types.ResourceResv
	Now    time.Time

	Counts *RunningCounts

	// NextDedTimeStart and NextPrimeBoundary are the calendar's next
	// known transition instants; nil when no such event is scheduled,
	// in which case the corresponding boundary check is skipped.
	NextDedTimeStart  *time.Time
	NextPrimeBoundary *time.Time

	// PartitionNodes resolves the candidate partition's member nodes for
	// the cross-job rassn aggregate check (gate 6), ahead of the actual
	// node search in gate 7.
	PartitionNodes []*types.Node

	Partitions map[string]*universe.Partition
	NodeByRank map[int]*types.Node
	SortChain  *sortkey.Chain
	PlaceOpts  placement.Options

	// LicensesAvailable reports whether enough licenses are free for
	// resv; nil means no license subsystem is wired and the check
	// always passes.
	LicensesAvailable func(*types.ResourceResv) bool

	// ReturnAllErr mirrors sched_config's RETURN_ALL_ERR: when true,
	// every gate runs and every failure is recorded instead of stopping
	// at the first one.
	ReturnAllErr bool
}

// IsOkToRun runs the ordered eligibility gates against in.Resv. On
// success it returns the node allocation produced by gate 7 and an empty
// chain; on failure it returns a nil allocation and a chain holding at
// least one failure (every failure seen, if ReturnAllErr is set).
func IsOkToRun(in Input) ([]types.NSpec, *schderr.Chain) {
	chain := &schderr.Chain{}
	failed := false

	gate := func(e *schderr.SchedError) bool {
		if e == nil {
			return false
		}
		chain.Add(e)
		failed = true
		return !in.ReturnAllErr
	}

	if gate(checkQueueState(in.Queue, in.Policy)) {
		return nil, chain
	}
	if gate(checkDedTimeBoundary(in.Resv, in.Policy, in.Now, in.NextDedTimeStart)) {
		return nil, chain
	}
	if gate(checkPrimeBoundary(in.Resv, in.Now, in.NextPrimeBoundary, in.Policy.BackfillPrime, in.Policy.PrimeSpill)) {
		return nil, chain
	}
	if in.Counts != nil {
		if gate(in.Counts.checkQueueLimits(in.Queue, in.Resv)) {
			return nil, chain
		}
		if gate(in.Counts.checkServerLimits(in.Server, in.Resv)) {
			return nil, chain
		}
	}
	if gate(checkReservationConflict(in.Resv, in.Server, in.Now)) {
		return nil, chain
	}
	if gate(checkCrossJobRassn(in.Resv, in.PartitionNodes)) {
		return nil, chain
	}
	if gate(checkLicense(in.Resv, in.LicensesAvailable)) {
		return nil, chain
	}

	if failed && in.ReturnAllErr {
		// An earlier gate already failed and every gate has run; gate 7
		// (node allocation) is skipped since a committed placement would
		// have nothing to attach to.
		return nil, chain
	}

	nspecs, placeErr := placement.Allocate(in.Registry, in.SortChain, in.Partitions, in.NodeByRank, in.Resv, in.PlaceOpts)
	if placeErr != nil {
		chain.Add(placeErr)
		return nil, chain
	}
	return nspecs, chain
}
