package backfill

import (
	"time"

	"github.com/openpbs/pbssched/pkg/calendar"
	"github.com/openpbs/pbssched/pkg/fairshare"
	"github.com/openpbs/pbssched/pkg/placement"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/sortkey"
	"github.com/openpbs/pbssched/pkg/types"
	"github.com/openpbs/pbssched/pkg/universe"
)

// Request bundles one candidate's failed is_ok_to_run result with the
// fairshare context needed to evaluate the admission quotas.
type Request struct {
	Job   *types.ResourceResv
	Chain *schderr.Chain

	// FairshareEntity/FairshareRoot are nil when fairshare is disabled
	// or the job's entity could not be resolved in the tree.
	FairshareEntity *fairshare.Node
	FairshareRoot   *fairshare.Node
}

// Admitter wires one cycle's quota pools to the node-allocation and
// calendar machinery Admit needs to actually reserve a future slot.
type Admitter struct {
	Quotas     *Quotas
	Registry   *resource.Registry
	SortChain  *sortkey.Chain
	Partitions map[string]*universe.Partition
	PlaceOpts  placement.Options
	PrimeTable calendar.PrimeTableFunc
}

// Admit decides whether req.Job should be calendared for a future start
// and, if so, runs calc_run_time and commits the result onto server and
// cal. It returns the quota that admitted the job (ReasonNone if it was
// rejected outright), the simulated start time on success, and the
// resulting allocation.
func (a *Admitter) Admit(server *types.Server, cal *calendar.Calendar, req Request) (Reason, time.Time, []types.NSpec, *schderr.SchedError) {
	if req.Chain != nil {
		if e := req.Chain.FirstNeverRun(); e != nil {
			return ReasonNone, time.Time{}, nil, e
		}
		for _, e := range req.Chain.Errors {
			if NeverBackfill(e.Code) {
				return ReasonNone, time.Time{}, nil, e
			}
		}
	}

	var queueName string
	if req.Job.Queue != nil {
		queueName = req.Job.Queue.Name
	}
	reason, ok := a.Quotas.TryAdmit(queueName, req.FairshareEntity, req.FairshareRoot)
	if !ok {
		return ReasonNone, time.Time{}, nil, schderr.New(schderr.StatusNotRun, schderr.CodeBackfillConflict,
			"no backfill quota available for "+req.Job.Name)
	}

	fitTime, nspecs, err := calendar.CalcRunTime(
		a.Registry, a.SortChain, req.Job, server, cal, a.Partitions, a.PlaceOpts, a.PrimeTable,
		calendar.Flags{SimRunJob: true},
	)
	if err != nil {
		return reason, time.Time{}, nil, err
	}
	return reason, fitTime, nspecs, nil
}
