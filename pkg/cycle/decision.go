package cycle

import (
	"time"

	"github.com/openpbs/pbssched/pkg/backfill"
	"github.com/openpbs/pbssched/pkg/calendar"
	"github.com/openpbs/pbssched/pkg/fairshare"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/schderr"
	"github.com/openpbs/pbssched/pkg/types"
)

// Outcome is what the cycle decided for one candidate.
type Outcome int

const (
	OutcomeRun Outcome = iota
	OutcomeBackfilled
	OutcomePreempted
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRun:
		return "run"
	case OutcomeBackfilled:
		return "backfilled"
	case OutcomePreempted:
		return "preempted"
	default:
		return "rejected"
	}
}

// Decision records what the cycle did with one candidate job.
type Decision struct {
	Job       *types.ResourceResv
	Outcome   Outcome
	NSpecs    []types.NSpec
	StartTime time.Time

	// BackfillReason is set when Outcome is OutcomeBackfilled.
	BackfillReason backfill.Reason

	// PreemptTargets/PreemptMethod are set when Outcome is
	// OutcomePreempted. The targets are not terminated by this package —
	// the scheduler core decides, the server executes.
	PreemptTargets []*types.ResourceResv
	PreemptMethod  types.PreemptMethod

	// Err explains a rejection (Outcome == OutcomeRejected); it is nil
	// for every other outcome.
	Err *schderr.SchedError
}

// Input bundles one cycle's snapshot, policy context, and optional
// collaborators. Server.Policy governs the run; Registry must be the
// same registry every resource value in Server was built against.
type Input struct {
	Registry *resource.Registry
	Server   *types.Server

	// FairshareTree is nil when fair_share is disabled or no tree was
	// loaded; fairshare ordering, admission quotas, and usage charging
	// are all skipped in that case.
	FairshareTree *fairshare.Tree

	// PrimeTable and DedTimes drive the calendar's prime/non-prime and
	// dedicated-time events; both may be left zero-valued when neither
	// concept is configured.
	PrimeTable calendar.PrimeTableFunc
	DedTimes   []calendar.DedTimeWindow
	WakeFn     calendar.WakeTimeFunc

	// LicensesAvailable reports whether a job's license demand can be
	// met; nil means no license subsystem is wired and the check always
	// passes.
	LicensesAvailable func(*types.ResourceResv) bool

	// MaxCandidates bounds how many queued jobs one cycle considers,
	// the "loop until cycle quota exhausted" stop condition. Zero means
	// unlimited.
	MaxCandidates int

	// ReturnAllErr mirrors sched_config's RETURN_ALL_ERR for every
	// candidate's is_ok_to_run evaluation.
	ReturnAllErr bool
}

// Output is everything a cycle produced: the ordered decisions, the
// calendar those decisions grew (including the real run/end events
// inserted by any backfill admission), and the fairshare tree with this
// cycle's usage charges applied (the same pointer as Input.FairshareTree,
// returned for convenience).
type Output struct {
	Decisions     []Decision
	Calendar      *calendar.Calendar
	FairshareTree *fairshare.Tree
}
