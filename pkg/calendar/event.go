package calendar

import (
	"time"

	"github.com/openpbs/pbssched/pkg/types"
)

// Kind distinguishes what a calendar Event does when it fires.
type Kind int

const (
	KindRun Kind = iota
	KindEnd
	KindNodeUp
	KindDedTimeStart
	KindDedTimeEnd
	KindPolicyChange
)

func (k Kind) String() string {
	switch k {
	case KindRun:
		return "run"
	case KindEnd:
		return "end"
	case KindNodeUp:
		return "node_up"
	case KindDedTimeStart:
		return "ded_time_start"
	case KindDedTimeEnd:
		return "ded_time_end"
	case KindPolicyChange:
		return "policy_change"
	default:
		return "unknown"
	}
}

// Event is one instant the simulator stops at. Resv is set for
// run/end events, Node for node_up events; the boundary kinds carry
// neither.
type Event struct {
	Time time.Time
	Kind Kind
	Resv *types.ResourceResv
	Node *types.Node

	consumed bool
}

// kindOrder ranks events sharing one timestamp: end events fire first so
// a job ending at the same instant another starts releases its nodes
// before the new job claims any, boundary and wake events come next, and
// run events fire last.
func kindOrder(k Kind) int {
	switch k {
	case KindEnd:
		return 0
	case KindDedTimeStart, KindDedTimeEnd, KindPolicyChange, KindNodeUp:
		return 1
	case KindRun:
		return 2
	default:
		return 1
	}
}
