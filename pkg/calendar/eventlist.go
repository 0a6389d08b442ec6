package calendar

import (
	"time"

	"github.com/openpbs/pbssched/pkg/types"
)

// DedTimeWindow is one dedicated-time interval as a concrete pair of
// instants, as read from one line of the dedicated-time file by the
// config layer.
type DedTimeWindow struct {
	Start, End time.Time
}

// WakeTimeFunc reports when a sleeping node is expected to wake, if
// known. A nil WakeTimeFunc (or a false second return) means no node_up
// event is scheduled for that node — the only signal currently absent
// at this layer is a concrete post-provisioning ETA from the snapshot.
type WakeTimeFunc func(n *types.Node) (time.Time, bool)

// CreateEventList seeds a fresh calendar from server's current state:
// one run+end pair per confirmed reservation, one end event per running
// job, a node_up event for every sleeping node with a known wake time,
// and a start/end pair for every dedicated-time window supplied.
func CreateEventList(server *types.Server, dedTimes []DedTimeWindow, wake WakeTimeFunc) *Calendar {
	c := New()

	for _, r := range server.ConfirmedReservations() {
		c.addRunEnd(r, r.Start, r.EndTime())
	}
	for _, r := range server.RunningJobs() {
		c.addEnd(r, r.EndTime())
	}
	if wake != nil {
		for _, n := range server.Nodes {
			if !n.State.Has(types.NodeSleeping) {
				continue
			}
			if t, ok := wake(n); ok {
				c.addNodeUp(n, t)
			}
		}
	}
	for _, w := range dedTimes {
		c.addPlain(KindDedTimeStart, w.Start)
		c.addPlain(KindDedTimeEnd, w.End)
	}

	c.Reindex()
	return c
}
