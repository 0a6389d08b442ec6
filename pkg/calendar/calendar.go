package calendar

import (
	"sort"
	"time"

	"github.com/openpbs/pbssched/pkg/types"
)

// Calendar is a time-ordered list of future events plus the bookkeeping
// needed to keep a ResourceResv's RunEventIdx/EndEventIdx and a Node's
// NodeEvents in sync with it across inserts.
type Calendar struct {
	Events []*Event

	runOwner  map[*types.ResourceResv]*Event
	endOwner  map[*types.ResourceResv]*Event
	nodeOwner map[*types.Node][]*Event

	insertedBoundaries map[time.Time]bool
}

// New returns an empty calendar.
func New() *Calendar {
	return &Calendar{
		runOwner:           map[*types.ResourceResv]*Event{},
		endOwner:           map[*types.ResourceResv]*Event{},
		nodeOwner:          map[*types.Node][]*Event{},
		insertedBoundaries: map[time.Time]bool{},
	}
}

func (c *Calendar) addRunEnd(r *types.ResourceResv, runTime, endTime time.Time) {
	run := &Event{Time: runTime, Kind: KindRun, Resv: r}
	end := &Event{Time: endTime, Kind: KindEnd, Resv: r}
	c.Events = append(c.Events, run, end)
	c.runOwner[r] = run
	c.endOwner[r] = end
}

func (c *Calendar) addEnd(r *types.ResourceResv, endTime time.Time) {
	end := &Event{Time: endTime, Kind: KindEnd, Resv: r}
	c.Events = append(c.Events, end)
	c.endOwner[r] = end
}

func (c *Calendar) addNodeUp(n *types.Node, t time.Time) {
	e := &Event{Time: t, Kind: KindNodeUp, Node: n}
	c.Events = append(c.Events, e)
	c.nodeOwner[n] = append(c.nodeOwner[n], e)
}

func (c *Calendar) addPlain(k Kind, t time.Time) {
	c.Events = append(c.Events, &Event{Time: t, Kind: k})
}

func (c *Calendar) sort() {
	sort.SliceStable(c.Events, func(i, j int) bool {
		ti, tj := c.Events[i].Time, c.Events[j].Time
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return kindOrder(c.Events[i].Kind) < kindOrder(c.Events[j].Kind)
	})
}

// Reindex sorts the event list and writes the resulting positions back
// onto every owning Resv/Node, matching run_event_idx/end_event_idx/
// node_events. Simulation itself does not depend on these indices
// staying stable across a Reindex; they exist for external callers that
// introspect or display the calendar.
func (c *Calendar) Reindex() {
	c.sort()
	index := make(map[*Event]int, len(c.Events))
	for i, e := range c.Events {
		index[e] = i
	}
	for r, e := range c.runOwner {
		r.RunEventIdx = index[e]
	}
	for r, e := range c.endOwner {
		r.EndEventIdx = index[e]
	}
	for n, es := range c.nodeOwner {
		n.NodeEvents = n.NodeEvents[:0]
		for _, e := range es {
			n.NodeEvents = append(n.NodeEvents, index[e])
		}
	}
}

// nextUnconsumed returns the earliest event not yet applied, or nil when
// the calendar has been fully simulated.
func (c *Calendar) nextUnconsumed() *Event {
	for _, e := range c.Events {
		if !e.consumed {
			return e
		}
	}
	return nil
}

// Rebind rewrites a calendar built against origServer's nodes/resvs so
// it instead points at cloneServer's, matched up by rank. Used by
// CalcRunTime so a speculative simulation never mutates the events
// belonging to the real server's calendar.
func (c *Calendar) Rebind(cloneServer *types.Server) *Calendar {
	resvByRank := make(map[int]*types.ResourceResv, len(cloneServer.Resvs))
	for _, r := range cloneServer.Resvs {
		resvByRank[r.Rank] = r
	}
	nodeByRank := make(map[int]*types.Node, len(cloneServer.Nodes))
	for _, n := range cloneServer.Nodes {
		nodeByRank[n.Rank] = n
	}

	out := New()
	for _, e := range c.Events {
		ne := &Event{Time: e.Time, Kind: e.Kind}
		if e.Resv != nil {
			ne.Resv = resvByRank[e.Resv.Rank]
		}
		if e.Node != nil {
			ne.Node = nodeByRank[e.Node.Rank]
		}
		out.Events = append(out.Events, ne)
		if ne.Resv != nil {
			switch e.Kind {
			case KindRun:
				out.runOwner[ne.Resv] = ne
			case KindEnd:
				out.endOwner[ne.Resv] = ne
			}
		}
		if ne.Node != nil && e.Kind == KindNodeUp {
			out.nodeOwner[ne.Node] = append(out.nodeOwner[ne.Node], ne)
		}
	}
	out.Reindex()
	return out
}
