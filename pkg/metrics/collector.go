package metrics

import (
	"github.com/openpbs/pbssched/pkg/cycle"
	"github.com/openpbs/pbssched/pkg/fairshare"
	"github.com/openpbs/pbssched/pkg/types"
)

// Collector updates the Prometheus gauges and counters from the result
// of one scheduling cycle. Unlike a ticker-polled collector against a
// long-lived store, a cycle is the event that produces new state here,
// so RecordCycle is called once per cycle rather than on a timer.
type Collector struct{}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordCycle updates every gauge/counter from server's post-cycle
// state and out's decisions, then observes elapsed against the cycle
// duration histogram.
func (c *Collector) RecordCycle(server *types.Server, out *cycle.Output, timer *Timer) {
	CyclesTotal.Inc()
	if timer != nil {
		timer.ObserveDuration(CycleDuration)
	}

	c.collectNodeMetrics(server)
	c.collectQueueMetrics(server)
	c.collectCalendarMetrics(out)
	c.collectDecisionMetrics(out)
	c.collectFairshareMetrics(out)
}

func (c *Collector) collectNodeMetrics(server *types.Server) {
	counts := map[string]int{"free": 0, "offline": 0, "down": 0, "busy": 0}
	for _, n := range server.Nodes {
		switch {
		case n.State.Has(types.NodeDown):
			counts["down"]++
		case n.State.Has(types.NodeOffline):
			counts["offline"]++
		case n.State.Has(types.NodeFree):
			counts["free"]++
		default:
			counts["busy"]++
		}
	}
	for state, count := range counts {
		NodesTotal.WithLabelValues(state).Set(float64(count))
	}
}

func (c *Collector) collectQueueMetrics(server *types.Server) {
	queued := make(map[string]int)
	running := 0
	for _, r := range server.Resvs {
		if r.IsResv {
			continue
		}
		switch r.State {
		case types.StateQueued:
			name := "default"
			if r.Queue != nil {
				name = r.Queue.Name
			}
			queued[name]++
		case types.StateRunning:
			running++
		}
	}
	for name, count := range queued {
		QueuedJobsTotal.WithLabelValues(name).Set(float64(count))
	}
	RunningJobsTotal.Set(float64(running))
}

func (c *Collector) collectCalendarMetrics(out *cycle.Output) {
	if out == nil || out.Calendar == nil {
		CalendarEventsTotal.Set(0)
		return
	}
	CalendarEventsTotal.Set(float64(len(out.Calendar.Events)))
}

func (c *Collector) collectDecisionMetrics(out *cycle.Output) {
	if out == nil {
		return
	}
	for _, d := range out.Decisions {
		DecisionsTotal.WithLabelValues(d.Outcome.String()).Inc()
		switch d.Outcome {
		case cycle.OutcomeBackfilled:
			BackfillAdmissionsTotal.WithLabelValues(d.BackfillReason.String()).Inc()
		case cycle.OutcomePreempted:
			PreemptionsTotal.WithLabelValues(string(d.PreemptMethod)).Inc()
		}
	}
}

func (c *Collector) collectFairshareMetrics(out *cycle.Output) {
	if out == nil || out.FairshareTree == nil || out.FairshareTree.Root == nil {
		return
	}
	walkFairshareTree(out.FairshareTree.Root)
}

// walkFairshareTree sets the usage/tree-percentage gauges for every
// node in the tree, recursing into children.
func walkFairshareTree(n *fairshare.Node) {
	FairshareUsage.WithLabelValues(n.Name).Set(n.Usage)
	FairshareTreePercentage.WithLabelValues(n.Name).Set(n.TreePercentage)
	for _, child := range n.Children {
		walkFairshareTree(child)
	}
}
