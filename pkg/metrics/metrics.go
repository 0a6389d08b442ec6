package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster snapshot metrics, refreshed once per cycle by Collector.
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pbssched_nodes_total",
			Help: "Total number of nodes by state",
		},
		[]string{"state"},
	)

	QueuedJobsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pbssched_queued_jobs_total",
			Help: "Total number of queued jobs by queue",
		},
		[]string{"queue"},
	)

	RunningJobsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pbssched_running_jobs_total",
			Help: "Total number of running jobs",
		},
	)

	CalendarEventsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pbssched_calendar_events_total",
			Help: "Total number of events in the calendar",
		},
	)

	// Cycle metrics
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pbssched_cycle_duration_seconds",
			Help:    "Time taken to run one scheduling cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pbssched_cycles_total",
			Help: "Total number of scheduling cycles completed",
		},
	)

	// Per-candidate outcome metrics
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbssched_decisions_total",
			Help: "Total number of candidate decisions by outcome",
		},
		[]string{"outcome"},
	)

	JobsRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pbssched_job_run_eval_duration_seconds",
			Help:    "Time taken to evaluate is_ok_to_run for one candidate in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BackfillAdmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbssched_backfill_admissions_total",
			Help: "Total number of jobs admitted to the calendar by backfill reason",
		},
		[]string{"reason"},
	)

	PreemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbssched_preemptions_total",
			Help: "Total number of preemption decisions by method",
		},
		[]string{"method"},
	)

	// Fairshare metrics
	FairshareUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pbssched_fairshare_usage",
			Help: "Decayed usage recorded against a fairshare entity",
		},
		[]string{"entity"},
	)

	FairshareTreePercentage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pbssched_fairshare_tree_percentage",
			Help: "Normalised share of the tree allotted to a fairshare entity",
		},
		[]string{"entity"},
	)

	// Transport metrics
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbssched_rpc_requests_total",
			Help: "Total number of transport RPCs by method and status",
		},
		[]string{"method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pbssched_rpc_request_duration_seconds",
			Help:    "Transport RPC duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(QueuedJobsTotal)
	prometheus.MustRegister(RunningJobsTotal)
	prometheus.MustRegister(CalendarEventsTotal)

	prometheus.MustRegister(CycleDuration)
	prometheus.MustRegister(CyclesTotal)
	prometheus.MustRegister(DecisionsTotal)
	prometheus.MustRegister(JobsRunDuration)
	prometheus.MustRegister(BackfillAdmissionsTotal)
	prometheus.MustRegister(PreemptionsTotal)

	prometheus.MustRegister(FairshareUsage)
	prometheus.MustRegister(FairshareTreePercentage)

	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
