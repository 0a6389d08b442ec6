/*
Package metrics provides Prometheus metrics collection and exposition for
the scheduler daemon.

The metrics package defines and registers every metric using the
Prometheus client library, giving observability into cluster snapshot
state (nodes, queued/running jobs, calendar depth), cycle throughput and
latency, per-candidate outcomes, fairshare usage, and transport RPCs.
Metrics are exposed via an HTTP endpoint for scraping.

# Metrics Catalog

Cluster snapshot (refreshed once per cycle by Collector.RecordCycle):

  - pbssched_nodes_total{state}: Gauge, node count by free/busy/offline/down.
  - pbssched_queued_jobs_total{queue}: Gauge, queued job count by queue.
  - pbssched_running_jobs_total: Gauge, running job count.
  - pbssched_calendar_events_total: Gauge, number of events in the calendar (all kinds).

Cycle:

  - pbssched_cycle_duration_seconds: Histogram, wall time of one Run call.
  - pbssched_cycles_total: Counter, cycles completed.
  - pbssched_decisions_total{outcome}: Counter, candidates by run/backfilled/preempted/rejected.
  - pbssched_backfill_admissions_total{reason}: Counter, admissions by quota pool.
  - pbssched_preemptions_total{method}: Counter, preempt decisions by S/C/R/D method.

Fairshare:

  - pbssched_fairshare_usage{entity}: Gauge, decayed usage per tree node.
  - pbssched_fairshare_tree_percentage{entity}: Gauge, normalised share per tree node.

Transport:

  - pbssched_rpc_requests_total{method,status}: Counter.
  - pbssched_rpc_request_duration_seconds{method}: Histogram.

# Usage

	timer := metrics.NewTimer()
	out := cycle.Run(in)
	collector.RecordCycle(server, out, timer)

	http.Handle("/metrics", metrics.Handler())

# Design Patterns

Metrics register in init(); MustRegister panics on a duplicate name, so
a second registration attempt fails loudly rather than silently
shadowing the first. Collector has no background ticker of its own —
RecordCycle is called once per completed cycle, the natural unit of
work this daemon produces, rather than polled against a long-lived
store on an arbitrary timer.
*/
package metrics
