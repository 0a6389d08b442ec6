package config

import (
	"strings"
	"testing"
	"time"

	"github.com/openpbs/pbssched/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedConfigCoversCoreDirectives(t *testing.T) {
	src := `
# comment lines and blanks are ignored

round_robin false all
by_queue true
strict_ordering true
fair_share true
help_starving_jobs true
max_starve 24:00:00
backfill true
backfill_prime false
backfill_depth 50
prime_spill 00:30:00
dedicated_prefix ded
preemptive_sched true
preempt_prio "express_queue, normal_jobs, starving_jobs"
preempt_order "SCR R"
preempt_queue_prio 150
job_sort_key "ncpus HIGH"
node_sort_key "ncpus DESC avail"
node_group_key "vnode_group"
provision_policy aggressive
fairshare_usage_res ncpus
fairshare_entity euser
fairshare_decay_factor 0.5
fairshare_decay_time 24:00:00
unknown_shares 10
per_share_topjobs 2
per_queues_topjobs 3
only_explicit_psets true
do_not_span_psets false
dedicated_time_file /var/spool/pbs/sched_priv/dedicated_time
holidays_file /var/spool/pbs/sched_priv/holidays
resource_group_file /var/spool/pbs/sched_priv/resource_group
usage_file /var/spool/pbs/sched_priv/usage
server_dyn_res "mem !/usr/local/sbin/dynmem"
peer_queue "workq@otherhost:remoteq"
smp_cluster_dist pack
log_filter 0x0
`
	cfg, err := ParseSchedConfig(strings.NewReader(src))
	require.NoError(t, err)

	p := cfg.Policy
	assert.False(t, p.RoundRobin)
	assert.Equal(t, "all", p.RoundRobinPrime)
	assert.True(t, p.ByQueue)
	assert.True(t, p.StrictOrdering)
	assert.True(t, p.FairShare)
	assert.True(t, p.HelpStarvingJobs)
	assert.Equal(t, 24*time.Hour, p.MaxStarve)
	assert.True(t, p.Backfill)
	assert.False(t, p.BackfillPrime)
	assert.Equal(t, 50, p.BackfillDepth)
	assert.Equal(t, 30*time.Minute, p.PrimeSpill)
	assert.Equal(t, "ded", p.DedicatedPrefix)
	assert.True(t, p.PreemptiveSched)
	require.Len(t, p.PreemptPrio, 3)
	assert.Equal(t, "express_queue", p.PreemptPrio[0].Name)
	assert.Equal(t, []types.PreemptMethod{types.PreemptSuspend, types.PreemptCheckpoint, types.PreemptRequeue, types.PreemptRequeue}, p.PreemptOrder)
	assert.Equal(t, 150, p.PreemptQueuePrio)
	require.Len(t, p.JobSortKeys, 1)
	assert.Equal(t, "ncpus", p.JobSortKeys[0].ResName)
	assert.True(t, p.JobSortKeys[0].Descending)
	require.Len(t, p.NodeSortKeys, 1)
	assert.Equal(t, "avail", p.NodeSortKeys[0].Basis)
	assert.True(t, p.NodeSortKeys[0].Descending)
	assert.Equal(t, "vnode_group", p.NodeGroupKey)
	assert.Equal(t, "aggressive", p.ProvisionPolicy)
	assert.Equal(t, "ncpus", p.FairshareUsageRes)
	assert.Equal(t, "euser", p.FairshareEntity)
	assert.InDelta(t, 0.5, p.FairshareDecayFactor, 1e-9)
	assert.Equal(t, 24*time.Hour, p.FairshareDecayTime)
	assert.Equal(t, 10, p.UnknownShares)
	assert.Equal(t, 2, p.PerShareTopjobs)
	assert.Equal(t, 3, p.PerQueuesTopjobs)
	assert.True(t, p.OnlyExplicitPSets)
	assert.False(t, p.DoNotSpanPSets)

	assert.Equal(t, "/var/spool/pbs/sched_priv/dedicated_time", cfg.DedicatedTimeFile)
	assert.Equal(t, "/var/spool/pbs/sched_priv/holidays", cfg.HolidaysFile)
	assert.Equal(t, "/var/spool/pbs/sched_priv/resource_group", cfg.ResourceGroupFile)
	assert.Equal(t, "/var/spool/pbs/sched_priv/usage", cfg.UsageFile)
	require.Len(t, cfg.ServerDynRes, 1)
	assert.Equal(t, "mem !/usr/local/sbin/dynmem", cfg.ServerDynRes[0])
	require.Len(t, cfg.PeerQueues, 1)
	assert.Equal(t, "pack", cfg.SMPClusterDist)
	assert.Equal(t, "0x0", cfg.LogFilter)
}

func TestParseSchedConfigIgnoresUnknownDirective(t *testing.T) {
	cfg, err := ParseSchedConfig(strings.NewReader("some_future_directive true\nby_queue true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Policy.ByQueue)
}

func TestParseSortKeySpecial(t *testing.T) {
	k, err := ParseSortKey("fair_share_perc HIGH", false)
	require.NoError(t, err)
	assert.Equal(t, "fair_share_perc", k.Special)
	assert.True(t, k.Descending)
}

func TestParseHolidaysWeekdayDefaultAndHoliday(t *testing.T) {
	src := `HOLIDAYFILE_VERSION1
YEAR 2026
weekday 0600 1800
saturday none none
sunday none none
001
`
	pt, err := ParseHolidays(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 2026, pt.Year)

	tuesdayPrime := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)
	assert.True(t, pt.IsPrime(tuesdayPrime))

	tuesdayNight := time.Date(2026, 1, 6, 20, 0, 0, 0, time.UTC)
	assert.False(t, pt.IsPrime(tuesdayNight))

	saturday := time.Date(2026, 1, 3, 8, 0, 0, 0, time.UTC)
	assert.False(t, pt.IsPrime(saturday))

	newYears := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	assert.False(t, pt.IsPrime(newYears), "julian day 001 is a holiday and must never be prime")
}

func TestParseHolidaysNextBoundary(t *testing.T) {
	src := `HOLIDAYFILE_VERSION1
YEAR 2026
weekday 0600 1800
saturday none none
sunday none none
`
	pt, err := ParseHolidays(strings.NewReader(src))
	require.NoError(t, err)

	morning := time.Date(2026, 1, 6, 5, 0, 0, 0, time.UTC)
	next, ok := pt.NextBoundary(morning)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 6, 6, 0, 0, 0, time.UTC), next)
}

func TestParseDedicatedTime(t *testing.T) {
	src := "01/01/2026 00:00 01/02/2026 06:00\n"
	windows, err := ParseDedicatedTime(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 2026, windows[0].Start.Year())
	assert.True(t, windows[0].End.After(windows[0].Start))
}

func TestParseDedicatedTimeRejectsBackwardsWindow(t *testing.T) {
	src := "01/02/2026 06:00 01/01/2026 00:00\n"
	_, err := ParseDedicatedTime(strings.NewReader(src))
	assert.Error(t, err)
}

func TestParseResourceGroupDelegatesToFairshare(t *testing.T) {
	src := "grp1 root 10\ngrp2 root 20\n"
	tree, err := ParseResourceGroup(strings.NewReader(src))
	require.NoError(t, err)
	require.NotNil(t, tree)
}

func TestDaemonConfigDefaultsAndValidate(t *testing.T) {
	cfg, err := LoadDaemonConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":15050", cfg.ListenAddr)
}

func TestDaemonConfigYAMLOverridesDefaults(t *testing.T) {
	src := `
listen_addr: ":9999"
cycle_interval: 5s
worker_pool_size: 8
`
	cfg, err := LoadDaemonConfig(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.CycleInterval)
	assert.Equal(t, 8, cfg.WorkerPoolSize)
	require.NoError(t, cfg.Validate())
}

func TestDaemonConfigValidateRejectsZeroWorkerPool(t *testing.T) {
	cfg := NewDefaultDaemonConfig()
	cfg.WorkerPoolSize = 0
	assert.Error(t, cfg.Validate())
}
