package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/openpbs/pbssched/pkg/types"
)

// SchedConfig is everything sched_config carries: the cycle policy
// itself, plus the file paths and server-level settings the daemon
// needs to locate companion config (holidays, dedicated time, resource
// groups, usage) and wire auxiliary features the policy doesn't model
// directly.
type SchedConfig struct {
	Policy *types.Policy

	DedicatedTimeFile  string
	HolidaysFile       string
	ResourceGroupFile  string
	UsageFile          string
	ServerDynRes       []string
	PeerQueues         []string
	SMPClusterDist     string
	LogFilter          string
}

// ParseSchedConfig reads sched_config's "name value..." line format:
// blank lines and "#" comments are ignored, the first whitespace-
// delimited token is the directive name, and the rest of the line is
// its arguments with double-quoted spans kept intact as one token.
func ParseSchedConfig(r io.Reader) (*SchedConfig, error) {
	cfg := &SchedConfig{Policy: &types.Policy{}}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitDirective(line)
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]
		if err := applyDirective(cfg, name, args); err != nil {
			return nil, fmt.Errorf("sched_config line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitDirective tokenizes one line on whitespace, treating a
// double-quoted span (e.g. preempt_order's "SCR R") as a single token
// with the quotes stripped.
func splitDirective(line string) []string {
	var out []string
	var b strings.Builder
	inQuotes := false
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' || r == '\t':
			if inQuotes {
				b.WriteRune(r)
			} else {
				flush()
			}
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

func applyDirective(cfg *SchedConfig, name string, args []string) error {
	p := cfg.Policy
	switch name {
	case "round_robin":
		p.RoundRobin = boolArg(args, 0, false)
		if len(args) > 1 {
			p.RoundRobinPrime = args[1]
		}
	case "by_queue":
		p.ByQueue = boolArg(args, 0, true)
	case "strict_ordering":
		p.StrictOrdering = boolArg(args, 0, true)
	case "strict_fifo":
		p.StrictFIFO = boolArg(args, 0, true)
	case "fair_share":
		p.FairShare = boolArg(args, 0, true)
	case "help_starving_jobs":
		p.HelpStarvingJobs = boolArg(args, 0, true)
	case "max_starve":
		d, err := durationArg(args, 0)
		if err != nil {
			return err
		}
		p.MaxStarve = d
	case "backfill":
		p.Backfill = boolArg(args, 0, true)
	case "backfill_prime":
		p.BackfillPrime = boolArg(args, 0, true)
	case "backfill_depth":
		n, err := intArg(args, 0)
		if err != nil {
			return err
		}
		p.BackfillDepth = n
	case "prime_spill":
		d, err := durationArg(args, 0)
		if err != nil {
			return err
		}
		p.PrimeSpill = d
	case "dedicated_prefix":
		p.DedicatedPrefix = stringArg(args, 0)
	case "preemptive_sched":
		p.PreemptiveSched = boolArg(args, 0, true)
	case "preempt_prio":
		levels, err := parsePreemptPrio(stringArg(args, 0))
		if err != nil {
			return err
		}
		p.PreemptPrio = levels
	case "preempt_order":
		p.PreemptOrder = parsePreemptOrder(stringArg(args, 0))
	case "preempt_queue_prio":
		n, err := intArg(args, 0)
		if err != nil {
			return err
		}
		p.PreemptQueuePrio = n
	case "preempt_sort":
		p.PreemptSort = stringArg(args, 0)
	case "job_sort_key":
		k, err := ParseSortKey(strings.Join(args, " "), false)
		if err != nil {
			return err
		}
		p.JobSortKeys = append(p.JobSortKeys, k)
	case "node_sort_key":
		k, err := ParseSortKey(strings.Join(args, " "), true)
		if err != nil {
			return err
		}
		p.NodeSortKeys = append(p.NodeSortKeys, k)
	case "node_group_key":
		p.NodeGroupKey = stringArg(args, 0)
	case "provision_policy":
		p.ProvisionPolicy = stringArg(args, 0)
	case "fairshare_usage_res":
		p.FairshareUsageRes = stringArg(args, 0)
	case "fairshare_entity":
		p.FairshareEntity = stringArg(args, 0)
	case "fairshare_decay_factor":
		f, err := floatArg(args, 0)
		if err != nil {
			return err
		}
		p.FairshareDecayFactor = f
	case "fairshare_decay_time":
		d, err := durationArg(args, 0)
		if err != nil {
			return err
		}
		p.FairshareDecayTime = d
	case "unknown_shares":
		n, err := intArg(args, 0)
		if err != nil {
			return err
		}
		p.UnknownShares = n
	case "per_share_topjobs":
		n, err := intArg(args, 0)
		if err != nil {
			return err
		}
		p.PerShareTopjobs = n
	case "per_queues_topjobs":
		n, err := intArg(args, 0)
		if err != nil {
			return err
		}
		p.PerQueuesTopjobs = n
	case "only_explicit_psets":
		p.OnlyExplicitPSets = boolArg(args, 0, true)
	case "do_not_span_psets":
		p.DoNotSpanPSets = boolArg(args, 0, true)
	case "dedicated_time_file":
		cfg.DedicatedTimeFile = stringArg(args, 0)
	case "holidays_file":
		cfg.HolidaysFile = stringArg(args, 0)
	case "resource_group_file":
		cfg.ResourceGroupFile = stringArg(args, 0)
	case "usage_file":
		cfg.UsageFile = stringArg(args, 0)
	case "server_dyn_res":
		cfg.ServerDynRes = append(cfg.ServerDynRes, strings.Join(args, " "))
	case "peer_queue":
		cfg.PeerQueues = append(cfg.PeerQueues, strings.Join(args, " "))
	case "smp_cluster_dist":
		cfg.SMPClusterDist = stringArg(args, 0)
	case "log_filter":
		cfg.LogFilter = stringArg(args, 0)
	default:
		// Unrecognised directives are ignored rather than rejected: a
		// sched_config written for a newer server may carry settings
		// this scheduler core simply has no behavior for yet.
	}
	return nil
}

func boolArg(args []string, i int, def bool) bool {
	if i >= len(args) {
		return def
	}
	b, err := strconv.ParseBool(args[i])
	if err != nil {
		return def
	}
	return b
}

func stringArg(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i]
}

func intArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing integer argument")
	}
	return strconv.Atoi(args[i])
}

func floatArg(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing float argument")
	}
	return strconv.ParseFloat(args[i], 64)
}

func durationArg(args []string, i int) (time.Duration, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing duration argument")
	}
	if d, err := time.ParseDuration(args[i]); err == nil {
		return d, nil
	}
	// sched_config durations are often HH:MM:SS rather than Go's
	// duration grammar.
	return parseHMS(args[i])
}

func parseHMS(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

func parsePreemptPrio(s string) ([]types.PreemptLevel, error) {
	var out []types.PreemptLevel
	for i, term := range strings.Split(s, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		out = append(out, types.PreemptLevel{Name: term, Priority: (i + 1) * 100})
	}
	return out, nil
}

func parsePreemptOrder(s string) []types.PreemptMethod {
	var out []types.PreemptMethod
	for _, field := range strings.Fields(s) {
		for _, r := range field {
			out = append(out, types.PreemptMethod(r))
		}
	}
	return out
}
