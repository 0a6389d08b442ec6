package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openpbs/pbssched/pkg/calendar"
	"github.com/openpbs/pbssched/pkg/config"
	"github.com/openpbs/pbssched/pkg/cycle"
	"github.com/openpbs/pbssched/pkg/fairshare"
	"github.com/openpbs/pbssched/pkg/history"
	"github.com/openpbs/pbssched/pkg/log"
	"github.com/openpbs/pbssched/pkg/metrics"
	"github.com/openpbs/pbssched/pkg/resource"
	"github.com/openpbs/pbssched/pkg/transport"
	"github.com/openpbs/pbssched/pkg/types"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "pbsched",
	Short:   "PBS batch scheduler daemon",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("pbsched version %s (%s)\n", Version, Commit))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to the daemon's own YAML config (listen/metrics addr, file paths, cycle interval)")

	cobra.OnInitialize(initLogging)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduling loop: poll a batch-status snapshot, run one cycle, submit decisions",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("connect", "", "Batch server address to poll for snapshots (overrides config's listen_addr)")
}

// schedState is everything loaded once at startup that stays fixed
// across cycles except for the fairshare tree's usage counters, which
// this same *fairshare.Tree accumulates cycle over cycle.
type schedState struct {
	registry   *resource.Registry
	schedCfg   *config.SchedConfig
	primeTable *config.PrimeTable
	dedTimes   []calendar.DedTimeWindow
	tree       *fairshare.Tree
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.WithComponent("pbsched")

	cfgPath, _ := cmd.Flags().GetString("config")
	var daemonCfg *config.DaemonConfig
	var err error
	if cfgPath != "" {
		daemonCfg, err = config.LoadDaemonConfigFile(cfgPath)
	} else {
		daemonCfg = config.NewDefaultDaemonConfig()
	}
	if err != nil {
		return fmt.Errorf("load daemon config: %w", err)
	}
	if err := daemonCfg.Validate(); err != nil {
		return fmt.Errorf("invalid daemon config: %w", err)
	}
	if connect, _ := cmd.Flags().GetString("connect"); connect != "" {
		daemonCfg.ListenAddr = connect
	}

	state, err := loadSchedState(daemonCfg)
	if err != nil {
		return fmt.Errorf("load scheduling config: %w", err)
	}

	histStore, err := history.NewBoltStore(daemonCfg.HistoryDBPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer histStore.Close()

	client, err := transport.Dial(daemonCfg.ListenAddr, transport.WithPollRate(1, 1))
	if err != nil {
		return fmt.Errorf("dial batch server at %s: %w", daemonCfg.ListenAddr, err)
	}
	defer client.Close()

	collector := metrics.NewCollector()
	serveMetrics(daemonCfg.MetricsAddr, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(daemonCfg.CycleInterval)
	defer ticker.Stop()

	logger.Info().
		Str("batch_server", daemonCfg.ListenAddr).
		Dur("interval", daemonCfg.CycleInterval).
		Msg("scheduler daemon starting")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler daemon stopped")
			return nil
		case <-ticker.C:
			runOneCycle(ctx, daemonCfg, state, client, histStore, collector)
		}
	}
}

func loadSchedState(cfg *config.DaemonConfig) (*schedState, error) {
	schedFile, err := os.Open(cfg.SchedConfigFile)
	if err != nil {
		return nil, fmt.Errorf("open sched_config: %w", err)
	}
	defer schedFile.Close()
	schedCfg, err := config.ParseSchedConfig(schedFile)
	if err != nil {
		return nil, fmt.Errorf("parse sched_config: %w", err)
	}

	var primeTable *config.PrimeTable
	if cfg.HolidaysFile != "" {
		if f, ferr := os.Open(cfg.HolidaysFile); ferr == nil {
			primeTable, err = config.ParseHolidays(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("parse holidays: %w", err)
			}
		}
	}

	var dedTimes []calendar.DedTimeWindow
	if cfg.DedicatedTimeFile != "" {
		if f, ferr := os.Open(cfg.DedicatedTimeFile); ferr == nil {
			dedTimes, err = config.ParseDedicatedTime(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("parse dedicated_time: %w", err)
			}
		}
	}

	tree := fairshare.NewTree()
	if schedCfg.ResourceGroupFile != "" {
		if f, ferr := os.Open(schedCfg.ResourceGroupFile); ferr == nil {
			tree, err = config.ParseResourceGroup(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("parse resource_group: %w", err)
			}
		}
	}
	if schedCfg.UsageFile != "" {
		_ = fairshare.ReadUsage(schedCfg.UsageFile, tree, schedCfg.Policy.UnknownShares)
	}

	return &schedState{
		registry:   resource.Builtin(),
		schedCfg:   schedCfg,
		primeTable: primeTable,
		dedTimes:   dedTimes,
		tree:       tree,
	}, nil
}

// runOneCycle fetches one snapshot, runs it through the scheduling
// core, submits the resulting decisions back, and persists fairshare
// usage and metrics. Errors are logged, never fatal — a single bad
// cycle should not take the daemon down, the next poll tries again.
func runOneCycle(ctx context.Context, cfg *config.DaemonConfig, state *schedState, client *transport.Client, histStore *history.BoltStore, collector *metrics.Collector) {
	cycleID := uuid.NewString()
	logger := log.WithCycleID(cycleID)

	pollCtx, cancel := context.WithTimeout(ctx, cfg.CycleTimeout)
	defer cancel()

	snapshot, err := client.Poll(pollCtx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch snapshot")
		return
	}

	snapshot.Policy = *state.schedCfg.Policy
	server, err := transport.FromWire(state.registry, *snapshot)
	if err != nil {
		logger.Error().Err(err).Msg("failed to rebuild server snapshot from wire")
		return
	}

	timer := metrics.NewTimer()

	input := cycle.Input{
		Registry:      state.registry,
		Server:        server,
		FairshareTree: state.tree,
		DedTimes:      state.dedTimes,
		MaxCandidates: 0,
	}
	if state.primeTable != nil {
		input.PrimeTable = state.primeTable.NextBoundary
	}

	out := cycle.Run(input)
	collector.RecordCycle(server, out, timer)

	logger.Info().
		Int("candidates", len(out.Decisions)).
		Int("calendar_events", len(out.Calendar.Events)).
		Msg("cycle complete")

	decisions := make([]transport.DecisionWire, 0, len(out.Decisions))
	for _, d := range out.Decisions {
		decisions = append(decisions, transport.DecisionToWire(d))
	}
	submitCtx, submitCancel := context.WithTimeout(ctx, cfg.CycleTimeout)
	defer submitCancel()
	if _, err := client.SubmitDecisions(submitCtx, decisions); err != nil {
		logger.Warn().Err(err).Msg("failed to submit decisions")
	}

	if state.schedCfg.UsageFile != "" {
		if err := fairshare.WriteUsage(state.schedCfg.UsageFile, state.tree); err != nil {
			logger.Warn().Err(err).Msg("failed to persist fairshare usage")
		}
	}

	recordJobHistory(out, histStore, logger)
}

// recordJobHistory stores one record per decision that carries a start
// time and a positive Duration, keyed by queue+job name. The record's
// ActualDuration is the job's requested Duration and its ExitTime is the
// start time plus that Duration; no finished job's real runtime is
// observed here.
func recordJobHistory(out *cycle.Output, histStore *history.BoltStore, logger zerolog.Logger) {
	for _, d := range out.Decisions {
		if d.Job == nil || d.StartTime.IsZero() || d.Job.Duration <= 0 {
			continue
		}
		key := historyKey(d.Job)
		rec := history.Record{
			Key:            key,
			ActualDuration: d.Job.Duration,
			ExitTime:       d.StartTime.Add(d.Job.Duration),
		}
		if err := histStore.RecordFinish(rec); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("failed to record job history")
		}
	}
}

func historyKey(job *types.ResourceResv) string {
	if job.Queue != nil {
		return job.Queue.Name + "/" + job.Name
	}
	return job.Name
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}
