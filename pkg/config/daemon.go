package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DaemonConfig is the scheduler daemon's own runtime settings — where it
// listens, where sched_config and its companion files live on disk, and
// how it paces cycles. This is distinct from SchedConfig: that file
// governs one cycle's policy, this one governs the process that runs
// cycles.
type DaemonConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	SchedConfigFile   string `yaml:"sched_config_file"`
	HolidaysFile      string `yaml:"holidays_file"`
	ResourceGroupFile string `yaml:"resource_group_file"`
	DedicatedTimeFile string `yaml:"dedicated_time_file"`
	UsageFile         string `yaml:"usage_file"`

	HistoryDBPath string `yaml:"history_db_path"`

	CycleInterval time.Duration `yaml:"cycle_interval"`
	CycleTimeout  time.Duration `yaml:"cycle_timeout"`

	WorkerPoolSize int `yaml:"worker_pool_size"`

	MetricsAddr string `yaml:"metrics_addr"`
	Debug       bool   `yaml:"debug"`
}

// NewDefaultDaemonConfig returns the settings a freshly installed
// scheduler daemon runs with absent a config file or environment
// overrides.
func NewDefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		ListenAddr:        getEnvOrDefault("PBSSCHED_LISTEN_ADDR", ":15050"),
		SchedConfigFile:   getEnvOrDefault("PBSSCHED_CONFIG", "/var/spool/pbs/sched_priv/sched_config"),
		HolidaysFile:      getEnvOrDefault("PBSSCHED_HOLIDAYS", "/var/spool/pbs/sched_priv/holidays"),
		ResourceGroupFile: getEnvOrDefault("PBSSCHED_RESOURCE_GROUP", "/var/spool/pbs/sched_priv/resource_group"),
		DedicatedTimeFile: getEnvOrDefault("PBSSCHED_DEDICATED_TIME", "/var/spool/pbs/sched_priv/dedicated_time"),
		UsageFile:         getEnvOrDefault("PBSSCHED_USAGE", "/var/spool/pbs/sched_priv/usage"),
		HistoryDBPath:     getEnvOrDefault("PBSSCHED_HISTORY_DB", "/var/spool/pbs/sched_priv/history.db"),
		CycleInterval:     10 * time.Second,
		CycleTimeout:      2 * time.Minute,
		WorkerPoolSize:    4,
		MetricsAddr:       getEnvOrDefault("PBSSCHED_METRICS_ADDR", ":9100"),
		Debug:             getEnvBoolOrDefault("PBSSCHED_DEBUG", false),
	}
}

// LoadDaemonConfig reads a YAML daemon config, falling back to defaults
// for any field the file leaves zero, then applies environment variable
// overrides on top.
func LoadDaemonConfig(r io.Reader) (*DaemonConfig, error) {
	cfg := NewDefaultDaemonConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("daemon config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadDaemonConfigFile opens path and delegates to LoadDaemonConfig.
func LoadDaemonConfigFile(path string) (*DaemonConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadDaemonConfig(f)
}

func (c *DaemonConfig) applyEnvOverrides() {
	c.ListenAddr = getEnvOrDefault("PBSSCHED_LISTEN_ADDR", c.ListenAddr)
	c.SchedConfigFile = getEnvOrDefault("PBSSCHED_CONFIG", c.SchedConfigFile)
	c.HolidaysFile = getEnvOrDefault("PBSSCHED_HOLIDAYS", c.HolidaysFile)
	c.ResourceGroupFile = getEnvOrDefault("PBSSCHED_RESOURCE_GROUP", c.ResourceGroupFile)
	c.DedicatedTimeFile = getEnvOrDefault("PBSSCHED_DEDICATED_TIME", c.DedicatedTimeFile)
	c.UsageFile = getEnvOrDefault("PBSSCHED_USAGE", c.UsageFile)
	c.HistoryDBPath = getEnvOrDefault("PBSSCHED_HISTORY_DB", c.HistoryDBPath)
	c.MetricsAddr = getEnvOrDefault("PBSSCHED_METRICS_ADDR", c.MetricsAddr)
	c.Debug = getEnvBoolOrDefault("PBSSCHED_DEBUG", c.Debug)
}

// Validate checks that the daemon config is internally consistent
// enough to start a cycle loop on.
func (c *DaemonConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen_addr must not be empty")
	}
	if c.SchedConfigFile == "" {
		return fmt.Errorf("config: sched_config_file must not be empty")
	}
	if c.CycleInterval <= 0 {
		return fmt.Errorf("config: cycle_interval must be positive")
	}
	if c.CycleTimeout <= 0 {
		return fmt.Errorf("config: cycle_timeout must be positive")
	}
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("config: worker_pool_size must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
