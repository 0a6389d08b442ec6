// Package config parses every on-disk input the scheduler core reads
// before a cycle starts: sched_config's policy directives, the holidays
// file's prime/non-prime table, the dedicated-time file's absolute
// start/end windows, the resource-group file's fairshare tree (delegated to
// pkg/fairshare), and the daemon's own YAML-format runtime settings.
package config
