/*
Package log provides structured logging for the scheduler daemon using
zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level for production debugging.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all packages without passing

Log Levels: Debug, Info, Warn, Error, Fatal (exits the process).

Configuration:
  - Level: filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: add component name to all logs
  - WithCycleID: tie every log line a single scheduling cycle emits together
  - WithJobName: add job_name context
  - WithQueueName: add queue_name context

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("scheduler daemon starting")

	cycleLog := log.WithCycleID(cycleID)
	cycleLog.Info().Int("candidates", len(candidates)).Msg("cycle starting")

	jobLog := log.WithJobName(job.Name)
	jobLog.Info().Str("outcome", decision.Outcome.String()).Msg("candidate decided")

# Design Patterns

Global Logger Pattern: a single package-level Logger, initialized once,
reachable from every package without threading it through call chains.

Context Logger Pattern: child loggers carry one identifying field
(cycle, job, queue) so every line from that scope can be filtered
without repeating the field at every call site.

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
