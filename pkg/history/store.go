package history

import "time"

// Record is one completed job's observed runtime, recorded against a
// signature key at exit.
type Record struct {
	Key            string
	ActualDuration time.Duration
	ExitTime       time.Time
}

// Store defines the interface for prev_job_info persistence. This is
// implemented by BoltStore; a map-backed fake is useful in tests that
// don't want to touch the filesystem.
type Store interface {
	// RecordFinish appends rec under rec.Key, evicting the oldest entry
	// once the key holds more than maxRecordsPerKey records.
	RecordFinish(rec Record) error

	// MostRecent returns the newest record for key, or ok=false if none
	// has ever been recorded.
	MostRecent(key string) (Record, bool, error)

	// History returns every retained record for key, oldest first.
	History(key string) ([]Record, error)

	Close() error
}
