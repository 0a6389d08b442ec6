package backfill

import "github.com/openpbs/pbssched/pkg/schderr"

// NeverBackfill reports whether a rejection code rules out any future
// simulated start, so the job is dropped from calendar consideration
// entirely rather than charged against a quota it could never clear.
// This is schderr's own never-run taxonomy; named separately here since
// "never backfill" and "never run at all" are the same set by
// construction but read differently at each call site.
func NeverBackfill(code schderr.Code) bool {
	return schderr.IsNeverRun(code)
}
