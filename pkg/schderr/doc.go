// Package schderr implements the scheduler's structured failure chain:
// every scheduling failure is first-class data, not a bare error string,
// so that higher layers (backfill admission, job comment text, metrics)
// can branch on a stable code rather than parsing prose.
package schderr
