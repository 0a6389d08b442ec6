// Package eligibility implements the ordered gate list a candidate job or
// reservation must clear before it can run: queue state, dedicated-time
// and prime-time boundaries, hard limits, reservation conflicts, the
// job-wide rassn resource aggregate, node allocation, and license
// availability. Each gate returns a structured failure on rejection;
// IsOkToRun either short-circuits at the first failure or accumulates
// every failure, depending on the caller's RETURN_ALL_ERR setting.
package eligibility
