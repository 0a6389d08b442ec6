// Package calendar builds and walks the time-ordered list of future
// events — reservation starts/ends, job ends, node wake-ups,
// dedicated-time and prime-time boundaries — that drive simulation. A
// run event subtracts resources from the universe it applies to, an end
// event adds them back, and a dedicated/prime event flips the matching
// policy flag. Events sharing an instant are ordered end-before-run so a
// job ending at exactly the moment another would start never loses a
// node it should have released first.
//
// CalcRunTime layers simulation on top of the calendar: it clones the
// universe, rebinds the calendar onto the clone, and advances event by
// event until placement succeeds or the calendar runs dry, without ever
// mutating the real server unless asked to commit the result.
package calendar
