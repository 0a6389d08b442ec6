/*
Package history provides a bbolt-backed store of job runtime records,
kept per caller-chosen key. cmd/pbsched writes one record per started
or calendared job, keyed by queue name plus job name ("workq/job1").
Nothing in the scheduler reads the records back, so they do not feed
into walltime estimates or calendar simulation.

Only the most recent few records per key are kept; older ones are
evicted so one frequently resubmitted job can't grow its bucket without
bound.

# Usage

	store, err := history.NewBoltStore("/var/spool/pbs/sched_priv/sched.db")
	...
	store.RecordFinish(history.Record{
		Key:            "workq/render.sh",
		ActualDuration: 42 * time.Minute,
		ExitTime:       time.Now(),
	})

	if rec, ok, _ := store.MostRecent("workq/render.sh"); ok {
		estimate = rec.ActualDuration
	}
*/
package history
