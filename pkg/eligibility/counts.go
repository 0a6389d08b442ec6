package eligibility

import "github.com/openpbs/pbssched/pkg/types"

// RunningCounts holds running-job counts tallied in one scan of the resv
// array, so the individual hard-limit checks for a candidate share that
// scan instead of each rescanning the array.
type RunningCounts struct {
	ServerTotal int
	ServerUser  map[string]int
	ServerGroup map[string]int
	ServerProj  map[string]int

	QueueTotal map[string]int
	QueueUser  map[string]map[string]int
	QueueGroup map[string]map[string]int
	QueueProj  map[string]map[string]int
}

// BuildRunningCounts tallies every currently-running job in server,
// grouped by owner/group/project at both the server and per-queue level.
func BuildRunningCounts(server *types.Server) *RunningCounts {
	c := &RunningCounts{
		ServerUser:  map[string]int{},
		ServerGroup: map[string]int{},
		ServerProj:  map[string]int{},
		QueueTotal:  map[string]int{},
		QueueUser:   map[string]map[string]int{},
		QueueGroup:  map[string]map[string]int{},
		QueueProj:   map[string]map[string]int{},
	}
	for _, r := range server.RunningJobs() {
		c.ServerTotal++
		c.ServerUser[r.Owner]++
		c.ServerGroup[r.Group]++
		c.ServerProj[r.Project]++

		if r.Queue == nil {
			continue
		}
		qn := r.Queue.Name
		c.QueueTotal[qn]++
		if c.QueueUser[qn] == nil {
			c.QueueUser[qn] = map[string]int{}
			c.QueueGroup[qn] = map[string]int{}
			c.QueueProj[qn] = map[string]int{}
		}
		c.QueueUser[qn][r.Owner]++
		c.QueueGroup[qn][r.Group]++
		c.QueueProj[qn][r.Project]++
	}
	return c
}
