package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openpbs/pbssched/pkg/calendar"
)

const dedTimeLayout = "01/02/2006 15:04"

// ParseDedicatedTime reads the dedicated-time file: each non-comment
// line is a start/end pair, `MM/DD/YYYY HH:MM MM/DD/YYYY HH:MM`.
func ParseDedicatedTime(r io.Reader) ([]calendar.DedTimeWindow, error) {
	var out []calendar.DedTimeWindow
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("dedicated_time_file line %d: expected 4 fields, got %d", lineNo, len(fields))
		}
		start, err := time.ParseInLocation(dedTimeLayout, fields[0]+" "+fields[1], time.Local)
		if err != nil {
			return nil, fmt.Errorf("dedicated_time_file line %d: bad start time: %w", lineNo, err)
		}
		end, err := time.ParseInLocation(dedTimeLayout, fields[2]+" "+fields[3], time.Local)
		if err != nil {
			return nil, fmt.Errorf("dedicated_time_file line %d: bad end time: %w", lineNo, err)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("dedicated_time_file line %d: end %v is not after start %v", lineNo, end, start)
		}
		out = append(out, calendar.DedTimeWindow{Start: start, End: end})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
