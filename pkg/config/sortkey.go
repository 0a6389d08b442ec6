package config

import (
	"fmt"
	"strings"

	"github.com/openpbs/pbssched/pkg/types"
)

// specialSortKeys are the non-resource key names job_sort_key accepts in
// place of a resource name.
var specialSortKeys = map[string]bool{
	"fair_share_perc":  true,
	"sort_priority":    true,
	"job_priority":     true,
	"last_used_time":   true,
	"preempt_priority": true,
}

// ParseSortKey parses one job_sort_key or node_sort_key argument string,
// e.g. `ncpus DESC avail` or `fair_share_perc HIGH`. forNode selects
// node_sort_key's extra "avail|assigned|unused" basis term; job_sort_key
// never carries one.
func ParseSortKey(s string, forNode bool) (types.SortKey, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return types.SortKey{}, fmt.Errorf("empty sort key")
	}
	k := types.SortKey{}
	name := fields[0]
	if specialSortKeys[name] {
		k.Special = name
	} else {
		k.ResName = name
	}
	for _, f := range fields[1:] {
		switch strings.ToUpper(f) {
		case "DESC", "HIGH":
			k.Descending = true
		case "ASC", "LOW":
			k.Descending = false
		case "AVAIL", "ASSIGNED", "UNUSED":
			if forNode {
				k.Basis = strings.ToLower(f)
			}
		}
	}
	return k, nil
}
