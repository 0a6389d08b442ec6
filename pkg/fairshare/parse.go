package fairshare

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseResourceGroup reads a resource-group file (lines of "name parent
// shares", blank lines and "#"-prefixed comments ignored) and builds a
// Tree from it.
func ParseResourceGroup(r io.Reader) (*Tree, error) {
	t := NewTree()
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("fairshare: resource group line %d: expected 3 fields, got %d", lineNo, len(fields))
		}
		name, parent, sharesStr := fields[0], fields[1], fields[2]
		shares, err := strconv.Atoi(sharesStr)
		if err != nil {
			return nil, fmt.Errorf("fairshare: resource group line %d: bad shares %q: %w", lineNo, sharesStr, err)
		}
		t.AddNode(name, parent, shares)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
