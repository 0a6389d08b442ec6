package config

import (
	"io"

	"github.com/openpbs/pbssched/pkg/fairshare"
)

// ParseResourceGroup reads the resource_group_file into a fairshare tree.
// It exists at this layer only to give the file a home alongside its
// sibling config parsers; the grammar and tree-building logic live in
// pkg/fairshare, which already owns the rest of the fairshare model.
func ParseResourceGroup(r io.Reader) (*fairshare.Tree, error) {
	return fairshare.ParseResourceGroup(r)
}
