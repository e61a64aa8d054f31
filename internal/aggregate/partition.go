// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"strings"

	"github.com/ommathur/quickpick/pkg/types"
)

// View maps each source to its items. Sources with nothing to show are
// absent rather than present with an empty slice.
type View map[types.SourceID][]types.ItemRecord

// Group is one display section of a View.
type Group struct {
	Source types.SourceID     `json:"source" yaml:"source"`
	Label  string             `json:"label" yaml:"label"`
	Items  []types.ItemRecord `json:"items" yaml:"items"`
}

// Partition groups items by source. The source tag set during
// normalization decides; untagged items fall back to a case-insensitive
// match of the source marker in the item URL.
func Partition(items []types.ItemRecord) View {
	v := View{}
	for _, s := range types.KnownSources {
		var group []types.ItemRecord
		for _, it := range items {
			if belongsTo(it, s) {
				group = append(group, it)
			}
		}
		if len(group) > 0 {
			v[s] = group
		}
	}
	return v
}

func belongsTo(it types.ItemRecord, s types.SourceID) bool {
	if it.Source != "" {
		return it.Source == s
	}
	return strings.Contains(strings.ToLower(it.URL), s.Marker())
}

// Groups returns the non-empty sections in display order.
func (v View) Groups() []Group {
	var groups []Group
	for _, s := range types.KnownSources {
		if items, ok := v[s]; ok && len(items) > 0 {
			groups = append(groups, Group{Source: s, Label: s.Label(), Items: items})
		}
	}
	return groups
}

// Len returns the number of items across all groups.
func (v View) Len() int {
	n := 0
	for _, items := range v {
		n += len(items)
	}
	return n
}
