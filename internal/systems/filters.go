package systems

import "github.com/rflorenc/inventory-console/internal/tables"

// FilterSpec describes one toolbar filter. ID is also the query parameter
// the filter is read from.
type FilterSpec struct {
	ID      string                `json:"id"`
	Label   string                `json:"label"`
	Kind    tables.FilterKind     `json:"type"`
	Options []tables.FilterOption `json:"options,omitempty"`
}

var filters = []FilterSpec{
	{ID: "name", Label: "Name", Kind: tables.FilterText},
	{ID: "workspace", Label: "Workspace", Kind: tables.FilterText},
	{ID: "status", Label: "Status", Kind: tables.FilterCheckbox, Options: []tables.FilterOption{
		{Label: "Fresh", Value: "fresh"},
		{Label: "Stale", Value: "stale"},
		{Label: "Stale warning", Value: "stale_warning"},
	}},
	{ID: "os", Label: "Operating system", Kind: tables.FilterText},
}

// ResolveFilters picks filters by ID in the caller's order. An empty list
// yields every filter.
func ResolveFilters(ids []string) []FilterSpec {
	if len(ids) == 0 {
		out := make([]FilterSpec, len(filters))
		copy(out, filters)
		return out
	}
	out := make([]FilterSpec, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		for _, f := range filters {
			if f.ID == id {
				out = append(out, f)
				seen[id] = true
				break
			}
		}
	}
	return out
}

// accepts reports whether a checkbox filter offers value. Text filters
// accept anything.
func (f FilterSpec) accepts(value string) bool {
	if f.Kind != tables.FilterCheckbox {
		return true
	}
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}
