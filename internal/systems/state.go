package systems

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rflorenc/inventory-console/internal/inventory"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 50
	DefaultSortBy  = "updated"
	DefaultSortDir = "desc"

	maxPerPage = 100
)

// TableState is the paging, sorting, filtering and column state of one
// systems table request.
type TableState struct {
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
	SortBy  string              `json:"sort_by"`
	SortDir string              `json:"sort_dir"`
	Filters map[string][]string `json:"filters,omitempty"`
	Columns []string            `json:"columns,omitempty"`
}

// DefaultState is the state of a table nobody has touched.
func DefaultState() TableState {
	return TableState{
		Page:    DefaultPage,
		PerPage: DefaultPerPage,
		SortBy:  DefaultSortBy,
		SortDir: DefaultSortDir,
		Filters: map[string][]string{},
	}
}

// ParseState reads table state from query parameters. Values out of range
// or naming unknown columns fall back to the defaults; filter values a
// checkbox filter does not offer are dropped.
func ParseState(q url.Values) TableState {
	st := DefaultState()
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		st.Page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && n > 0 && n <= maxPerPage {
		st.PerPage = n
	}
	if c, ok := columnByKey(q.Get("sort_by")); ok && c.OrderBy != "" {
		st.SortBy = c.Key
	}
	switch dir := strings.ToLower(q.Get("sort_dir")); dir {
	case "asc", "desc":
		st.SortDir = dir
	}
	for _, f := range filters {
		for _, raw := range q[f.ID] {
			for _, v := range strings.Split(raw, ",") {
				v = strings.TrimSpace(v)
				if v == "" || !f.accepts(v) {
					continue
				}
				st.Filters[f.ID] = append(st.Filters[f.ID], v)
			}
		}
	}
	if raw := q.Get("columns"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				st.Columns = append(st.Columns, k)
			}
		}
	}
	return st
}

// Query translates the state into an upstream hosts query.
func (st TableState) Query() inventory.SystemsQuery {
	q := inventory.SystemsQuery{
		Page:     st.Page,
		PerPage:  st.PerPage,
		OrderHow: strings.ToUpper(st.SortDir),
	}
	if c, ok := columnByKey(st.SortBy); ok {
		q.OrderBy = c.OrderBy
	}
	if names := st.Filters["name"]; len(names) > 0 {
		q.DisplayName = names[0]
	}
	q.GroupNames = st.Filters["workspace"]
	q.Staleness = st.Filters["status"]
	q.OS = st.Filters["os"]
	return q
}
