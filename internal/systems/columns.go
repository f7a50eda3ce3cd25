// Package systems backs the systems table: paging and sorting state,
// column and filter resolution, row selection and bulk deletion.
package systems

import (
	"fmt"

	"github.com/rflorenc/inventory-console/internal/models"
	"github.com/rflorenc/inventory-console/internal/tables"
)

// Column is one selectable systems table column.
type Column struct {
	Key   string
	Title string
	// OrderBy is the upstream sort key; empty means not sortable.
	OrderBy string
	cell    func(host models.Resource) tables.Cell
}

// Header returns the column as the generic table widget sees it.
func (c Column) Header() tables.Column {
	return tables.Column{Title: c.Title, Sortable: c.OrderBy != ""}
}

var columns = []Column{
	{Key: "name", Title: "Name", OrderBy: "display_name", cell: nameCell},
	{Key: "workspace", Title: "Workspace", OrderBy: "group_name", cell: workspaceCell},
	{Key: "tags", Title: "Tags", cell: tagsCell},
	{Key: "os", Title: "OS", OrderBy: "operating_system", cell: osCell},
	{Key: "updated", Title: "Last seen", OrderBy: "updated", cell: lastSeenCell},
}

// DefaultColumns are shown when the caller asks for none.
var DefaultColumns = []string{"name", "workspace", "tags", "os", "updated"}

func columnByKey(key string) (Column, bool) {
	for _, c := range columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// ResolveColumns picks columns by key in the caller's order. Unknown and
// repeated keys are skipped; an empty result falls back to DefaultColumns.
func ResolveColumns(keys []string) []Column {
	out := make([]Column, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		c, ok := columnByKey(k)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return ResolveColumns(DefaultColumns)
	}
	return out
}

func nameCell(host models.Resource) tables.Cell {
	name := host.String("display_name")
	if name == "" {
		name = host.String("fqdn")
	}
	if name == "" {
		name = host.String("id")
	}
	return tables.TextCell(name)
}

func workspaceCell(host models.Resource) tables.Cell {
	for _, g := range host.List("groups") {
		if m, ok := g.(map[string]interface{}); ok {
			return tables.TextCell(models.Resource(m).String("name"))
		}
	}
	return tables.TextCell("")
}

func tagsCell(host models.Resource) tables.Cell {
	return tables.TextCell(len(host.List("tags")))
}

func osCell(host models.Resource) tables.Cell {
	osInfo := host.Object("system_profile").Object("operating_system")
	if osInfo == nil {
		return tables.TextCell("Not available")
	}
	name := osInfo.String("name")
	if name == "" {
		name = "RHEL"
	}
	major, hasMajor := osInfo["major"]
	if !hasMajor {
		return tables.TextCell(name)
	}
	if minor, ok := osInfo["minor"]; ok {
		return tables.TextCell(fmt.Sprintf("%s %v.%v", name, major, minor))
	}
	return tables.TextCell(fmt.Sprintf("%s %v", name, major))
}

func lastSeenCell(host models.Resource) tables.Cell {
	seen := host.String("last_check_in")
	if seen == "" {
		seen = host.String("updated")
	}
	return tables.TextCell(seen).WithSort(seen)
}
