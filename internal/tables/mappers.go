package tables

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rflorenc/inventory-console/internal/models"
)

// DefaultFallbackField is read when a workloads table has no field keys.
const DefaultFallbackField = "version"

// DiskMapper lists block devices. Each row expands to show the device's
// mount options.
func DiskMapper(devices []models.Resource) TableDescription {
	rows := make([]Row, len(devices))
	for i, d := range devices {
		rows[i] = Row{
			Expandable: true,
			Detail:     optionPairs(mountOptions(d["options"])),
			Cells: []Cell{
				TextCell(scalar(field(d, "device"))),
				TextCell(scalar(field(d, "label"))),
				TextCell(scalar(field(d, "mountpoint", "mount_point"))),
				TextCell(scalar(field(d, "mounttype", "type"))),
			},
		}
	}
	return TableDescription{
		Columns:    sortable("Device", "Label", "Mount point", "Type"),
		Rows:       rows,
		Expandable: true,
	}
}

// mountOptions handles the {"options": {...}} nesting some agents report.
func mountOptions(v interface{}) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		if inner, ok := m["options"]; ok && Truthy(inner) {
			return inner
		}
	}
	return v
}

// ProductsMapper lists installed products with their service status.
func ProductsMapper(products []models.Resource) TableDescription {
	rows := make([]Row, len(products))
	for i, p := range products {
		rows[i] = Row{Cells: []Cell{
			TextCell(scalar(p["name"])),
			StatusCell(ParseServiceStatus(p["status"])),
		}}
	}
	return TableDescription{
		Columns: []Column{{Title: "Name", Sortable: true}, {Title: "Status"}},
		Rows:    rows,
	}
}

// InterfaceMapper lists network interfaces.
func InterfaceMapper(data []models.Resource) TableDescription {
	rows := make([]Row, len(data))
	for i, item := range data {
		rows[i] = Row{Cells: []Cell{
			TextCell(scalar(item["mac_address"])),
			TextCell(scalar(item["mtu"])),
			TextCell(scalar(item["name"])),
			StatusCell(ParseServiceStatus(item["state"])),
			TextCell(scalar(item["type"])),
		}}
	}
	return TableDescription{
		Columns: []Column{
			{Title: "MAC address", Sortable: true},
			{Title: "MTU", Sortable: true},
			{Title: "Name", Sortable: true},
			{Title: "State"},
			{Title: "Type", Sortable: true},
		},
		Rows: rows,
	}
}

// RepositoryLists carries repositories already split by the caller.
type RepositoryLists struct {
	Enabled  []models.Resource `json:"enabled"`
	Disabled []models.Resource `json:"disabled"`
}

// SplitRepositories partitions repositories on their enabled flag, keeping
// input order within each list.
func SplitRepositories(repos []models.Resource) RepositoryLists {
	lists := RepositoryLists{Enabled: []models.Resource{}, Disabled: []models.Resource{}}
	for _, r := range repos {
		if Truthy(Unwrap(r["enabled"])) {
			lists.Enabled = append(lists.Enabled, r)
		} else {
			lists.Disabled = append(lists.Disabled, r)
		}
	}
	return lists
}

// RepositoriesMapper lists enabled repositories followed by disabled ones.
// The split comes from the caller; items are not re-sorted.
func RepositoriesMapper(lists RepositoryLists) TableDescription {
	all := make([]models.Resource, 0, len(lists.Enabled)+len(lists.Disabled))
	all = append(all, lists.Enabled...)
	all = append(all, lists.Disabled...)

	rows := make([]Row, len(all))
	for i, repo := range all {
		name := repo["name"]
		rows[i] = Row{Cells: []Cell{
			TextCell(scalar(name)).WithSort(jsString(name)),
			StatusCell(EnabledStatus(repo["enabled"])).WithSort(jsString(repo["enabled"])),
			StatusCell(EnabledStatus(repo["gpgcheck"])).WithSort(jsString(repo["gpgcheck"])),
		}}
	}
	return TableDescription{
		Columns: sortable("Name", "Enabled", "GPG check"),
		Rows:    rows,
		Filters: []Filter{
			{Kind: FilterText},
			{Kind: FilterCheckbox, Options: enabledOptions},
			{Kind: FilterCheckbox, Options: enabledOptions},
		},
	}
}

// GeneralMapper renders a flat list as a single column table.
func GeneralMapper(data []interface{}, title string) TableDescription {
	rows := make([]Row, len(data))
	for i, item := range data {
		rows[i] = Row{Cells: []Cell{TextCell(scalar(item))}}
	}
	return TableDescription{
		Columns: []Column{{Title: title, Sortable: true}},
		Rows:    rows,
		Filters: []Filter{{Kind: FilterText}},
	}
}

// WorkloadsInput configures WorkloadsDataMapper.
type WorkloadsInput struct {
	Data         []models.Resource
	FieldKeys    []string
	ColumnTitles []string
	// FallbackField is read when FieldKeys is empty. Defaults to "version".
	FallbackField string
}

// WorkloadsDataMapper builds an N column table from arbitrary keyed records.
func WorkloadsDataMapper(in WorkloadsInput) TableDescription {
	single := len(in.FieldKeys) == 0

	var cols []Column
	switch {
	case in.ColumnTitles != nil && len(in.ColumnTitles) == len(in.FieldKeys) && !single:
		cols = make([]Column, len(in.ColumnTitles))
		for i, t := range in.ColumnTitles {
			cols[i] = Column{Title: t}
		}
	case single:
		cols = []Column{{Title: "Value"}}
	default:
		cols = make([]Column, len(in.FieldKeys))
		for i, k := range in.FieldKeys {
			cols[i] = Column{Title: TitleCase(k)}
		}
	}

	fallback := in.FallbackField
	if fallback == "" {
		fallback = DefaultFallbackField
	}

	rows := make([]Row, len(in.Data))
	for i, item := range in.Data {
		if single {
			rows[i] = Row{Cells: []Cell{TextCell(scalar(item[fallback]))}}
			continue
		}
		cells := make([]Cell, len(in.FieldKeys))
		for j, k := range in.FieldKeys {
			cells[j] = TextCell(FormatValue(item[k]))
		}
		rows[i] = Row{Cells: cells}
	}

	return TableDescription{
		Columns: cols,
		Rows:    rows,
		Filters: []Filter{{Kind: FilterText}},
	}
}

// TitleCase turns a snake_case key into a header: underscores become spaces
// and the first character of each whitespace-delimited token is upper-cased.
// A token starts at the first ASCII letter or digit, so "foo-bar" becomes
// "Foo-bar" and "2nd_gen" becomes "2nd Gen".
func TitleCase(key string) string {
	upper := cases.Upper(language.Und)
	var b strings.Builder
	inToken := false
	for _, r := range strings.ReplaceAll(key, "_", " ") {
		switch {
		case unicode.IsSpace(r):
			inToken = false
		case !inToken && isWordChar(r):
			inToken = true
			b.WriteString(upper.String(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordChar(r rune) bool {
	return r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}
