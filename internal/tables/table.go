// Package tables turns loosely shaped inventory records into table
// descriptions that a generic table widget can render without further
// knowledge of the data.
package tables

import "encoding/json"

// FormatHint tells the renderer how to treat a column's cells.
type FormatHint int

const (
	FormatNone FormatHint = iota
	FormatText
)

// FilterKind identifies the filter widget attached to a column.
type FilterKind string

const (
	FilterText     FilterKind = "text"
	FilterCheckbox FilterKind = "checkbox"
)

// Column describes one table header. Column order is fixed by the mapper.
type Column struct {
	Title    string     `json:"title"`
	Sortable bool       `json:"sortable"`
	Format   FormatHint `json:"-"`
}

// MarshalJSON emits the format hint by name.
func (c Column) MarshalJSON() ([]byte, error) {
	type alias Column
	out := struct {
		alias
		Format string `json:"format,omitempty"`
	}{alias: alias(c)}
	if c.Format == FormatText {
		out.Format = "text"
	}
	return json.Marshal(out)
}

// FilterOption is a single checkbox choice.
type FilterOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Filter is positionally aligned with the table's columns.
type Filter struct {
	Kind    FilterKind     `json:"type"`
	Options []FilterOption `json:"options,omitempty"`
}

// Cell is either a plain scalar or a status cell.
type Cell struct {
	Value     interface{}
	Status    *StatusTag
	SortValue *string
}

// TextCell wraps a scalar value.
func TextCell(v interface{}) Cell {
	return Cell{Value: v}
}

// StatusCell wraps a status tag.
func StatusCell(tag StatusTag) Cell {
	return Cell{Status: &tag}
}

// WithSort attaches a sort derivation to the cell.
func (c Cell) WithSort(s string) Cell {
	c.SortValue = &s
	return c
}

// IsStatus reports whether the cell renders a status icon.
func (c Cell) IsStatus() bool {
	return c.Status != nil
}

// Text returns the cell's textual form: the scalar rendered as a
// string, or the status label.
func (c Cell) Text() string {
	if c.Status != nil {
		return c.Status.Display().Label
	}
	return jsString(c.Value)
}

func (c Cell) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	if c.Status != nil {
		d := c.Status.Display()
		out["status"] = c.Status.String()
		out["label"] = d.Label
		out["icon"] = d.Icon
	} else {
		out["value"] = c.Value
	}
	if c.SortValue != nil {
		out["sort_value"] = *c.SortValue
	}
	return json.Marshal(out)
}

// Row is one table row. Detail is only set for expandable rows.
type Row struct {
	Key        string `json:"key,omitempty"`
	Cells      []Cell `json:"cells"`
	Expandable bool   `json:"expandable,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// TableDescription is the column/row/filter triple handed to the renderer.
type TableDescription struct {
	Columns    []Column `json:"columns"`
	Rows       []Row    `json:"rows"`
	Filters    []Filter `json:"filters,omitempty"`
	Expandable bool     `json:"expandable,omitempty"`
}

func sortable(titles ...string) []Column {
	cols := make([]Column, len(titles))
	for i, t := range titles {
		cols[i] = Column{Title: t, Sortable: true}
	}
	return cols
}

var enabledOptions = []FilterOption{
	{Label: "Is enabled", Value: "true"},
	{Label: "Not enabled", Value: "false"},
}
