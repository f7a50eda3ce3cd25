// Package render prints table descriptions to a terminal.
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rflorenc/inventory-console/internal/tables"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#5C5C5C"})

	statusColors = map[tables.StatusTag]lipgloss.AdaptiveColor{
		tables.StatusUp:       {Light: "#1E8F3A", Dark: "#5BD67B"},
		tables.StatusEnabled:  {Light: "#1E8F3A", Dark: "#5BD67B"},
		tables.StatusDown:     {Light: "#C9190B", Dark: "#F0776B"},
		tables.StatusDisabled: {Light: "#C9190B", Dark: "#F0776B"},
		tables.StatusUnknown:  {Light: "#6A6E73", Dark: "#B8BBBE"},
	}
)

// StatusGlyph is the terminal stand-in for a status icon.
func StatusGlyph(tag tables.StatusTag) string {
	switch tag {
	case tables.StatusUp:
		return "▲"
	case tables.StatusDown:
		return "▼"
	case tables.StatusEnabled:
		return "✓"
	case tables.StatusDisabled:
		return "✗"
	default:
		return "?"
	}
}

func cellText(c tables.Cell) string {
	if !c.IsStatus() {
		return c.Text()
	}
	return StatusGlyph(*c.Status) + " " + c.Status.String()
}

// Table lays td out as a bordered table. Expandable tables get a trailing
// Details column carrying each row's detail text.
func Table(td tables.TableDescription) string {
	headers := make([]string, 0, len(td.Columns)+1)
	for _, c := range td.Columns {
		headers = append(headers, c.Title)
	}
	if td.Expandable {
		headers = append(headers, "Details")
	}

	rows := make([][]string, len(td.Rows))
	for i, r := range td.Rows {
		row := make([]string, 0, len(headers))
		for _, c := range r.Cells {
			row = append(row, cellText(c))
		}
		if td.Expandable {
			row = append(row, r.Detail)
		}
		rows[i] = row
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < len(td.Rows) && col < len(td.Rows[row].Cells) {
				if c := td.Rows[row].Cells[col]; c.IsStatus() {
					return cellStyle.Foreground(statusColors[*c.Status])
				}
			}
			return cellStyle
		})
	return t.String()
}

// Write prints td under an optional title.
func Write(w io.Writer, title string, td tables.TableDescription) error {
	out := Table(td)
	if title != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), out)
	}
	if len(td.Rows) == 0 {
		out = lipgloss.JoinVertical(lipgloss.Left, out, "No data")
	}
	_, err := fmt.Fprintln(w, out)
	return err
}
