package systems

import (
	"context"
	"log/slog"

	"github.com/rflorenc/inventory-console/internal/inventory"
	"github.com/rflorenc/inventory-console/internal/metrics"
	"github.com/rflorenc/inventory-console/internal/models"
	"github.com/rflorenc/inventory-console/internal/notify"
	"github.com/rflorenc/inventory-console/internal/tables"
)

// API is the slice of the inventory client the systems views need.
type API interface {
	FetchSystems(ctx context.Context, q inventory.SystemsQuery) (*inventory.SystemsPage, error)
	DeleteSystems(ctx context.Context, ids []string) error
	FetchSystemProfile(ctx context.Context, id string) (models.Resource, error)
}

// Service serves the systems table and its bulk actions.
type Service struct {
	API       API
	Jobs      *models.JobStore
	Selection *SelectionStore
	Notifier  notify.Dispatcher
	Global    GlobalFilter
	Logger    *slog.Logger

	// BatchSize caps the IDs sent in one delete request.
	BatchSize int
	// Concurrency caps the delete requests in flight.
	Concurrency int
}

// View is one rendered page of the systems table.
type View struct {
	Table    tables.TableDescription `json:"table"`
	Filters  []FilterSpec            `json:"filters"`
	State    TableState              `json:"state"`
	Total    int                     `json:"total"`
	Selected []string                `json:"selected"`
}

// List fetches one page of systems and lays it out with the state's
// columns. Rows are keyed by host ID.
func (s *Service) List(ctx context.Context, table string, st TableState) (*View, error) {
	page, err := s.API.FetchSystems(ctx, s.Global.Apply(st.Query()))
	if err != nil {
		return nil, err
	}

	cols := ResolveColumns(st.Columns)
	td := tables.TableDescription{
		Columns: make([]tables.Column, len(cols)),
		Rows:    make([]tables.Row, len(page.Results)),
	}
	for i, c := range cols {
		td.Columns[i] = c.Header()
	}
	for i, host := range page.Results {
		cells := make([]tables.Cell, len(cols))
		for j, c := range cols {
			cells[j] = c.cell(host)
		}
		td.Rows[i] = tables.Row{Key: host.String("id"), Cells: cells}
	}
	metrics.TablesRenderedTotal.WithLabelValues("systems").Inc()

	return &View{
		Table:    td,
		Filters:  ResolveFilters(nil),
		State:    st,
		Total:    page.Total,
		Selected: s.Selection.Selected(table),
	}, nil
}
