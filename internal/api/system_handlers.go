package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/inventory-console/internal/rbac"
	"github.com/rflorenc/inventory-console/internal/render"
	"github.com/rflorenc/inventory-console/internal/systems"
	"github.com/rflorenc/inventory-console/internal/tables"
)

const defaultTable = "systems"

func tableName(r *http.Request) string {
	if t := r.URL.Query().Get("table"); t != "" {
		return t
	}
	return defaultTable
}

func (s *Server) ListSystems(w http.ResponseWriter, r *http.Request) {
	view, err := s.Systems.List(r.Context(), tableName(r), systems.ParseState(r.URL.Query()))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteSystems starts an async delete of either the dedicated row or the
// given IDs. With neither, the table's current selection is deleted.
func (s *Server) DeleteSystems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Table     string   `json:"table"`
		IDs       []string `json:"ids"`
		Dedicated string   `json:"dedicated"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Table == "" {
		req.Table = defaultTable
	}
	if !s.allowed(r.Context(), rbac.DeleteSystems()) {
		writeError(w, http.StatusForbidden, "not permitted to delete systems")
		return
	}

	selected := req.IDs
	if len(selected) == 0 {
		selected = s.Systems.Selection.Selected(req.Table)
	}
	job, err := s.Systems.StartDelete(req.Table, systems.ItemsToDelete(req.Dedicated, selected))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"total":  job.Total,
	})
}

// GetSystemTable renders one host detail table. format=text returns the
// table laid out for a terminal instead of JSON.
func (s *Server) GetSystemTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := systems.DetailRequest{
		Kind:  tables.Kind(chi.URLParam(r, "kind")),
		Field: q.Get("field"),
		Options: tables.Options{
			Title:         q.Get("title"),
			FieldKeys:     splitList(q.Get("keys")),
			ColumnTitles:  splitList(q.Get("titles")),
			FallbackField: q.Get("fallback"),
		},
	}
	if req.Options.Title == "" {
		req.Options.Title = tables.TitleCase(req.Field)
	}

	td, err := s.Systems.DetailTable(r.Context(), chi.URLParam(r, "id"), req)
	switch {
	case errors.Is(err, systems.ErrUnknownKind):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, systems.ErrFieldRequired):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeUpstreamError(w, err)
		return
	}

	if q.Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := render.Write(w, req.Options.Title, td); err != nil {
			s.Logger.Warn("writing text table failed", "host", chi.URLParam(r, "id"), "kind", req.Kind, "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, td)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (s *Server) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	var req struct {
		IDs      []string `json:"ids"`
		Selected bool     `json:"selected"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.Systems.Selection.Set(table, req.IDs, req.Selected)
	writeJSON(w, http.StatusOK, map[string][]string{"selected": s.Systems.Selection.Selected(table)})
}

func (s *Server) ResetSelection(w http.ResponseWriter, r *http.Request) {
	s.Systems.Selection.Reset(chi.URLParam(r, "table"))
	w.WriteHeader(http.StatusNoContent)
}
