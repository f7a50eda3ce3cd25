package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/inventory-console/internal/notify"
)

// ListNotifications returns notifications from the since offset on, with
// the offset to poll from next.
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	since, _ := strconv.Atoi(r.URL.Query().Get("since"))
	items, next := s.Notifications.Since(since)
	if items == nil {
		items = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"next":  next,
	})
}

func (s *Server) DismissNotification(w http.ResponseWriter, r *http.Request) {
	if !s.Notifications.Dismiss(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "notification not found or not dismissable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
