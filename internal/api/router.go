package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rflorenc/inventory-console/internal/groups"
	"github.com/rflorenc/inventory-console/internal/models"
	"github.com/rflorenc/inventory-console/internal/notify"
	"github.com/rflorenc/inventory-console/internal/rbac"
	"github.com/rflorenc/inventory-console/internal/staleness"
	"github.com/rflorenc/inventory-console/internal/systems"
)

// Permissions answers RBAC questions for the current user.
type Permissions interface {
	Check(ctx context.Context, required []rbac.Required) (bool, error)
}

// Pinger checks the upstream connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds shared state for all API handlers.
type Server struct {
	Connection    models.Connection
	Upstream      Pinger
	Permissions   Permissions
	Staleness     *staleness.Service
	Groups        *groups.Service
	Systems       *systems.Service
	Jobs          *models.JobStore
	Notifications *notify.Store
	Logger        *slog.Logger
}

// NewRouter builds the chi router with all API routes. Paths outside the
// API are handed to frontend when it is set.
func NewRouter(s *Server, frontend http.Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", s.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Upstream connection
		r.Get("/connection", s.GetConnection)
		r.Post("/connection/test", s.TestConnection)

		// Staleness and deletion settings
		r.Get("/staleness", s.GetStaleness)
		r.Post("/staleness", s.SaveStaleness)

		// Workspaces
		r.Get("/groups/{id}/header", s.GetGroupHeader)
		r.Patch("/groups/{id}", s.RenameGroup)
		r.Delete("/groups/{id}", s.DeleteGroup)

		// Systems
		r.Get("/systems", s.ListSystems)
		r.Post("/systems/delete", s.DeleteSystems)
		r.Get("/systems/{id}/tables/{kind}", s.GetSystemTable)

		// Row selection
		r.Put("/tables/{table}/selection", s.UpdateSelection)
		r.Delete("/tables/{table}/selection", s.ResetSelection)

		// Jobs
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
		r.Post("/jobs/{id}/cancel", s.CancelJob)

		// Notifications
		r.Get("/notifications", s.ListNotifications)
		r.Delete("/notifications/{id}", s.DismissNotification)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)
	r.Get("/ws/notifications", s.StreamNotifications)

	if frontend != nil {
		r.Handle("/*", frontend)
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// allowed runs a permission check; a failed check counts as a denial.
func (s *Server) allowed(ctx context.Context, required []rbac.Required) bool {
	ok, err := s.Permissions.Check(ctx, required)
	if err != nil {
		s.Logger.Warn("permission check failed", "error", err)
		return false
	}
	return ok
}
