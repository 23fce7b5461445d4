package main

import (
	"errors"
	"net/http"

	"civisense/pkg/backend"
	"civisense/pkg/complaint"
	"civisense/pkg/dashboard"
	"civisense/pkg/drafts"
	"civisense/pkg/middleware"
	"civisense/pkg/queue"
	"civisense/pkg/response"
	"civisense/pkg/session"
)

var officerRoles = []string{"officer", "admin"}

type server struct {
	drafts    drafts.Store
	locks     *drafts.Locker
	submitter complaint.Submitter
	views     *dashboard.Registry
	sessions  *session.Manager
	events    queue.EventPublisher
	exports   dashboard.ObjectStore
	draftsBy  string
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	// Citizen complaint wizard
	mux.HandleFunc("POST /api/complaints/drafts", s.createDraft)
	mux.HandleFunc("GET /api/complaints/drafts/{id}", s.getDraft)
	mux.HandleFunc("PATCH /api/complaints/drafts/{id}", s.updateDraft)
	mux.HandleFunc("POST /api/complaints/drafts/{id}/next", s.nextStep)
	mux.HandleFunc("POST /api/complaints/drafts/{id}/prev", s.prevStep)
	mux.HandleFunc("POST /api/complaints/drafts/{id}/submit", s.submitDraft)
	mux.HandleFunc("POST /api/complaints/drafts/{id}/reset", s.resetDraft)

	// Officer dashboard
	auth := middleware.AuthMiddleware(s.sessions)
	officer := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole(officerRoles...)(h))
	}
	mux.Handle("GET /api/dashboard", officer(s.getDashboard))
	mux.Handle("PUT /api/dashboard/filters", officer(s.setFilters))
	mux.Handle("POST /api/dashboard/sort", officer(s.toggleSort))
	mux.Handle("PATCH /api/dashboard/complaints/{id}/status", officer(s.updateStatus))
	mux.Handle("GET /api/dashboard/stream", officer(s.streamDashboard))
	mux.Handle("GET /api/dashboard/export", officer(s.exportDashboard))
	mux.Handle("POST /api/session/logout", auth(http.HandlerFunc(s.logout)))

	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", middleware.GetMetricsHandler())

	return middleware.TraceMiddleware(
		middleware.MetricsMiddleware(
			middleware.LoggerMiddleware(mux),
		),
	)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":          "UP",
		"service":         "portal-service",
		"drafts":          s.draftsBy,
		"dashboard_views": s.views.Len(),
	})
}

// backendStatus maps a categorization backend failure to the status the
// portal answers with.
func backendStatus(err error) int {
	var reqErr *backend.RequestError
	switch {
	case errors.Is(err, dashboard.ErrComplaintNotFound):
		return http.StatusNotFound
	case errors.As(err, &reqErr), errors.Is(err, backend.ErrBackendUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
