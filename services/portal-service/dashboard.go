package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"civisense/pkg/dashboard"
	"civisense/pkg/middleware"
	"civisense/pkg/queue"
	"civisense/pkg/response"
	"civisense/pkg/session"
)

const streamHeartbeat = 15 * time.Second

func (s *server) viewFor(r *http.Request) (*dashboard.View, session.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return nil, session.Session{}, false
	}
	v, err := s.views.Get(sess)
	if err != nil {
		return nil, session.Session{}, false
	}
	return v, sess, true
}

func (s *server) getDashboard(w http.ResponseWriter, r *http.Request) {
	v, _, ok := s.viewFor(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	if !v.Frame().Loaded {
		if err := v.Refresh(r.Context()); err != nil {
			middleware.LogError(middleware.GetTraceID(r), "Failed to fetch dashboard data", err)
			response.Error(w, backendStatus(err), "Failed to load dashboard", "")
			return
		}
	}
	response.Success(w, http.StatusOK, "Dashboard fetched", v.Frame())
}

func (s *server) setFilters(w http.ResponseWriter, r *http.Request) {
	v, _, ok := s.viewFor(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var input dashboard.FilterState
	if err := response.DecodeJSON(w, r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	response.Success(w, http.StatusOK, "Filters applied", v.SetFilter(input))
}

func (s *server) toggleSort(w http.ResponseWriter, r *http.Request) {
	v, _, ok := s.viewFor(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var input struct {
		Field string `json:"field"`
	}
	if err := response.DecodeJSON(w, r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	field, err := dashboard.ParseSortField(input.Field)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid sort field", err.Error())
		return
	}
	response.Success(w, http.StatusOK, "Sort applied", v.ToggleSort(field))
}

func (s *server) updateStatus(w http.ResponseWriter, r *http.Request) {
	v, sess, ok := s.viewFor(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	traceID := middleware.GetTraceID(r)
	id := r.PathValue("id")

	var input struct {
		Status string `json:"status"`
	}
	if err := response.DecodeJSON(w, r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	status, ok := dashboard.ParseStatus(input.Status)
	if !ok {
		response.Error(w, http.StatusBadRequest, "Invalid status", "")
		return
	}

	frame, err := v.UpdateStatus(r.Context(), id, status)
	if err != nil {
		if errors.Is(err, dashboard.ErrViewClosed) {
			response.Error(w, http.StatusUnauthorized, "Session has been signed out", "")
			return
		}
		middleware.LogError(traceID, "Failed to update complaint status", err)
		if errors.Is(err, dashboard.ErrComplaintNotFound) {
			response.Error(w, http.StatusNotFound, "Complaint not found", "")
			return
		}
		response.Error(w, backendStatus(err), "Failed to update status", "")
		return
	}

	event := queue.StatusChanged{
		ComplaintID: id,
		Status:      status.Wire(),
		OfficerID:   sess.OfficerID,
		SessionID:   sess.ID,
		ChangedAt:   time.Now().UTC(),
		TraceID:     traceID,
	}
	if err := s.events.Publish(r.Context(), queue.RoutingStatusChanged, event); err != nil {
		middleware.LogWarn(traceID, "Status updated but failed to publish event", err)
	}

	response.Success(w, http.StatusOK, "Complaint status updated", frame)
}

// streamDashboard pushes a frame after every change and keeps the view
// polling for as long as the client stays connected.
func (s *server) streamDashboard(w http.ResponseWriter, r *http.Request) {
	v, _, ok := s.viewFor(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Streaming unsupported", "")
		return
	}

	frames, unsubscribe := v.Subscribe()
	defer unsubscribe()
	detach, err := v.Attach()
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "Session has been signed out", "")
		return
	}
	defer detach()
	defer middleware.TrackDashboardStream()()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", `{"type":"connected","message":"Connection established"}`)
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case frame, open := <-frames:
			if !open {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			data, err := json.Marshal(frame)
			if err != nil {
				middleware.LogError(middleware.GetTraceID(r), "Failed to encode dashboard frame", err)
				continue
			}
			fmt.Fprintf(w, "event: frame\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *server) exportDashboard(w http.ResponseWriter, r *http.Request) {
	v, _, ok := s.viewFor(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if s.exports == nil {
		response.Error(w, http.StatusServiceUnavailable, "Export storage is not configured", "")
		return
	}

	exp, err := v.Export(r.Context(), s.exports)
	if err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to export dashboard", err)
		response.Error(w, http.StatusBadGateway, "Failed to export complaints", "")
		return
	}
	response.Success(w, http.StatusOK, "Export ready", exp)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	s.sessions.Revoke(sess)
	s.views.Close(sess)
	middleware.LogInfo(middleware.GetTraceID(r), "Officer signed out")

	response.Success(w, http.StatusOK, "Signed out", nil)
}
