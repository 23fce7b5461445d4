package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"civisense/pkg/complaint"
	"civisense/pkg/dashboard"
	"civisense/pkg/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() complaint.Draft {
	d := complaint.NewDraft()
	d.Description = "No water supply for three days in our street"
	d.Area = "Adyar"
	d.ServiceType = complaint.ServiceWater
	d.Urgency = complaint.UrgencyHigh
	d.Name = "Asha"
	d.Phone = "9876543210"
	d.Consent = true
	return d
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second)
}

func TestSubmitComplaint(t *testing.T) {
	var got complaintRequest
	var trace string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/complaint", r.URL.Path)
		trace = r.Header.Get(middleware.TraceHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 42,
			"category": "Water Supply",
			"confidence": 0.913,
			"priority_score": 0.78,
			"scheme": "Jal Jeevan Mission",
			"explanation": {
				"scheme": {"notes": "Household tap connection scheme"},
				"urgency": {"notes": "Multi-day outage"}
			}
		}`))
	})

	ctx := middleware.WithTraceID(context.Background(), "trace-1")
	res, err := c.SubmitComplaint(ctx, validDraft())
	require.NoError(t, err)

	assert.Equal(t, "trace-1", trace)
	assert.Equal(t, "new", got.Status)
	assert.Equal(t, "Adyar", got.Area)
	assert.Equal(t, complaint.EncodeText(validDraft()), got.Text)

	assert.Equal(t, "42", res.ReferenceID)
	assert.Equal(t, "Water Supply", res.Category)
	assert.InDelta(t, 91.3, res.Confidence, 1e-9)
	assert.InDelta(t, 78.0, res.PriorityScore, 1e-9)
	assert.Equal(t, complaint.BandHigh, res.Band)
	assert.Equal(t, "Jal Jeevan Mission", res.SuggestedScheme)
	assert.Equal(t, "Household tap connection scheme", res.SchemeExplanation)
	assert.Equal(t, "Multi-day outage", res.UrgencyExplanation)
	assert.Len(t, res.NextSteps, 4)
}

func TestSubmitComplaintServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	_, err := c.SubmitComplaint(context.Background(), validDraft())

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestSubmitComplaintUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).SubmitComplaint(context.Background(), validDraft())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestSubmitComplaintBadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":`))
	})

	_, err := c.SubmitComplaint(context.Background(), validDraft())
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestFetchDashboard(t *testing.T) {
	text := complaint.EncodeText(validDraft())
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dashboard", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"total_complaints": 12,
			"by_status":        map[string]int{"new": 5, "assigned": 2, "scheme_linked": 1, "resolved": 3, "closed": 1},
			"recent_high_priority": []map[string]any{
				{
					"id": 7, "text": text, "area": "Adyar", "category": "Water Supply",
					"priority_score": 0.81, "status": "new", "timestamp": "2024-03-01T09:30:00.123456",
				},
				{
					"id": "8", "text": "Broken streetlight near the temple", "area": "Mylapore",
					"category": "Electricity", "priority_score": 0.55, "status": "scheme_linked",
					"timestamp": "2024-03-01T10:00:00",
				},
			},
		})
	})

	rows, stats, err := c.FetchDashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "7", first.ID)
	assert.Equal(t, validDraft().Description, first.Description)
	assert.Equal(t, "Asha", first.Contact.Name)
	assert.Equal(t, "9876543210", first.Contact.Phone)
	assert.Equal(t, complaint.UrgencyHigh, first.Priority)
	assert.InDelta(t, 81.0, first.PriorityScore, 1e-9)
	assert.Equal(t, dashboard.StatusNew, first.Status)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 123456000, time.UTC), first.Timestamp)

	second := rows[1]
	assert.Equal(t, "8", second.ID)
	assert.Equal(t, "Broken streetlight near the temple", second.Description)
	assert.Empty(t, second.Contact.Name)
	assert.Equal(t, complaint.UrgencyMedium, second.Priority)
	assert.Equal(t, dashboard.StatusSchemeLinked, second.Status)

	assert.Equal(t, dashboard.Stats{Total: 12, Pending: 8, Resolved: 4, HighPriority: 1}, stats)
}

func TestUpdateStatus(t *testing.T) {
	var body statusRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/status/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, c.UpdateStatus(context.Background(), "7", dashboard.StatusSchemeLinked))
	assert.Equal(t, "scheme_linked", body.Status)
}

func TestUpdateStatusNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Complaint not found"}`, http.StatusNotFound)
	})

	err := c.UpdateStatus(context.Background(), "999", dashboard.StatusResolved)
	assert.ErrorIs(t, err, dashboard.ErrComplaintNotFound)
}

func TestClientHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.FetchDashboard(ctx)
	assert.True(t, errors.Is(err, ErrBackendUnavailable) || errors.Is(err, context.Canceled))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, want, parseTimestamp("2024-03-01T09:30:00"))
	assert.Equal(t, want, parseTimestamp("2024-03-01 09:30:00"))
	assert.Equal(t, want, parseTimestamp("2024-03-01T15:00:00+05:30"))
	assert.True(t, parseTimestamp("yesterday").IsZero())
}

func TestFlexID(t *testing.T) {
	var v struct {
		ID flexID `json:"id"`
	}
	for in, want := range map[string]string{`{"id":12}`: "12", `{"id":" 12 "}`: "12", `{"id":null}`: ""} {
		require.NoError(t, json.NewDecoder(strings.NewReader(in)).Decode(&v))
		assert.Equal(t, want, string(v.ID), in)
	}
}
