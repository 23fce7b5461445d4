package queue

import "time"

const (
	RoutingComplaintSubmitted = "complaint.submitted"
	RoutingStatusChanged      = "complaint.status_changed"
)

// ComplaintSubmitted is published once the backend has accepted a complaint.
// It never carries contact details.
type ComplaintSubmitted struct {
	ReferenceID   string    `json:"reference_id"`
	Category      string    `json:"category"`
	Area          string    `json:"area"`
	ServiceType   string    `json:"service_type"`
	Urgency       string    `json:"urgency"`
	PriorityScore float64   `json:"priority_score"`
	PriorityBand  string    `json:"priority_band"`
	Vulnerable    bool      `json:"vulnerable"`
	Scheme        string    `json:"scheme,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
	TraceID       string    `json:"trace_id,omitempty"`
}

// StatusChanged is published after an officer changes a complaint status.
type StatusChanged struct {
	ComplaintID string    `json:"complaint_id"`
	Status      string    `json:"status"`
	OfficerID   string    `json:"officer_id"`
	SessionID   string    `json:"session_id"`
	ChangedAt   time.Time `json:"changed_at"`
	TraceID     string    `json:"trace_id,omitempty"`
}
