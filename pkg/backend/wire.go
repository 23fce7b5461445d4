package backend

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"civisense/pkg/complaint"
	"civisense/pkg/dashboard"
)

type complaintRequest struct {
	Text   string `json:"text"`
	Area   string `json:"area"`
	Status string `json:"status"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type explanationNote struct {
	Notes string `json:"notes"`
}

type complaintResponse struct {
	ID            flexID                     `json:"id"`
	Category      string                     `json:"category"`
	Confidence    float64                    `json:"confidence"`
	PriorityScore float64                    `json:"priority_score"`
	Scheme        string                     `json:"scheme"`
	Explanation   map[string]explanationNote `json:"explanation"`
}

func (r complaintResponse) toResult() complaint.SubmissionResult {
	score := percent(r.PriorityScore)
	band := complaint.PriorityBand(score)
	return complaint.SubmissionResult{
		ReferenceID:        string(r.ID),
		Category:           r.Category,
		Confidence:         percent(r.Confidence),
		PriorityScore:      score,
		SuggestedScheme:    r.Scheme,
		SchemeExplanation:  r.Explanation["scheme"].Notes,
		UrgencyExplanation: r.Explanation["urgency"].Notes,
		NextSteps:          complaint.NextSteps(band),
		Band:               band,
	}
}

type dashboardRow struct {
	ID            flexID  `json:"id"`
	Text          string  `json:"text"`
	Area          string  `json:"area"`
	Category      string  `json:"category"`
	Scheme        string  `json:"scheme"`
	PriorityScore float64 `json:"priority_score"`
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
}

type dashboardResponse struct {
	TotalComplaints    int            `json:"total_complaints"`
	ByStatus           map[string]int `json:"by_status"`
	RecentHighPriority []dashboardRow `json:"recent_high_priority"`
}

func (r dashboardRow) toComplaint() dashboard.Complaint {
	details := complaint.DecodeText(r.Text)
	score := percent(r.PriorityScore)
	status, ok := dashboard.ParseStatus(r.Status)
	if !ok {
		status = dashboard.StatusNew
	}

	return dashboard.Complaint{
		ID:            string(r.ID),
		Description:   details.Narrative,
		Category:      r.Category,
		Priority:      complaint.PriorityBand(score).Urgency(),
		PriorityScore: score,
		Scheme:        r.Scheme,
		Area:          r.Area,
		Status:        status,
		Timestamp:     parseTimestamp(r.Timestamp),
		Contact: dashboard.Contact{
			Name:  details.Name,
			Phone: details.Phone,
			Email: details.Email,
		},
		Vulnerability: details.Vulnerability,
	}
}

// percent scales a 0..1 backend ratio to 0..100 with one decimal.
func percent(v float64) float64 {
	return math.Round(v*1000) / 10
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts RFC 3339 as well as the zone-less ISO form the
// backend emits, which is UTC.
func parseTimestamp(v string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// flexID decodes ids sent as either JSON numbers or strings.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}
