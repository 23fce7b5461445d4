// Package dashboard is the officer-side data layer: complaint rows from the
// backend, the stats derived from them, the filter/sort pipeline and the
// polling view each signed-in officer works in.
package dashboard

import (
	"errors"
	"strings"
	"time"

	"civisense/pkg/complaint"
)

var (
	ErrComplaintNotFound = errors.New("complaint not found")
	ErrInvalidStatus     = errors.New("invalid complaint status")
	ErrInvalidSortField  = errors.New("invalid sort field")
	ErrViewClosed        = errors.New("dashboard view closed")
)

// Status is the officer-facing complaint status.
type Status string

const (
	StatusNew          Status = "New"
	StatusVerified     Status = "Verified"
	StatusSchemeLinked Status = "Scheme Linked"
	StatusAssigned     Status = "Assigned"
	StatusResolved     Status = "Resolved"
	StatusClosed       Status = "Closed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusNew, StatusVerified, StatusSchemeLinked,
	StatusAssigned, StatusResolved, StatusClosed,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Wire is the form the backend stores and counts by.
func (s Status) Wire() string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "_")
}

// Done reports whether no further action is expected.
func (s Status) Done() bool {
	return s == StatusResolved || s == StatusClosed
}

// ParseStatus accepts display ("Scheme Linked") and wire ("scheme_linked")
// forms, case-insensitively.
func ParseStatus(v string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(v))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	for _, s := range Statuses {
		if s.Wire() == key {
			return s, true
		}
	}
	return "", false
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Complaint is a server-sourced record. Only Status may be changed, and only
// through the backend.
type Complaint struct {
	ID            string                  `json:"id"`
	Description   string                  `json:"description"`
	Category      string                  `json:"category"`
	Priority      complaint.Urgency       `json:"priority"`
	PriorityScore float64                 `json:"priority_score"`
	Scheme        string                  `json:"scheme"`
	Area          string                  `json:"area"`
	Status        Status                  `json:"status"`
	Timestamp     time.Time               `json:"timestamp"`
	Contact       Contact                 `json:"contact"`
	Vulnerability complaint.Vulnerability `json:"vulnerability"`
}

type Stats struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Resolved     int `json:"resolved"`
	HighPriority int `json:"high_priority"`
}

// ComputeStats derives the dashboard counters. Pending counts new, assigned,
// verified and scheme-linked complaints; resolved counts resolved and
// closed. High priority is taken from the complaint list itself.
func ComputeStats(total int, byStatus map[string]int, complaints []Complaint) Stats {
	stats := Stats{Total: total}
	for key, n := range byStatus {
		s, ok := ParseStatus(key)
		if !ok {
			continue
		}
		if s.Done() {
			stats.Resolved += n
		} else {
			stats.Pending += n
		}
	}
	for _, c := range complaints {
		if c.Priority == complaint.UrgencyHigh && !c.Status.Done() {
			stats.HighPriority++
		}
	}
	return stats
}
