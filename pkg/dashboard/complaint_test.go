package dashboard

import (
	"testing"

	"civisense/pkg/complaint"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"New", StatusNew, true},
		{"new", StatusNew, true},
		{"Scheme Linked", StatusSchemeLinked, true},
		{"scheme_linked", StatusSchemeLinked, true},
		{"SCHEME-LINKED", StatusSchemeLinked, true},
		{" resolved ", StatusResolved, true},
		{"closed", StatusClosed, true},
		{"escalated", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestStatusWireAndValid(t *testing.T) {
	assert.Equal(t, "scheme_linked", StatusSchemeLinked.Wire())
	assert.Equal(t, "resolved", StatusResolved.Wire())

	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
		back, ok := ParseStatus(s.Wire())
		assert.True(t, ok)
		assert.Equal(t, s, back)
	}
	assert.False(t, Status("resolved").Valid(), "wire form is not a display status")
	assert.False(t, Status("").Valid())
}

func TestComputeStats(t *testing.T) {
	byStatus := map[string]int{
		"new":           4,
		"verified":      1,
		"scheme_linked": 2,
		"assigned":      3,
		"resolved":      5,
		"closed":        1,
		"unknown":       9,
	}
	list := []Complaint{
		{ID: "1", Priority: complaint.UrgencyHigh, Status: StatusNew},
		{ID: "2", Priority: complaint.UrgencyHigh, Status: StatusResolved},
		{ID: "3", Priority: complaint.UrgencyHigh, Status: StatusClosed},
		{ID: "4", Priority: complaint.UrgencyMedium, Status: StatusAssigned},
		{ID: "5", Priority: complaint.UrgencyHigh, Status: StatusSchemeLinked},
	}

	stats := ComputeStats(16, byStatus, list)

	assert.Equal(t, Stats{Total: 16, Pending: 10, Resolved: 6, HighPriority: 2}, stats)
}

func TestComputeStatsEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(0, nil, nil))
}
