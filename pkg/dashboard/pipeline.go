package dashboard

import (
	"fmt"
	"slices"
	"strings"
)

// Sentinel filter values meaning "no filter".
const (
	AllCategories = "All Categories"
	AllAreas      = "All Areas"
	AllStatuses   = "All Statuses"
)

// Categories and FilterAreas are the dropdown choices, sentinel first.
var (
	Categories = []string{
		AllCategories, "Water Supply", "Road Maintenance", "Healthcare", "Housing",
		"Social Welfare", "Electricity", "Sanitation", "General",
	}
	FilterAreas = []string{
		AllAreas, "Anna Nagar", "T. Nagar", "Mylapore", "Adyar", "Velachery",
		"Chromepet", "Tambaram", "Guindy", "Other",
	}
)

type FilterState struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Area     string `json:"area"`
	Status   string `json:"status"`
}

func DefaultFilter() FilterState {
	return FilterState{
		Category: AllCategories,
		Area:     AllAreas,
		Status:   AllStatuses,
	}
}

// Normalize fills empty dropdowns with their sentinel.
func (f FilterState) Normalize() FilterState {
	if f.Category == "" {
		f.Category = AllCategories
	}
	if f.Area == "" {
		f.Area = AllAreas
	}
	if f.Status == "" {
		f.Status = AllStatuses
	}
	return f
}

// Match reports whether c passes every active filter.
func (f FilterState) Match(c Complaint) bool {
	if q := strings.ToLower(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(c.Description), q) &&
			!strings.Contains(strings.ToLower(c.ID), q) &&
			!strings.Contains(strings.ToLower(c.Contact.Name), q) {
			return false
		}
	}
	if f.Category != AllCategories && c.Category != f.Category {
		return false
	}
	if f.Area != AllAreas && c.Area != f.Area {
		return false
	}
	if f.Status != AllStatuses && string(c.Status) != f.Status {
		return false
	}
	return true
}

// Filter returns the complaints matching f, in input order.
func Filter(complaints []Complaint, f FilterState) []Complaint {
	f = f.Normalize()
	out := make([]Complaint, 0, len(complaints))
	for _, c := range complaints {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

type SortField string

const (
	SortTimestamp SortField = "timestamp"
	SortPriority  SortField = "priority"
	SortCategory  SortField = "category"
	SortArea      SortField = "area"
	SortStatus    SortField = "status"
)

func ParseSortField(v string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(v))); f {
	case SortTimestamp, SortPriority, SortCategory, SortArea, SortStatus:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortField, v)
	}
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

func (d SortDirection) multiplier() int {
	if d == Ascending {
		return 1
	}
	return -1
}

type SortState struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

func DefaultSort() SortState {
	return SortState{Field: SortTimestamp, Direction: Descending}
}

// Toggle flips the direction when field is already active, otherwise it
// selects field in descending order.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field {
		if s.Direction == Ascending {
			s.Direction = Descending
		} else {
			s.Direction = Ascending
		}
		return s
	}
	return SortState{Field: field, Direction: Descending}
}

func compare(a, b Complaint, field SortField) int {
	switch field {
	case SortTimestamp:
		return a.Timestamp.Compare(b.Timestamp)
	case SortPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case SortCategory:
		return strings.Compare(a.Category, b.Category)
	case SortArea:
		return strings.Compare(a.Area, b.Area)
	case SortStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	default:
		return 0
	}
}

// Sort returns a stably sorted copy of complaints.
func Sort(complaints []Complaint, s SortState) []Complaint {
	out := slices.Clone(complaints)
	m := s.Direction.multiplier()
	slices.SortStableFunc(out, func(a, b Complaint) int {
		return m * compare(a, b, s.Field)
	})
	return out
}

// Apply filters then sorts. The input slice is not modified.
func Apply(complaints []Complaint, f FilterState, s SortState) []Complaint {
	return Sort(Filter(complaints, f), s)
}
