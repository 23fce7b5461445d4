// Package complaint holds the citizen complaint wizard: the draft being
// edited, the five form steps, the validation rules and the form state
// machine that drives a draft through submission.
package complaint

import "strings"

type ServiceType string

const (
	ServiceWater       ServiceType = "water"
	ServiceRoad        ServiceType = "road"
	ServiceHealth      ServiceType = "health"
	ServiceHousing     ServiceType = "housing"
	ServiceWelfare     ServiceType = "welfare"
	ServiceElectricity ServiceType = "electricity"
	ServiceSanitation  ServiceType = "sanitation"
	ServiceOther       ServiceType = "other"
)

// ServiceTypes lists the selectable service types in display order.
var ServiceTypes = []ServiceType{
	ServiceWater, ServiceRoad, ServiceHealth, ServiceHousing,
	ServiceWelfare, ServiceElectricity, ServiceSanitation, ServiceOther,
}

func (s ServiceType) Valid() bool {
	for _, v := range ServiceTypes {
		if v == s {
			return true
		}
	}
	return false
}

// Label is the human readable name shown on the category step.
func (s ServiceType) Label() string {
	return capitalize(string(s))
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}

func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

func (u Urgency) Label() string {
	return capitalize(string(u))
}

// Rank orders urgencies low < medium < high. Unknown values rank 0.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	default:
		return 0
	}
}

// Areas are the localities offered on the describe step.
var Areas = []string{
	"Anna Nagar", "T. Nagar", "Mylapore", "Adyar", "Velachery", "Chromepet",
	"Tambaram", "Guindy", "Egmore", "Nungambakkam", "Kodambakkam",
	"Royapettah", "Triplicane", "Perambur", "Kolathur", "Other",
}

// MaxDescriptionLength caps the narrative the describe step accepts.
const MaxDescriptionLength = 1000

type Vulnerability struct {
	SeniorCitizen bool `json:"senior_citizen" bson:"senior_citizen"`
	LowIncome     bool `json:"low_income" bson:"low_income"`
	Disability    bool `json:"disability" bson:"disability"`
}

// Any reports whether at least one flag is set.
func (v Vulnerability) Any() bool {
	return v.SeniorCitizen || v.LowIncome || v.Disability
}

// Draft is the in-progress complaint owned by a single Form.
type Draft struct {
	Description   string        `json:"description" bson:"description"`
	Area          string        `json:"area" bson:"area"`
	ServiceType   ServiceType   `json:"service_type" bson:"service_type"`
	Urgency       Urgency       `json:"urgency" bson:"urgency"`
	Vulnerability Vulnerability `json:"vulnerability" bson:"vulnerability"`
	Name          string        `json:"name" bson:"name"`
	Phone         string        `json:"phone" bson:"phone"`
	Email         string        `json:"email" bson:"email"`
	Consent       bool          `json:"consent" bson:"consent"`
}

// NewDraft returns the initial draft a form starts from.
func NewDraft() Draft {
	return Draft{
		ServiceType: ServiceOther,
		Urgency:     UrgencyMedium,
	}
}

// Patch is a partial update of a Draft. Nil fields are left untouched.
type Patch struct {
	Description   *string        `json:"description,omitempty"`
	Area          *string        `json:"area,omitempty"`
	ServiceType   *ServiceType   `json:"service_type,omitempty"`
	Urgency       *Urgency       `json:"urgency,omitempty"`
	Vulnerability *Vulnerability `json:"vulnerability,omitempty"`
	SeniorCitizen *bool          `json:"senior_citizen,omitempty"`
	LowIncome     *bool          `json:"low_income,omitempty"`
	Disability    *bool          `json:"disability,omitempty"`
	Name          *string        `json:"name,omitempty"`
	Phone         *string        `json:"phone,omitempty"`
	Email         *string        `json:"email,omitempty"`
	Consent       *bool          `json:"consent,omitempty"`
}

// Apply merges p into d.
func (d *Draft) Apply(p Patch) {
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Area != nil {
		d.Area = *p.Area
	}
	if p.ServiceType != nil {
		d.ServiceType = *p.ServiceType
	}
	if p.Urgency != nil {
		d.Urgency = *p.Urgency
	}
	if p.Vulnerability != nil {
		d.Vulnerability = *p.Vulnerability
	}
	if p.SeniorCitizen != nil {
		d.Vulnerability.SeniorCitizen = *p.SeniorCitizen
	}
	if p.LowIncome != nil {
		d.Vulnerability.LowIncome = *p.LowIncome
	}
	if p.Disability != nil {
		d.Vulnerability.Disability = *p.Disability
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Phone != nil {
		d.Phone = *p.Phone
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.Consent != nil {
		d.Consent = *p.Consent
	}
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
