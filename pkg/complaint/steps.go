package complaint

import "unicode/utf8"

// Step is one page of the complaint wizard. Each variant carries only the
// slice of the draft it edits.
type Step interface {
	Number() int
	Label() string
}

type DescribeStep struct {
	Description string `json:"description"`
	Area        string `json:"area"`
}

type CategoryStep struct {
	ServiceType ServiceType `json:"service_type"`
}

type UrgencyStep struct {
	Urgency Urgency `json:"urgency"`
}

type VulnerabilityStep struct {
	Vulnerability Vulnerability `json:"vulnerability"`
}

type ContactStep struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Consent bool   `json:"consent"`
}

func (DescribeStep) Number() int      { return 1 }
func (CategoryStep) Number() int      { return 2 }
func (UrgencyStep) Number() int       { return 3 }
func (VulnerabilityStep) Number() int { return 4 }
func (ContactStep) Number() int       { return 5 }

func (DescribeStep) Label() string      { return "Describe" }
func (CategoryStep) Label() string      { return "Category" }
func (UrgencyStep) Label() string       { return "Urgency" }
func (VulnerabilityStep) Label() string { return "Vulnerability" }
func (ContactStep) Label() string       { return "Contact" }

// StepLabels are the stepper captions in order.
var StepLabels = []string{"Describe", "Category", "Urgency", "Vulnerability", "Contact"}

// StepFor projects the draft onto the variant for the given step number.
// It returns nil for numbers outside the wizard.
func StepFor(step int, d Draft) Step {
	switch step {
	case 1:
		return DescribeStep{Description: d.Description, Area: d.Area}
	case 2:
		return CategoryStep{ServiceType: d.ServiceType}
	case 3:
		return UrgencyStep{Urgency: d.Urgency}
	case 4:
		return VulnerabilityStep{Vulnerability: d.Vulnerability}
	case 5:
		return ContactStep{Name: d.Name, Phone: d.Phone, Email: d.Email, Consent: d.Consent}
	default:
		return nil
	}
}

// Option is one selectable choice on a step.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Selected    bool   `json:"selected"`
}

// StepView is what a client needs to draw a step.
type StepView struct {
	Number     int      `json:"number"`
	Total      int      `json:"total"`
	Label      string   `json:"label"`
	Title      string   `json:"title"`
	Hint       string   `json:"hint,omitempty"`
	Data       Step     `json:"data"`
	Options    []Option `json:"options,omitempty"`
	CharCount  int      `json:"char_count,omitempty"`
	CharLimit  int      `json:"char_limit,omitempty"`
	Optional   bool     `json:"optional"`
	Labels     []string `json:"labels"`
	IsLastStep bool     `json:"is_last_step"`
}

var serviceDescriptions = map[ServiceType]string{
	ServiceWater:       "Water supply issues",
	ServiceRoad:        "Road & infrastructure",
	ServiceHealth:      "Healthcare services",
	ServiceHousing:     "Housing assistance",
	ServiceWelfare:     "Social welfare",
	ServiceElectricity: "Power supply issues",
	ServiceSanitation:  "Cleanliness & waste",
	ServiceOther:       "Other services",
}

var urgencyDescriptions = map[Urgency]string{
	UrgencyLow:    "Issue can wait. No immediate impact on daily life.",
	UrgencyMedium: "Issue needs attention soon but not immediately critical.",
	UrgencyHigh:   "Urgent! Issue is affecting health, safety, or essential services.",
}

// Render maps a step variant to its view. It is pure.
func Render(s Step) StepView {
	v := StepView{
		Total:  FinalStep,
		Labels: StepLabels,
		Data:   s,
	}
	if s == nil {
		return v
	}
	v.Number = s.Number()
	v.Label = s.Label()
	v.IsLastStep = v.Number == FinalStep

	switch step := s.(type) {
	case DescribeStep:
		v.Title = "Describe your issue"
		v.CharCount = utf8.RuneCountInString(step.Description)
		v.CharLimit = MaxDescriptionLength
		for _, a := range Areas {
			v.Options = append(v.Options, Option{Value: a, Label: a, Selected: a == step.Area})
		}
	case CategoryStep:
		v.Title = "Which service is affected?"
		for _, st := range ServiceTypes {
			v.Options = append(v.Options, Option{
				Value:       string(st),
				Label:       st.Label(),
				Description: serviceDescriptions[st],
				Selected:    st == step.ServiceType,
			})
		}
	case UrgencyStep:
		v.Title = "How urgent is it?"
		for _, u := range Urgencies {
			v.Options = append(v.Options, Option{
				Value:       string(u),
				Label:       u.Label() + " Priority",
				Description: urgencyDescriptions[u],
				Selected:    u == step.Urgency,
			})
		}
	case VulnerabilityStep:
		v.Title = "Does any of this apply to you?"
		v.Optional = true
		v.Hint = "This step is optional. Click Next to skip if not applicable."
		v.Options = []Option{
			{Value: "senior_citizen", Label: "Senior Citizen", Selected: step.Vulnerability.SeniorCitizen},
			{Value: "low_income", Label: "Low Income", Selected: step.Vulnerability.LowIncome},
			{Value: "disability", Label: "Disability", Selected: step.Vulnerability.Disability},
		}
	case ContactStep:
		v.Title = "How can we reach you?"
		v.Hint = "We'll use this to send you updates about your complaint"
	}
	return v
}
