package complaint

// SubmissionResult is the backend's analysis of a submitted complaint,
// scaled for display.
type SubmissionResult struct {
	ReferenceID        string   `json:"reference_id" bson:"reference_id"`
	Category           string   `json:"category" bson:"category"`
	Confidence         float64  `json:"confidence" bson:"confidence"`
	PriorityScore      float64  `json:"priority_score" bson:"priority_score"`
	SuggestedScheme    string   `json:"suggested_scheme" bson:"suggested_scheme"`
	SchemeExplanation  string   `json:"scheme_explanation" bson:"scheme_explanation"`
	UrgencyExplanation string   `json:"urgency_explanation" bson:"urgency_explanation"`
	NextSteps          []string `json:"next_steps" bson:"next_steps"`
	Band               Band     `json:"priority_band" bson:"priority_band"`
}

// Band is the display severity of a 0–100 priority score. It is presentation
// only; categorization is decided by the backend.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// PriorityBand partitions scores at 50 and 70: [70,∞) high, [50,70) medium,
// everything else (including NaN) low.
func PriorityBand(score float64) Band {
	switch {
	case score >= 70:
		return BandHigh
	case score >= 50:
		return BandMedium
	default:
		return BandLow
	}
}

// Urgency maps the band onto the urgency scale used by dashboard rows.
func (b Band) Urgency() Urgency {
	return Urgency(b)
}

// NextSteps is the fixed guidance shown after a successful submission.
func NextSteps(b Band) []string {
	resolution := "Expected resolution time: 3-7 working days based on priority"
	switch b {
	case BandHigh:
		resolution = "Expected resolution time: 1-3 working days based on priority"
	case BandLow:
		resolution = "Expected resolution time: 7-14 working days based on priority"
	}
	return []string{
		"Your complaint has been registered and assigned a reference number",
		"An officer will review and verify your complaint within 24 hours",
		"You will receive SMS updates on your registered phone number",
		resolution,
	}
}
