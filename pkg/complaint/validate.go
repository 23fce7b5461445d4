package complaint

import (
	"strings"
	"unicode/utf8"
)

const (
	FirstStep   = 1
	FinalStep   = 5
	PhoneDigits = 10
)

// Validate reports whether the given step of d is complete enough to leave.
// Steps outside [FirstStep, FinalStep] are never valid. Lengths count
// characters, not bytes.
func Validate(d Draft, step int) bool {
	switch step {
	case 1:
		return utf8.RuneCountInString(strings.TrimSpace(d.Description)) > 10 && d.Area != ""
	case 2:
		return d.ServiceType != ""
	case 3:
		return d.Urgency != ""
	case 4:
		// vulnerability is optional
		return true
	case 5:
		return strings.TrimSpace(d.Name) != "" &&
			utf8.RuneCountInString(d.Phone) == PhoneDigits &&
			d.Consent
	default:
		return false
	}
}
