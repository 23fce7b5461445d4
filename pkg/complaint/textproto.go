package complaint

import (
	"regexp"
	"strings"
)

// DetailsDelimiter separates the citizen narrative from the structured
// key: value block in the text sent to the categorization backend.
const DetailsDelimiter = "--- Additional Details ---"

var (
	contactNameRe   = regexp.MustCompile(`(?m)^Contact Name: (.*)$`)
	phoneRe         = regexp.MustCompile(`(?m)^Phone: (.*)$`)
	emailRe         = regexp.MustCompile(`(?m)^Email: (.*)$`)
	serviceTypeRe   = regexp.MustCompile(`(?m)^Service Type: (.*)$`)
	urgencyRe       = regexp.MustCompile(`(?m)^Urgency: (.*)$`)
	seniorCitizenRe = regexp.MustCompile(`(?m)^Senior Citizen: (.*)$`)
	lowIncomeRe     = regexp.MustCompile(`(?m)^Low Income: (.*)$`)
	disabilityRe    = regexp.MustCompile(`(?m)^Disability: (.*)$`)
	consentRe       = regexp.MustCompile(`(?m)^Consent Given: (.*)$`)

	lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

// EncodeText renders d as the single free-text body the backend accepts.
func EncodeText(d Draft) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(d.Description))
	b.WriteString("\n\n")
	b.WriteString(DetailsDelimiter)
	b.WriteString("\n")
	writeLine(&b, "Service Type", string(d.ServiceType))
	writeLine(&b, "Urgency", string(d.Urgency))
	writeLine(&b, "Contact Name", d.Name)
	writeLine(&b, "Phone", d.Phone)
	writeLine(&b, "Email", d.Email)
	writeLine(&b, "Senior Citizen", yesNo(d.Vulnerability.SeniorCitizen))
	writeLine(&b, "Low Income", yesNo(d.Vulnerability.LowIncome))
	writeLine(&b, "Disability", yesNo(d.Vulnerability.Disability))
	b.WriteString("Consent Given: ")
	b.WriteString(yesNo(d.Consent))
	return b.String()
}

func writeLine(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(strings.TrimSpace(lineBreaks.Replace(value)))
	b.WriteString("\n")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// Details is what DecodeText recovers from a backend text body.
type Details struct {
	Narrative     string
	ServiceType   ServiceType
	Urgency       Urgency
	Name          string
	Phone         string
	Email         string
	Vulnerability Vulnerability
	Consent       bool
}

// DecodeText reverses EncodeText. The last delimiter wins so a narrative
// quoting the delimiter keeps its text. Bodies without a delimiter decode
// to a bare narrative.
func DecodeText(text string) Details {
	idx := strings.LastIndex(text, DetailsDelimiter)
	if idx < 0 {
		return Details{Narrative: strings.TrimSpace(text)}
	}

	block := text[idx+len(DetailsDelimiter):]
	return Details{
		Narrative:   strings.TrimSpace(text[:idx]),
		ServiceType: ServiceType(extract(serviceTypeRe, block)),
		Urgency:     Urgency(extract(urgencyRe, block)),
		Name:        extract(contactNameRe, block),
		Phone:       extract(phoneRe, block),
		Email:       extract(emailRe, block),
		Vulnerability: Vulnerability{
			SeniorCitizen: extract(seniorCitizenRe, block) == "Yes",
			LowIncome:     extract(lowIncomeRe, block) == "Yes",
			Disability:    extract(disabilityRe, block) == "Yes",
		},
		Consent: extract(consentRe, block) == "Yes",
	}
}

func extract(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
