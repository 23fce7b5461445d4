package complaint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeText(t *testing.T) {
	d := validDraft()
	d.Vulnerability.SeniorCitizen = true

	want := "No water for 3 days in my street\n\n" +
		"--- Additional Details ---\n" +
		"Service Type: water\n" +
		"Urgency: high\n" +
		"Contact Name: Asha\n" +
		"Phone: 9876543210\n" +
		"Email: \n" +
		"Senior Citizen: Yes\n" +
		"Low Income: No\n" +
		"Disability: No\n" +
		"Consent Given: Yes"

	assert.Equal(t, want, EncodeText(d))
}

func TestDecodeTextRoundTrip(t *testing.T) {
	d := validDraft()
	d.Email = "asha@example.com"
	d.Vulnerability = Vulnerability{LowIncome: true, Disability: true}

	got := DecodeText(EncodeText(d))

	assert.Equal(t, d.Description, got.Narrative)
	assert.Equal(t, d.ServiceType, got.ServiceType)
	assert.Equal(t, d.Urgency, got.Urgency)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, d.Phone, got.Phone)
	assert.Equal(t, d.Email, got.Email)
	assert.Equal(t, d.Vulnerability, got.Vulnerability)
	assert.True(t, got.Consent)
}

func TestDecodeTextWithoutDelimiter(t *testing.T) {
	got := DecodeText("  Garbage not collected for 5 days ")

	assert.Equal(t, "Garbage not collected for 5 days", got.Narrative)
	assert.Empty(t, got.Name)
}

func TestEncodeTextFoldsLineBreaks(t *testing.T) {
	d := validDraft()
	d.Name = "Asha\nPhone: 0000000000"

	text := EncodeText(d)
	got := DecodeText(text)

	assert.Equal(t, "Asha Phone: 0000000000", got.Name)
	assert.Equal(t, "9876543210", got.Phone)
	assert.Equal(t, 1, strings.Count(text, "\nPhone: "))
}

func TestDecodeTextNarrativeQuotingDelimiter(t *testing.T) {
	d := validDraft()
	d.Description = "Someone wrote --- Additional Details --- on the wall"

	got := DecodeText(EncodeText(d))

	assert.Equal(t, d.Description, got.Narrative)
	assert.Equal(t, "Asha", got.Name)
}
