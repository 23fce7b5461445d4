package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"

	"civisense/pkg/complaint"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects     map[string][]byte
	contentType string
	putErr      error
}

func (m *memStore) PutObject(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return errors.New("size mismatch")
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = b
	m.contentType = contentType
	return nil
}

func (m *memStore) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://exports.example/" + key + "?sig=1", nil
}

func TestWriteCSV(t *testing.T) {
	cs := []Complaint{{
		ID: "7", Category: "Housing", Area: "Adyar", Priority: complaint.UrgencyHigh,
		PriorityScore: 82.5, Status: StatusAssigned, Timestamp: base,
		Description:   "=HYPERLINK(\"x\")",
		Contact:       Contact{Name: "Asha", Phone: "9876543210"},
		Vulnerability: complaint.Vulnerability{SeniorCitizen: true},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, cs))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])

	row := records[1]
	assert.Equal(t, "7", row[0])
	assert.Equal(t, "2024-03-01T09:00:00Z", row[1])
	assert.Equal(t, "82.5", row[5])
	assert.Equal(t, "Assigned", row[6])
	assert.Equal(t, "Yes", row[11])
	assert.Equal(t, "No", row[12])
	assert.True(t, strings.HasPrefix(row[14], "'="), "formula is neutralised")
}

func TestEscapeFormula(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"=1+1", "'=1+1"},
		{"+91 98765", "'+91 98765"},
		{"-2", "'-2"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"\t=cmd", "'\t=cmd"},
		{"\r=cmd", "'\r=cmd"},
		{"No water", "No water"},
		{"a=b", "a=b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeFormula(tt.in), "%q", tt.in)
	}
}

func TestWriteCSVEscapesLeadingControlCharacters(t *testing.T) {
	cs := []Complaint{{ID: "9", Area: "\tAdyar", Description: "\r=HYPERLINK(\"x\")", Timestamp: base}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, cs))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, cell := range records[1] {
		if cell == "" {
			continue
		}
		assert.NotContains(t, "\t\r", cell[:1], "cell %q starts with a control character", cell)
	}
}

func TestViewExportUsesCurrentFrame(t *testing.T) {
	v := NewView(officerSession, newFakeSource(sampleComplaints()))
	defer v.Close()
	require.NoError(t, v.Refresh(context.Background()))
	v.SetFilter(FilterState{Area: "Adyar"})

	store := &memStore{}
	exp, err := v.Export(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 2, exp.Rows)
	assert.True(t, strings.HasPrefix(exp.Key, "off-1/complaints-"))
	assert.Contains(t, exp.URL, exp.Key)
	assert.Equal(t, "text/csv", store.contentType)

	records, err := csv.NewReader(bytes.NewReader(store.objects[exp.Key])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestViewExportUploadError(t *testing.T) {
	v := NewView(officerSession, newFakeSource(nil))
	defer v.Close()

	_, err := v.Export(context.Background(), &memStore{putErr: errors.New("bucket missing")})
	assert.ErrorContains(t, err, "bucket missing")
}
