package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const csvContentType = "text/csv"

// ObjectStore receives exported files.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}

type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

var csvHeader = []string{
	"ID", "Timestamp", "Category", "Area", "Priority", "Priority Score", "Status",
	"Scheme", "Contact Name", "Phone", "Email",
	"Senior Citizen", "Low Income", "Disability", "Description",
}

// WriteCSV writes complaints in the given order.
func WriteCSV(w io.Writer, complaints []Complaint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range complaints {
		record := []string{
			c.ID,
			formatTimestamp(c.Timestamp),
			c.Category,
			c.Area,
			string(c.Priority),
			strconv.FormatFloat(c.PriorityScore, 'f', 1, 64),
			string(c.Status),
			c.Scheme,
			c.Contact.Name,
			c.Contact.Phone,
			c.Contact.Email,
			yesNo(c.Vulnerability.SeniorCitizen),
			yesNo(c.Vulnerability.LowIncome),
			yesNo(c.Vulnerability.Disability),
			c.Description,
		}
		for i := range record {
			record[i] = escapeFormula(record[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export uploads the current filtered and sorted rows as CSV and returns a
// time-limited download link.
func (v *View) Export(ctx context.Context, store ObjectStore) (Export, error) {
	frame := v.Frame()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, frame.Complaints); err != nil {
		return Export{}, fmt.Errorf("render export: %w", err)
	}

	created := v.now().UTC()
	key := fmt.Sprintf("%s/complaints-%s-%s.csv",
		v.session.OfficerID, created.Format("20060102T150405Z"), uuid.NewString()[:8])

	if err := store.PutObject(ctx, key, &buf, int64(buf.Len()), csvContentType); err != nil {
		return Export{}, fmt.Errorf("upload export: %w", err)
	}
	url, err := store.PresignedURL(ctx, key)
	if err != nil {
		return Export{}, fmt.Errorf("presign export: %w", err)
	}

	return Export{Key: key, URL: url, Rows: len(frame.Complaints), CreatedAt: created}, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// escapeFormula stops spreadsheet apps from evaluating citizen-supplied text.
func escapeFormula(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
