// Package backend talks to the categorization service that classifies,
// prioritises and stores complaints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"civisense/pkg/complaint"
	"civisense/pkg/dashboard"
	"civisense/pkg/middleware"
)

var ErrBackendUnavailable = errors.New("categorization backend unavailable")

// RequestError describes a failed call. Transport failures carry
// StatusCode 0 and wrap ErrBackendUnavailable.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    NewHTTPClient(timeout),
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// NewHTTPClient returns a client with a pooled keep-alive transport.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// SubmitComplaint posts the encoded draft and maps the analysis for display.
func (c *Client) SubmitComplaint(ctx context.Context, d complaint.Draft) (complaint.SubmissionResult, error) {
	body := complaintRequest{
		Text:   complaint.EncodeText(d),
		Area:   d.Area,
		Status: dashboard.StatusNew.Wire(),
	}

	var out complaintResponse
	if err := c.do(ctx, "submit complaint", http.MethodPost, "/complaint", body, &out); err != nil {
		return complaint.SubmissionResult{}, err
	}
	return out.toResult(), nil
}

// FetchDashboard returns the recent complaints and the derived stats.
func (c *Client) FetchDashboard(ctx context.Context) ([]dashboard.Complaint, dashboard.Stats, error) {
	var out dashboardResponse
	if err := c.do(ctx, "fetch dashboard", http.MethodGet, "/dashboard", nil, &out); err != nil {
		return nil, dashboard.Stats{}, err
	}

	complaints := make([]dashboard.Complaint, 0, len(out.RecentHighPriority))
	for _, row := range out.RecentHighPriority {
		complaints = append(complaints, row.toComplaint())
	}
	return complaints, dashboard.ComputeStats(out.TotalComplaints, out.ByStatus, complaints), nil
}

// UpdateStatus patches one complaint's status.
func (c *Client) UpdateStatus(ctx context.Context, id string, status dashboard.Status) error {
	path := "/status/" + url.PathEscape(id)
	err := c.do(ctx, "update status", http.MethodPatch, path, statusRequest{Status: status.Wire()}, nil)

	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
		reqErr.Err = dashboard.ErrComplaintNotFound
	}
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &RequestError{Op: op, Err: fmt.Errorf("failed to marshal payload: %w", err)}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	middleware.PropagateTraceID(req, middleware.TraceIDFromContext(ctx))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		middleware.ObserveBackendCall(op, "error", time.Since(start))
		return &RequestError{Op: op, Err: fmt.Errorf("%w: %v", ErrBackendUnavailable, err)}
	}
	defer resp.Body.Close()
	middleware.ObserveBackendCall(op, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(detail))}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
