package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"civisense/pkg/session"
	"civisense/services/auth-service/models"
	"civisense/services/auth-service/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOfficers struct {
	mu      sync.Mutex
	byID    map[string]models.Officer
	pingErr error
}

func newMemOfficers() *memOfficers {
	return &memOfficers{byID: map[string]models.Officer{}}
}

func (m *memOfficers) FindByEmail(_ context.Context, email string) (models.Officer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.Email == normalizeEmail(email) {
			return o, nil
		}
	}
	return models.Officer{}, ErrOfficerNotFound
}

func (m *memOfficers) FindByID(_ context.Context, id string) (models.Officer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return models.Officer{}, ErrOfficerNotFound
	}
	return o, nil
}

func (m *memOfficers) Create(_ context.Context, o *models.Officer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uuid.NewString()
	m.byID[o.ID] = *o
	return nil
}

func (m *memOfficers) CountByRole(context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, o := range m.byID {
		counts[o.Role]++
	}
	return counts, nil
}

func (m *memOfficers) Ping(context.Context) error {
	return m.pingErr
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*authServer, *memOfficers) {
	t.Helper()
	repo := newMemOfficers()
	srv := &authServer{officers: repo, sessions: session.NewManager("test-secret", time.Hour)}
	created, err := srv.seedAdmin(context.Background(), "Admin@CiviSense.gov.in", "admin-pass-1", "District Admin")
	require.NoError(t, err)
	require.True(t, created)
	return srv, repo
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func login(t *testing.T, h http.Handler, email, password string) tokenResponse {
	t.Helper()
	code, env := call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, env.Message)
	var tok tokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	return tok
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	srv, repo := newTestServer(t)

	created, err := srv.seedAdmin(context.Background(), "admin@civisense.gov.in", "admin-pass-1", "District Admin")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, repo.byID, 1)

	o, err := repo.FindByEmail(context.Background(), "admin@civisense.gov.in")
	require.NoError(t, err)
	assert.NotEqual(t, "admin-pass-1", o.Password)
	assert.True(t, utils.CheckPasswordHash("admin-pass-1", o.Password))
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	tok := login(t, h, "admin@civisense.gov.in", "admin-pass-1")
	assert.Equal(t, models.RoleAdmin, tok.Role)

	sess, err := srv.sessions.Parse(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, sess.OfficerID)
	assert.Equal(t, "District Admin", sess.Name)

	code, env := call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@civisense.gov.in", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", env.Message)

	code, env = call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@civisense.gov.in", "password": "whatever1"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", env.Message)

	code, _ = call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@civisense.gov.in"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRegisterOfficer(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()
	admin := login(t, h, "admin@civisense.gov.in", "admin-pass-1")

	input := map[string]string{
		"email": "meena@civisense.gov.in", "password": "officer-pass", "name": "Meena",
		"department": "Water",
	}

	code, _ := call(t, h, http.MethodPost, "/api/auth/officers", "", input)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := call(t, h, http.MethodPost, "/api/auth/officers", admin.Token, input)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created models.Officer
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.RoleOfficer, created.Role)
	assert.Equal(t, "water", created.Department)
	assert.NotContains(t, string(env.Data), "officer-pass")

	code, _ = call(t, h, http.MethodPost, "/api/auth/officers", admin.Token, input)
	assert.Equal(t, http.StatusConflict, code)

	officer := login(t, h, "meena@civisense.gov.in", "officer-pass")
	code, _ = call(t, h, http.MethodPost, "/api/auth/officers", officer.Token, map[string]string{
		"email": "ravi@civisense.gov.in", "password": "officer-pass", "name": "Ravi",
	})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestNewOfficerValidation(t *testing.T) {
	tests := []struct {
		name, email, password, person, role, dept, want string
	}{
		{"missing", "", "password1", "Meena", "", "", "Email, Password, and Name are required"},
		{"bad email", "meena", "password1", "Meena", "", "", "Invalid email format"},
		{"short password", "m@x.in", "short", "Meena", "", "", "Password must be at least 8 characters"},
		{"long password", "m@x.in", strings.Repeat("p", 73), "Meena", "", "", "Password too long"},
		{"short name", "m@x.in", "password1", " Me ", "", "", "Name must be at least 3 characters"},
		{"bad role", "m@x.in", "password1", "Meena", "citizen", "", "Role must be officer or admin"},
		{"bad department", "m@x.in", "password1", "Meena", "", "police", "Unknown department"},
		{"ok", "M@X.in", "password1", "Meena", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, msg := newOfficer(tt.email, tt.password, tt.person, tt.role, tt.dept)
			assert.Equal(t, tt.want, msg)
			if tt.want == "" {
				require.NotNil(t, o)
				assert.Equal(t, "m@x.in", o.Email)
				assert.Equal(t, "general", o.Department)
			}
		})
	}
}

func TestMe(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()
	admin := login(t, h, "admin@civisense.gov.in", "admin-pass-1")

	code, env := call(t, h, http.MethodGet, "/api/auth/me", admin.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var me models.Officer
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, admin.ID, me.ID)

	ghost, _, err := srv.sessions.Issue(session.Officer{ID: "gone", Role: models.RoleOfficer})
	require.NoError(t, err)
	code, _ = call(t, h, http.MethodGet, "/api/auth/me", ghost, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealth(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"connected"`)

	repo.pingErr = errors.New("connection refused")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
