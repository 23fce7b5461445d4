package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"civisense/pkg/middleware"
	"civisense/pkg/response"
	"civisense/pkg/session"
	"civisense/services/auth-service/models"
	"civisense/services/auth-service/utils"

	"go.uber.org/zap"
)

var departments = map[string]bool{
	"general": true, "water": true, "roads": true, "health": true, "housing": true,
	"welfare": true, "electricity": true, "sanitation": true,
}

type authServer struct {
	officers OfficerRepository
	sessions *session.Manager
}

func (s *authServer) routes() http.Handler {
	mux := http.NewServeMux()

	auth := middleware.AuthMiddleware(s.sessions)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("POST /api/auth/officers", auth(middleware.RequireRole(models.RoleAdmin)(http.HandlerFunc(s.register))))
	mux.Handle("GET /api/auth/me", auth(http.HandlerFunc(s.me)))

	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", middleware.GetMetricsHandler())

	return middleware.TraceMiddleware(
		middleware.MetricsMiddleware(
			middleware.LoggerMiddleware(mux),
		),
	)
}

type tokenResponse struct {
	ID         string    `json:"id"`
	Token      string    `json:"token"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s *authServer) login(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r)

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := response.DecodeJSON(w, r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if input.Email == "" || input.Password == "" {
		response.Error(w, http.StatusBadRequest, "Email and Password are required", "")
		return
	}

	officer, err := s.officers.FindByEmail(r.Context(), input.Email)
	if err != nil {
		if !errors.Is(err, ErrOfficerNotFound) {
			middleware.LogError(traceID, "Failed to look up officer", err)
			response.Error(w, http.StatusInternalServerError, "Failed to process login", "")
			return
		}
		middleware.LogInfo(traceID, "Failed login attempt")
		response.Error(w, http.StatusUnauthorized, "Invalid email or password", "")
		return
	}
	if !utils.CheckPasswordHash(input.Password, officer.Password) {
		middleware.LogInfo(traceID, "Invalid password attempt", zap.String("officer_id", officer.ID))
		response.Error(w, http.StatusUnauthorized, "Invalid email or password", "")
		return
	}

	token, sess, err := s.sessions.Issue(officer.Identity())
	if err != nil {
		middleware.LogError(traceID, "Failed to issue session", err)
		response.Error(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	middleware.LogInfo(traceID, "Officer logged in",
		zap.String("officer_id", officer.ID),
		zap.String("role", officer.Role),
		zap.String("department", officer.Department),
	)
	response.Success(w, http.StatusOK, "Login successful", tokenResponse{
		ID:         officer.ID,
		Token:      token,
		Name:       officer.Name,
		Role:       officer.Role,
		Department: officer.Department,
		ExpiresAt:  sess.ExpiresAt,
	})
}

// register creates an officer account. Only admins may call it.
func (s *authServer) register(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r)

	var input struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		Role       string `json:"role"`
		Department string `json:"department"`
	}
	if err := response.DecodeJSON(w, r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	officer, msg := newOfficer(input.Email, input.Password, input.Name, input.Role, input.Department)
	if msg != "" {
		response.Error(w, http.StatusBadRequest, msg, "")
		return
	}

	if err := s.create(r.Context(), officer); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Error(w, http.StatusConflict, "Email already registered", "")
			return
		}
		middleware.LogError(traceID, "Failed to save officer", err)
		response.Error(w, http.StatusInternalServerError, "Failed to save officer", "")
		return
	}

	middleware.LogInfo(traceID, "Officer registered", zap.String("officer_id", officer.ID))
	response.Success(w, http.StatusCreated, "Officer registered successfully", officer)
}

// create hashes the password and stores the officer.
func (s *authServer) create(ctx context.Context, o *models.Officer) error {
	if _, err := s.officers.FindByEmail(ctx, o.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrOfficerNotFound) {
		return err
	}

	hashed, err := utils.HashPassword(o.Password)
	if err != nil {
		return err
	}
	o.Password = hashed
	return s.officers.Create(ctx, o)
}

// newOfficer validates registration input. A non-empty message means the
// input was rejected.
func newOfficer(email, password, name, role, department string) (*models.Officer, string) {
	if email == "" || password == "" || name == "" {
		return nil, "Email, Password, and Name are required"
	}
	if !utils.IsValidEmail(email) {
		return nil, "Invalid email format"
	}
	if ok, msg := utils.IsValidPassword(password); !ok {
		return nil, msg
	}
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return nil, "Name must be at least 3 characters"
	}

	if role == "" {
		role = models.RoleOfficer
	}
	if role != models.RoleOfficer && role != models.RoleAdmin {
		return nil, "Role must be officer or admin"
	}
	department = strings.ToLower(strings.TrimSpace(department))
	if department == "" {
		department = "general"
	}
	if !departments[department] {
		return nil, "Unknown department"
	}

	return &models.Officer{
		Email:      normalizeEmail(email),
		Password:   password,
		Name:       name,
		Role:       role,
		Department: department,
	}, ""
}

func (s *authServer) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve session", "")
		return
	}

	officer, err := s.officers.FindByID(r.Context(), sess.OfficerID)
	if err != nil {
		if errors.Is(err, ErrOfficerNotFound) {
			response.Error(w, http.StatusNotFound, "Officer not found", "")
			return
		}
		middleware.LogError(middleware.GetTraceID(r), "Failed to load officer", err)
		response.Error(w, http.StatusInternalServerError, "Failed to load profile", "")
		return
	}

	response.Success(w, http.StatusOK, "Officer profile fetched", officer)
}

func (s *authServer) health(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "UP",
		"service": "auth-service",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.officers.Ping(ctx); err != nil {
		health["status"] = "DOWN"
		health["database"] = "disconnected"
		response.JSON(w, http.StatusServiceUnavailable, health)
		return
	}
	health["database"] = "connected"

	if counts, err := s.officers.CountByRole(ctx); err == nil {
		health["officers"] = counts
	}
	response.JSON(w, http.StatusOK, health)
}

// seedAdmin makes sure the configured admin account exists.
func (s *authServer) seedAdmin(ctx context.Context, email, password, name string) (bool, error) {
	officer, msg := newOfficer(email, password, name, models.RoleAdmin, "general")
	if msg != "" {
		return false, errors.New(msg)
	}
	err := s.create(ctx, officer)
	if errors.Is(err, ErrEmailTaken) {
		return false, nil
	}
	return err == nil, err
}
