// Package session issues and checks officer sessions. A Session is created
// at login, handed explicitly to whatever needs it and destroyed at logout.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired session token")
	ErrRevoked      = errors.New("session has been signed out")
)

// Session is read-only once issued.
type Session struct {
	ID         string    `json:"id"`
	OfficerID  string    `json:"officer_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Officer is the identity a session is issued for.
type Officer struct {
	ID         string
	Email      string
	Name       string
	Role       string
	Department string
}

// Claims is the JWT payload. The session ID travels as the token ID.
type Claims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	jwt.RegisteredClaims
}

// Manager signs, parses and revokes session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Issue starts a session for o and returns its signed token.
func (m *Manager) Issue(o Officer) (string, Session, error) {
	now := m.now().UTC().Truncate(time.Second)
	s := Session{
		ID:         uuid.NewString(),
		OfficerID:  o.ID,
		Email:      o.Email,
		Name:       o.Name,
		Role:       o.Role,
		Department: o.Department,
		IssuedAt:   now,
		ExpiresAt:  now.Add(m.ttl),
	}

	claims := Claims{
		UserID:     s.OfficerID,
		Email:      s.Email,
		Name:       s.Name,
		Role:       s.Role,
		Department: s.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.OfficerID,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, s, nil
}

// Parse validates a token and returns its session.
func (m *Manager) Parse(token string) (Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return Session{}, ErrInvalidToken
	}

	m.mu.Lock()
	_, revoked := m.revoked[claims.ID]
	m.mu.Unlock()
	if revoked {
		return Session{}, ErrRevoked
	}

	s := Session{
		ID:         claims.ID,
		OfficerID:  claims.UserID,
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       claims.Role,
		Department: claims.Department,
		ExpiresAt:  claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return s, nil
}

// Revoke destroys s. Revocations are forgotten once the token would have
// expired anyway.
func (m *Manager) Revoke(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, id)
		}
	}
	m.revoked[s.ID] = s.ExpiresAt
}
