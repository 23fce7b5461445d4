package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"civisense/pkg/response"
	"civisense/pkg/session"
)

type sessionKey struct{}

// SessionParser turns a bearer token into a live session.
type SessionParser interface {
	Parse(token string) (session.Session, error)
}

func WithSession(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(session.Session)
	return s, ok
}

// AuthMiddleware requires a valid session token. EventSource clients cannot
// set headers, so a token query parameter is accepted as a fallback.
func AuthMiddleware(sessions SessionParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.URL.Query().Get("token")
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
				if tokenString == authHeader {
					response.Error(w, http.StatusUnauthorized, "Invalid token format", "Format must be Bearer <token>")
					return
				}
			}
			if tokenString == "" {
				response.Error(w, http.StatusUnauthorized, "Missing Authorization header", "")
				return
			}

			s, err := sessions.Parse(tokenString)
			if err != nil {
				message := "Invalid or expired token"
				if errors.Is(err, session.ErrRevoked) {
					message = "Session has been signed out"
				}
				response.Error(w, http.StatusUnauthorized, message, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
