package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// Subject is the identity a caller proved with a verified token.
type Subject struct {
	ID       int64
	Username string
}

type contextKey string

// SubjectKey is the context key for the authenticated subject.
const SubjectKey = contextKey("subject")

// WithSubject returns a copy of ctx carrying s.
func WithSubject(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, SubjectKey, s)
}

// SubjectFromContext returns the subject stored by the middleware.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	s, ok := ctx.Value(SubjectKey).(Subject)
	return s, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <t>" header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (s *TokenService) subjectFromRequest(r *http.Request) (Subject, bool) {
	tokenStr, ok := bearerToken(r)
	if !ok {
		return Subject{}, false
	}
	claims, err := s.Verify(tokenStr)
	if err != nil {
		return Subject{}, false
	}
	id, err := claims.SubjectID()
	if err != nil {
		return Subject{}, false
	}
	return Subject{ID: id, Username: claims.Username}, true
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// otherwise passes the subject down via the request context.
func (s *TokenService) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := s.subjectFromRequest(r)
		if !ok {
			log.Debug().Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}

// OptionalAuth attaches the subject when a valid token is present and lets
// anonymous requests through untouched.
func (s *TokenService) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subject, ok := s.subjectFromRequest(r); ok {
			r = r.WithContext(WithSubject(r.Context(), subject))
		}
		next.ServeHTTP(w, r)
	})
}
