package auth

import (
	"context"
	"net/http"
	"strings"
)

// CookieName is the cookie that carries the session token.
const CookieName = "token"

// Session is proof that the caller is authenticated.
type Session struct {
	UserID string
}

// SessionProvider resolves the session for an incoming request. It returns
// nil when the request is anonymous or carries an invalid token.
type SessionProvider interface {
	Session(r *http.Request) *Session
}

// SessionProviderFunc adapts a plain function to SessionProvider.
type SessionProviderFunc func(r *http.Request) *Session

func (f SessionProviderFunc) Session(r *http.Request) *Session {
	return f(r)
}

// NoSessions treats every request as anonymous. The server uses it when no
// JWT secret is configured, so every authenticated route answers 401.
var NoSessions SessionProvider = SessionProviderFunc(func(*http.Request) *Session { return nil })

// Session implements SessionProvider. The bearer header wins over the cookie
// when both are present.
func (s *TokenService) Session(r *http.Request) *Session {
	tokenStr := bearerToken(r)
	if tokenStr == "" {
		cookie, err := r.Cookie(CookieName)
		if err != nil {
			return nil
		}
		tokenStr = cookie.Value
	}

	userID, err := s.Validate(tokenStr)
	if err != nil {
		return nil
	}
	return &Session{UserID: userID}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type contextKey string

const sessionKey contextKey = "session"

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session stored by RequireAuth, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}
