package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// CookieName is the session cookie issued on login.
const CookieName = "gatekeep_token"

const (
	sessionTTL    = 24 * time.Hour
	persistentTTL = 30 * 24 * time.Hour
)

// Claims defines the JWT claims structure for a session token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type contextKey string

// UserClaimsKey is the context key for authenticated user claims.
const UserClaimsKey = contextKey("userClaims")

// Manager signs and validates session tokens.
type Manager struct {
	secret []byte
}

// NewManager creates a token manager. When no secret is configured a random
// one is generated, which means sessions do not survive a restart.
func NewManager(secret string) (*Manager, error) {
	if secret != "" {
		return &Manager{secret: []byte(secret)}, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	log.Warn().Msg("JWT_SECRET not set, generated a random secret; sessions will not survive restarts")
	return &Manager{secret: b}, nil
}

// GenerateToken creates a signed session token. Persistent sessions get the
// long-lived expiry that backs the remember-me cookie.
func (m *Manager) GenerateToken(username string, persistent bool) (string, error) {
	ttl := sessionTTL
	if persistent {
		ttl = persistentTTL
	}
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a session token string.
func (m *Manager) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// SessionCookie builds the HTTP-only cookie carrying a session token.
func SessionCookie(token string, persistent, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	}
	if persistent {
		c.MaxAge = int(persistentTTL / time.Second)
	}
	return c
}

// ClearedSessionCookie expires the session cookie immediately.
func ClearedSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	}
}

// tokenFromRequest extracts a token from the Authorization header or, when
// absent, from the session cookie.
func tokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) == 2 {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Middleware rejects requests that carry no valid session token.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				http.Error(w, "Missing auth token", http.StatusUnauthorized)
				return
			}
			claims, err := m.ValidateToken(tokenStr)
			if err != nil {
				http.Error(w, "Invalid auth token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware attaches claims when a valid token is present but lets
// anonymous requests through. The user-creation endpoint relies on it for
// the first-run bootstrap exception.
func (m *Manager) OptionalMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr := tokenFromRequest(r); tokenStr != "" {
				if claims, err := m.ValidateToken(tokenStr); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), UserClaimsKey, claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the authenticated username from the request context.
func CurrentUser(ctx context.Context) (string, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	if !ok {
		return "", false
	}
	return claims.Username, true
}
