// internal/app/system/auth/auth.go
//
// Package auth identifies the caller from an HS256 bearer token. Tokens are
// issued elsewhere; this service only verifies them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/eduledger/internal/app/system/apperr"
	"github.com/dalemusser/eduledger/internal/app/system/respond"
)

// MinSecretLen is the shortest accepted signing secret.
const MinSecretLen = 32

// User is the authenticated caller injected into the request context.
type User struct {
	ID   string // users._id as hex
	Name string
	Role string
}

// Claims is the token payload. Subject carries the user id.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with one shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	log    *zap.Logger
}

// NewManager returns a Manager. ttl only affects Issue.
func NewManager(secret string, ttl time.Duration, logger *zap.Logger) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", MinSecretLen)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{secret: []byte(secret), ttl: ttl, log: logger}, nil
}

// Issue signs a token for u. The service never hands tokens to clients;
// Issue exists for operators' tooling and tests.
func (m *Manager) Issue(u User) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies raw and returns the caller it names.
func (m *Manager) Parse(raw string) (*User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, errors.New("token lacks subject or role")
	}
	return &User{ID: claims.Subject, Name: claims.Name, Role: claims.Role}, nil
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*User)
	return u, ok && u != nil
}

// WithUser returns r carrying u as the caller. Middleware and tests use it.
func WithUser(r *http.Request, u *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// LoadUser injects the caller when a bearer token is present. A request
// without Authorization passes through anonymous; a bad token is rejected.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			respond.Error(w, r, m.log, apperr.Unauthorized("authorization header must be a bearer token"))
			return
		}
		u, err := m.Parse(strings.TrimSpace(raw))
		if err != nil {
			m.log.Debug("rejected bearer token", zap.Error(err))
			respond.Error(w, r, m.log, apperr.Unauthorized("invalid or expired token"))
			return
		}
		next.ServeHTTP(w, WithUser(r, u))
	})
}

// RequireSignedIn rejects anonymous requests with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			respond.Error(w, r, nil, apperr.Unauthorized("sign in required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
