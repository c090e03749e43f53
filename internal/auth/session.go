// Package auth gates the application behind a single shared credential pair.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName holds the signed session token.
	CookieName = "deductible_session"

	issuer = "deductible"
)

var ErrInvalidSession = errors.New("invalid session token")

// Session is the per-request authentication context handed to protected handlers.
type Session struct {
	Authenticated bool
}

type sessionClaims struct {
	Authenticated bool `json:"auth"`
	jwt.RegisteredClaims
}

type contextKey struct{}

// Authenticator checks credentials and issues or verifies session cookies.
type Authenticator struct {
	username     string
	password     string
	secret       []byte
	secureCookie bool
}

func NewAuthenticator(username, password, secret string) *Authenticator {
	return &Authenticator{
		username: username,
		password: password,
		secret:   []byte(secret),
	}
}

// WithSecureCookie marks issued cookies as HTTPS-only.
func (a *Authenticator) WithSecureCookie(secure bool) *Authenticator {
	a.secureCookie = secure
	return a
}

// Authenticate compares both values in constant time.
func (a *Authenticator) Authenticate(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

// NewToken signs a session token. There is no expiry: the session lasts until logout.
func (a *Authenticator) NewToken() (string, error) {
	claims := sessionClaims{
		Authenticated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token and returns the session it encodes.
func (a *Authenticator) ParseToken(tokenString string) (Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || !claims.Authenticated {
		return Session{}, ErrInvalidSession
	}
	return Session{Authenticated: true}, nil
}

// Login sets the session cookie on w.
func (a *Authenticator) Login(w http.ResponseWriter) error {
	token, err := a.NewToken()
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout clears the session cookie. It is safe to call without a session.
func (a *Authenticator) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFromRequest reads the session cookie. Missing or invalid cookies yield an
// unauthenticated session.
func (a *Authenticator) SessionFromRequest(r *http.Request) Session {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Session{}
	}
	s, err := a.ParseToken(c.Value)
	if err != nil {
		return Session{}
	}
	return s
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by RequireAuth, or an unauthenticated one.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}
