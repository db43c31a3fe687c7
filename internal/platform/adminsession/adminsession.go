// Package adminsession issues and verifies the signed token that marks a caller as staff.
//
// The admin gate is a shared-secret check: whoever presents the configured username and
// password gets a short-lived HS256 token, carried in a cookie or a bearer header.
package adminsession

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	clockport "github.com/minnehack/registration-api/internal/ports/out/clock"
)

const (
	// CookieName is the cookie that carries the session token.
	CookieName = "admin_session"

	issuer  = "registration-api"
	subject = "admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrInvalidToken       = errors.New("invalid admin session")
)

type Manager struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	clk      clockport.Clock
}

func NewManager(username, password, secret string, ttl time.Duration, clk clockport.Clock) *Manager {
	return &Manager{
		username: username,
		password: password,
		secret:   []byte(secret),
		ttl:      ttl,
		clk:      clk,
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Login checks the shared credentials in constant time and returns a new session token.
func (m *Manager) Login(username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
	if !userOK || !passOK {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return m.Issue()
}

// Issue mints a session token without checking credentials. Used by the admintoken CLI.
func (m *Manager) Issue() (string, time.Time, error) {
	now := m.clk.Now()
	exp := now.Add(m.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin session: %w", err)
	}
	return signed, exp, nil
}

// Verify reports whether raw is an unexpired token signed with this manager's secret.
func (m *Manager) Verify(raw string) error {
	if raw == "" {
		return ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clk.Now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
