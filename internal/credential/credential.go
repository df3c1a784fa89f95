// Package credential decodes the access token issued by the service.
//
// The token is a signed JWT but the client never holds the signing key, so
// the expiry is read without verification. It is only used to decide when to
// renew and when to show the user as signed out; the service authorizes every
// call on its own.
package credential

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GuardWindow is how long before expiry a credential is renewed
const GuardWindow = 5 * time.Minute

var (
	// ErrEmpty is returned when decoding an empty token
	ErrEmpty = errors.New("empty credential")
	// ErrNoExpiry is returned when the token carries no exp claim
	ErrNoExpiry = errors.New("credential has no expiry")
)

// Credential is an immutable access token with its decoded expiry.
// A credential whose payload cannot be decoded is kept but reports itself
// as expired.
type Credential struct {
	raw       string
	subject   string
	expiresAt time.Time
	err       error
}

// Parse decodes raw without verifying its signature. It never fails; decode
// problems are recorded and surface through Err and IsExpired.
func Parse(raw string) Credential {
	if raw == "" {
		return Credential{err: ErrEmpty}
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Credential{raw: raw, err: err}
	}
	if claims.ExpiresAt == nil {
		return Credential{raw: raw, subject: claims.Subject, err: ErrNoExpiry}
	}

	return Credential{
		raw:       raw,
		subject:   claims.Subject,
		expiresAt: claims.ExpiresAt.Time,
	}
}

// Raw returns the token as issued
func (c Credential) Raw() string {
	return c.raw
}

// IsZero reports whether there is no token at all
func (c Credential) IsZero() bool {
	return c.raw == ""
}

// Subject returns the sub claim, if any
func (c Credential) Subject() string {
	return c.subject
}

// Err returns the decode error, or nil if the expiry was read
func (c Credential) Err() error {
	return c.err
}

// ExpiresAt returns the decoded expiry. ok is false when decoding failed.
func (c Credential) ExpiresAt() (t time.Time, ok bool) {
	return c.expiresAt, c.err == nil
}

// IsExpired reports whether the credential is unusable at now.
// Undecodable credentials are always expired.
func (c Credential) IsExpired(now time.Time) bool {
	if c.err != nil {
		return true
	}
	return now.After(c.expiresAt)
}

// RenewIn returns how long to wait before renewing: expiry - now - GuardWindow.
// A result <= 0 means renew right away; undecodable credentials return 0.
func (c Credential) RenewIn(now time.Time) time.Duration {
	if c.err != nil {
		return 0
	}
	return c.expiresAt.Sub(now) - GuardWindow
}

// Remaining returns the time left before expiry, or 0 if expired or undecodable
func (c Credential) Remaining(now time.Time) time.Duration {
	if c.err != nil || !now.Before(c.expiresAt) {
		return 0
	}
	return c.expiresAt.Sub(now)
}
