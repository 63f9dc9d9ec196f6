package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Class distinguishes short-lived access tokens from long-lived refresh tokens.
type Class string

const (
	// ClassAccess tokens are presented on every protected request.
	ClassAccess Class = "access"
	// ClassRefresh tokens are only used to mint a new token pair.
	ClassRefresh Class = "refresh"
)

// Valid reports whether c is a known token class.
func (c Class) Valid() bool {
	return c == ClassAccess || c == ClassRefresh
}

func (c Class) String() string {
	return string(c)
}

// Claims is the decoded, verified content of a token.
//
// Times carry second precision, matching the wire encoding.
type Claims struct {
	Subject   string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Class     Class
}

// Validate checks the structural invariants every minted token must hold.
func (c Claims) Validate() error {
	if c.Subject == "" {
		return errors.New("claims: empty subject")
	}
	if c.SessionID == "" {
		return errors.New("claims: empty session id")
	}
	if !c.Class.Valid() {
		return fmt.Errorf("claims: unknown token class %q", c.Class)
	}
	if !c.ExpiresAt.After(c.IssuedAt) {
		return errors.New("claims: expires_at must be after issued_at")
	}
	return nil
}

// WireClaims is the JWT payload layout.
type WireClaims struct {
	SessionID string `json:"sid"`
	Class     Class  `json:"cls"`
	jwt.RegisteredClaims
}

// Encode converts claims into their JWT payload form. issuer may be empty.
func Encode(c Claims, issuer string) *WireClaims {
	return &WireClaims{
		SessionID: c.SessionID,
		Class:     c.Class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			NotBefore: jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	}
}

// Decode converts a JWT payload back into [Claims].
//
// Decode(Encode(c, iss)) equals c for any claims that pass Validate and
// carry whole-second UTC times.
func Decode(w *WireClaims) (Claims, error) {
	if w == nil {
		return Claims{}, ErrMalformed
	}
	if w.IssuedAt == nil || w.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing iat or exp", ErrMalformed)
	}
	c := Claims{
		Subject:   w.Subject,
		SessionID: w.SessionID,
		IssuedAt:  w.IssuedAt.Time.UTC(),
		ExpiresAt: w.ExpiresAt.Time.UTC(),
		Class:     w.Class,
	}
	if err := c.Validate(); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, nil
}
