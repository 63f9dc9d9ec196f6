package jwt

import (
	"errors"
	"fmt"
	"time"
)

// Codec pairs the access and refresh signers and mints tokens of either
// class from a subject and a session id.
type Codec struct {
	access  *Signer
	refresh *Signer
	now     func() time.Time
}

// NewCodec builds a Codec. Each signer must serve the class of its slot.
func NewCodec(access, refresh *Signer, now func() time.Time) (*Codec, error) {
	if access == nil || refresh == nil {
		return nil, errors.New("jwt: codec requires access and refresh signers")
	}
	if access.Class() != ClassAccess || refresh.Class() != ClassRefresh {
		return nil, errors.New("jwt: codec signers are assigned to the wrong class")
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{access: access, refresh: refresh, now: now}, nil
}

func (c *Codec) signer(class Class) (*Signer, error) {
	switch class {
	case ClassAccess:
		return c.access, nil
	case ClassRefresh:
		return c.refresh, nil
	default:
		return nil, fmt.Errorf("jwt: unknown token class %q", class)
	}
}

// MaxAge returns the configured lifetime of class, or 0 for an unknown class.
func (c *Codec) MaxAge(class Class) time.Duration {
	s, err := c.signer(class)
	if err != nil {
		return 0
	}
	return s.MaxAge()
}

// Mint signs a fresh token of class for subject bound to sessionID.
// iat is the codec clock truncated to the second; exp is iat + max-age.
func (c *Codec) Mint(class Class, subject, sessionID string) (string, Claims, error) {
	s, err := c.signer(class)
	if err != nil {
		return "", Claims{}, err
	}
	issuedAt := c.now().UTC().Truncate(time.Second)
	claims := Claims{
		Subject:   subject,
		SessionID: sessionID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.MaxAge()),
		Class:     class,
	}
	token, err := s.Sign(claims)
	if err != nil {
		return "", Claims{}, err
	}
	return token, claims, nil
}

// Parse verifies token as a token of class.
func (c *Codec) Parse(token string, class Class) (Claims, error) {
	s, err := c.signer(class)
	if err != nil {
		return Claims{}, err
	}
	return s.Verify(token)
}

// Lint reports configuration that is legal but weakens the token model.
func (c *Codec) Lint() []string {
	var warnings []string
	if c.access.MaxAge() >= c.refresh.MaxAge() {
		warnings = append(warnings, fmt.Sprintf(
			"access token max-age (%s) should be shorter than refresh token max-age (%s)",
			c.access.MaxAge(), c.refresh.MaxAge(),
		))
	}
	return warnings
}
