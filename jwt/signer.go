package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the asymmetric algorithm of a [Signer].
type SigningMethod string

const (
	// MethodRS256 signs with RSASSA-PKCS1-v1_5 over SHA-256. PEM keys only.
	MethodRS256 SigningMethod = "rs256"
	// MethodEd25519 signs with EdDSA. Raw or PEM keys.
	MethodEd25519 SigningMethod = "ed25519"
)

// Config describes one token class: its key pair, max-age and clock.
type Config struct {
	Class         Class
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	MaxAge        time.Duration
	Issuer        string
	Leeway        time.Duration
	Now           func() time.Time
}

// Signer signs and verifies the tokens of a single class.
//
// A Signer is immutable after [NewSigner] and safe for concurrent use.
type Signer struct {
	class     Class
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	maxAge    time.Duration
	issuer    string
	leeway    time.Duration
	now       func() time.Time
}

// NewSigner parses and cross-checks the key material of cfg.
//
// Every key or configuration problem surfaces here, at startup, so that
// Sign can only fail on claims the caller built incorrectly.
func NewSigner(cfg Config) (*Signer, error) {
	if !cfg.Class.Valid() {
		return nil, fmt.Errorf("jwt: unknown token class %q", cfg.Class)
	}
	if cfg.MaxAge < time.Second || cfg.MaxAge%time.Second != 0 {
		return nil, fmt.Errorf("jwt: %s max-age must be a positive whole number of seconds", cfg.Class)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: invalid leeway configuration")
	}
	if len(cfg.PrivateKey) == 0 || len(cfg.PublicKey) == 0 {
		return nil, fmt.Errorf("jwt: %s class requires both private and public key", cfg.Class)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Signer{
		class:  cfg.Class,
		maxAge: cfg.MaxAge,
		issuer: strings.TrimSpace(cfg.Issuer),
		leeway: cfg.Leeway,
		now:    cfg.Now,
	}

	switch cfg.SigningMethod {
	case MethodRS256, "":
		priv, err := parseRSAPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("jwt: %s: %w", cfg.Class, err)
		}
		pub, err := parseRSAPublicKey(cfg.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("jwt: %s: %w", cfg.Class, err)
		}
		if !priv.PublicKey.Equal(pub) {
			return nil, fmt.Errorf("jwt: %s public key does not match private key", cfg.Class)
		}
		s.method, s.signKey, s.verifyKey = jwt.SigningMethodRS256, priv, pub
	case MethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("jwt: %s: %w", cfg.Class, err)
		}
		pub, err := parseEdPublicKey(cfg.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("jwt: %s: %w", cfg.Class, err)
		}
		if !pub.Equal(priv.Public().(ed25519.PublicKey)) {
			return nil, fmt.Errorf("jwt: %s public key does not match private key", cfg.Class)
		}
		s.method, s.signKey, s.verifyKey = jwt.SigningMethodEdDSA, priv, pub
	default:
		return nil, fmt.Errorf("jwt: unsupported signing method %q", cfg.SigningMethod)
	}

	return s, nil
}

// Class returns the token class this signer serves.
func (s *Signer) Class() Class { return s.class }

// MaxAge returns the lifetime of tokens minted by this signer.
func (s *Signer) MaxAge() time.Duration { return s.maxAge }

// Sign encodes and signs c. c must belong to the signer's class.
func (s *Signer) Sign(c Claims) (string, error) {
	if c.Class != s.class {
		return "", ErrClassMismatch
	}
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	token := jwt.NewWithClaims(s.method, Encode(c, s.issuer))
	return token.SignedString(s.signKey)
}

// Verify decodes token, checks its signature and then its expiry.
//
// The returned error is always one of the package sentinels.
func (s *Signer) Verify(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrMalformed
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if s.leeway > 0 {
		options = append(options, jwt.WithLeeway(s.leeway))
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &WireClaims{}, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	})
	if err != nil {
		return Claims{}, verifyError(err)
	}

	wire, ok := parsed.Claims.(*WireClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrMalformed
	}
	claims, err := Decode(wire)
	if err != nil {
		return Claims{}, ErrMalformed
	}
	if claims.Class != s.class {
		return Claims{}, ErrClassMismatch
	}
	return claims, nil
}

// verifyError collapses parser errors into package sentinels. The
// parser checks the signature before any claim, so a bad signature
// never reports as expired.
func verifyError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	default:
		return ErrMalformed
	}
}
