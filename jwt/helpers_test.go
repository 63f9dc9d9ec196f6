package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"
)

var (
	rsaOnce sync.Once
	rsaPriv []byte
	rsaPub  []byte
	rsaErr  error
)

func rsaPEMKeys(t testing.TB) ([]byte, []byte) {
	t.Helper()
	rsaOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			rsaErr = err
			return
		}
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			rsaErr = err
			return
		}
		pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			rsaErr = err
			return
		}
		rsaPriv = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
		rsaPub = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	})
	if rsaErr != nil {
		t.Fatalf("generate rsa key: %v", rsaErr)
	}
	return rsaPriv, rsaPub
}

func newEdKeys(t testing.TB) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newEdSigner(t testing.TB, class Class, maxAge time.Duration, clock *fakeClock) *Signer {
	t.Helper()
	pub, priv := newEdKeys(t)
	s, err := NewSigner(Config{
		Class:         class,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		MaxAge:        maxAge,
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return s
}

func newTestCodec(t testing.TB, clock *fakeClock) *Codec {
	t.Helper()
	codec, err := NewCodec(
		newEdSigner(t, ClassAccess, 15*time.Minute, clock),
		newEdSigner(t, ClassRefresh, 7*24*time.Hour, clock),
		clock.Now,
	)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}

func claimsEqual(a, b Claims) bool {
	return a.Subject == b.Subject &&
		a.SessionID == b.SessionID &&
		a.Class == b.Class &&
		a.IssuedAt.Equal(b.IssuedAt) &&
		a.ExpiresAt.Equal(b.ExpiresAt)
}
