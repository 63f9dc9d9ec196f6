package users

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/linkauth"
)

var (
	// ErrDuplicateEmail is returned by CreateUser when the normalized email
	// is already registered.
	ErrDuplicateEmail = errors.New("users: email already registered")
	// ErrInvalidInput is returned for a NewUser missing required fields.
	ErrInvalidInput = errors.New("users: invalid input")
)

// NewUser is the input to CreateUser. PasswordHash is already hashed.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
}

// Store is the account persistence the HTTP layer needs.
type Store interface {
	linkauth.UserProvider
	FindUserByEmail(ctx context.Context, email string) (linkauth.User, bool, error)
	CreateUser(ctx context.Context, in NewUser) (linkauth.User, error)
}

// NormalizeEmail trims and lower-cases an address. Lookups and inserts
// both go through it, so the unique constraint is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in NewUser) normalized() (NewUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.PasswordHash == "" {
		return NewUser{}, ErrInvalidInput
	}
	return in, nil
}
