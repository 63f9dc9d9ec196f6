package jwt

import "errors"

var (
	// ErrMalformed is returned when a token cannot be decoded structurally
	// or carries claims that violate the schema.
	ErrMalformed = errors.New("token malformed")
	// ErrInvalidSignature is returned when the signature does not verify
	// against the class public key or the algorithm is not the pinned one.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrExpired is returned when now >= exp.
	ErrExpired = errors.New("token expired")
	// ErrNotYetValid is returned when iat or nbf lie in the future.
	ErrNotYetValid = errors.New("token not yet valid")
	// ErrClassMismatch is returned when a correctly signed token carries
	// the other token class.
	ErrClassMismatch = errors.New("token class mismatch")
)
