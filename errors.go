package linkauth

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/linkauth/jwt"
	"github.com/MrEthical07/linkauth/session"
)

var (
	// ErrCredentialMissing is returned when a request carries neither the
	// access_token cookie nor a bearer Authorization header.
	ErrCredentialMissing = errors.New("credential missing")
	// ErrTokenMalformed is returned for tokens that cannot be decoded.
	ErrTokenMalformed = jwt.ErrMalformed
	// ErrTokenSignature is returned when the signature does not verify.
	ErrTokenSignature = jwt.ErrInvalidSignature
	// ErrTokenExpired is returned when now >= the token's expiry.
	ErrTokenExpired = jwt.ErrExpired
	// ErrTokenNotYetValid is returned for tokens issued in the future.
	ErrTokenNotYetValid = jwt.ErrNotYetValid
	// ErrTokenClassMismatch is returned for a correctly signed token of the
	// other class.
	ErrTokenClassMismatch = jwt.ErrClassMismatch
	// ErrSessionNotFound is returned when a token's session is absent,
	// whether it expired, was revoked, or was consumed by a refresh.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionMismatch is returned when the stored session belongs to a
	// different user than the token subject.
	ErrSessionMismatch = errors.New("session does not belong to token subject")
	// ErrStoreUnavailable is returned when the session registry cannot be
	// reached or timed out. It is never reported as ErrSessionNotFound.
	ErrStoreUnavailable = session.ErrStoreUnavailable
	// ErrUserNotFound is returned when a verified session refers to a user
	// that no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserLookupFailed is returned when the user provider itself failed.
	ErrUserLookupFailed = errors.New("user lookup failed")
	// ErrSessionCreationFailed is returned when Issue could not register
	// both sessions. No token from the failed call is usable.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionInvalidationFailed is returned when a revoke did not complete.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrInvalidUserID is returned when Issue is called with an empty user id.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrManagerNotReady is returned by a nil or unbuilt Manager.
	ErrManagerNotReady = errors.New("manager not initialized")
)

// ErrorKind is the outward classification of an error: what the HTTP
// layer may tell the client.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindCredentialMissing: the request carried no credential at all.
	KindCredentialMissing
	// KindUnauthenticated covers every token, session and user failure.
	// Expired, revoked and unknown are deliberately indistinguishable.
	KindUnauthenticated
	// KindUnavailable: a backing store could not answer.
	KindUnavailable
	// KindInternal: anything else.
	KindInternal
)

const (
	msgCredentialMissing = "You are not logged in, please provide token"
	msgUnauthenticated   = "The token provided is expired or not valid, please login to get a new one."
	msgUnavailable       = "Service temporarily unavailable, please try again later."
	msgInternal          = "Internal Server Error"
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCredentialMissing:
		return "credential_missing"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Classify maps err onto an [ErrorKind]. Availability is checked first so
// that a session-creation failure caused by an outage reports as such.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrUserLookupFailed):
		return KindUnavailable
	case errors.Is(err, ErrCredentialMissing):
		return KindCredentialMissing
	case errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenSignature),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenNotYetValid),
		errors.Is(err, ErrTokenClassMismatch),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionMismatch),
		errors.Is(err, ErrUserNotFound):
		return KindUnauthenticated
	default:
		return KindInternal
	}
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	switch Classify(err) {
	case KindNone:
		return http.StatusOK
	case KindCredentialMissing, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message for err. It never
// reveals which specific check failed.
func PublicMessage(err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindCredentialMissing:
		return msgCredentialMissing
	case KindUnauthenticated:
		return msgUnauthenticated
	case KindUnavailable:
		return msgUnavailable
	default:
		return msgInternal
	}
}
