package flows

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/linkauth/session"
)

var errRefreshOwner = errors.New("refresh token belongs to another user")

// IsRefreshOwnerMismatch reports whether err is the logout owner check.
func IsRefreshOwnerMismatch(err error) bool {
	return errors.Is(err, errRefreshOwner)
}

// storeError marks any registry failure as an outage. Injected stores may
// report a deadline or a driver error without wrapping it themselves.
func storeError(err error) error {
	if err == nil || errors.Is(err, session.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", session.ErrStoreUnavailable, err)
}
