package password

import (
	"errors"
	"strings"
	"unicode"
)

const policySpecials = "@$!%*?&"

// Policy violations reported by [CheckPolicy].
var (
	ErrPolicyDigit   = errors.New("password must contain at least one number")
	ErrPolicySpecial = errors.New("password must contain at least one of @$!%*?&")
	ErrPolicySpace   = errors.New("password must not contain spaces")
)

// CheckPolicy enforces the registration rules: at least one digit, at
// least one of @$!%*?& and no whitespace.
func CheckPolicy(password string) error {
	var errs []error
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		errs = append(errs, ErrPolicyDigit)
	}
	if !strings.ContainsAny(password, policySpecials) {
		errs = append(errs, ErrPolicySpecial)
	}
	if strings.ContainsFunc(password, unicode.IsSpace) {
		errs = append(errs, ErrPolicySpace)
	}
	return errors.Join(errs...)
}
