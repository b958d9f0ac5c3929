package auth

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrNoSession              = errors.New("no session")
	ErrSessionExpired         = errors.New("session expired")
)

// Form field names used as ValidationErrors keys.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// ValidationErrors maps a form field to the message shown next to it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f+": "+v[f])
	}
	sort.Strings(fields)
	return "invalid credentials form: " + strings.Join(fields, "; ")
}
