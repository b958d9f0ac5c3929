package auth

import (
	"net/mail"
	"strings"
)

const MinPasswordLength = 6

// ValidEmail reports whether s is a bare address with a dotted domain.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

func validateCredentials(email, password string) ValidationErrors {
	errs := ValidationErrors{}
	if !ValidEmail(email) {
		errs[FieldEmail] = "Please enter a valid email address"
	}
	if len([]rune(password)) < MinPasswordLength {
		errs[FieldPassword] = "Password must be at least 6 characters"
	}
	return errs
}

func finish(errs ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
