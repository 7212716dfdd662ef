package auth

import (
	"regexp"
	"unicode/utf8"

	"github.com/mcoot/pokearena/internal/model"
)

const (
	maxDisplayNameLength = 50
	minPasswordLength    = 7
	maxPasswordLength    = 15
)

var (
	displayNamePattern = regexp.MustCompile(`^[a-zA-Z ]+$`)
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// validateRegistration checks every field and reports all failures together
func validateRegistration(displayName, email, password string) error {
	verr := &model.ValidationError{}

	if len(displayName) > maxDisplayNameLength || !displayNamePattern.MatchString(displayName) {
		verr.Add("firstName", "Only letters, max 50 chars")
	}
	if !emailPattern.MatchString(email) {
		verr.Add("email", "Invalid email")
	}
	if !validPassword(password) {
		verr.Add("password", "Password must be 7-15 chars, include upper/lower/special")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// validPassword requires a lowercase letter, an uppercase letter and at
// least one character that is neither
func validPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength || n > maxPasswordLength {
		return false
	}

	var lower, upper, other bool
	for _, r := range password {
		switch {
		case r == '\n':
			return false
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		default:
			other = true
		}
	}
	return lower && upper && other
}
