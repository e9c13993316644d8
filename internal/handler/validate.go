package handler

// validate.go centralizes the field rules shared by registration and profile
// updates. Each function returns a client-facing message, empty when valid.

import (
	"regexp"
	"strings"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

func validateEmail(email string) string {
	if !emailRe.MatchString(email) {
		return "invalid email format"
	}
	return ""
}

func validateUsername(username string) string {
	if len(username) < 3 || len(username) > 20 {
		return "username must be 3-20 characters"
	}
	if !usernameRe.MatchString(username) {
		return "username may only contain letters, numbers and underscores"
	}
	return ""
}

// validatePassword enforces the registration password policy: at least 8
// characters with a lowercase letter, an uppercase letter, a digit and a
// special character.
func validatePassword(password string) string {
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return "password needs a lowercase letter, an uppercase letter, a digit and a special character"
	}
	return ""
}

func validateAge(age int) string {
	if age < 14 || age > 99 {
		return "age must be between 14 and 99"
	}
	return ""
}

func validateName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "name must not be empty"
	}
	return ""
}

func validateBio(bio string) string {
	if len(bio) > 300 {
		return "bio must not exceed 300 characters"
	}
	return ""
}
