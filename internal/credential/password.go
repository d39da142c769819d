// Package credential hashes and checks user passwords and keeps the CLI's
// session token in the operating system keyring.
package credential

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor used for new hashes.
const HashCost = 12

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Password rule violations, in the order they are reported.
const (
	ProblemTooShort    = "password must be at least 8 characters long"
	ProblemNoUppercase = "password must contain an uppercase letter"
	ProblemNoLowercase = "password must contain a lowercase letter"
	ProblemNoDigit     = "password must contain a digit"
	ProblemNoSpecial   = "password must contain a special character"
)

// ErrPasswordTooLong is returned by HashPassword for inputs bcrypt cannot
// represent without truncation.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash. A malformed hash is
// a mismatch, not an error.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordCheck is the outcome of ValidatePasswordStrength.
type PasswordCheck struct {
	Valid    bool
	Problems []string
}

// ValidatePasswordStrength checks password against every complexity rule and
// reports all violations together.
func ValidatePasswordStrength(password string) PasswordCheck {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			special = true
		}
	}

	var problems []string
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, ProblemTooShort)
	}
	if !upper {
		problems = append(problems, ProblemNoUppercase)
	}
	if !lower {
		problems = append(problems, ProblemNoLowercase)
	}
	if !digit {
		problems = append(problems, ProblemNoDigit)
	}
	if !special {
		problems = append(problems, ProblemNoSpecial)
	}

	return PasswordCheck{Valid: len(problems) == 0, Problems: problems}
}

// emailPattern accepts local@domain.tld with no whitespace and a dotted
// domain. It does not attempt RFC 5322 completeness.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@.]+(\.[^\s@.]+)*\.[^\s@.]{2,}$`)

// ValidateEmailFormat reports whether email has the local@domain.tld shape.
func ValidateEmailFormat(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
