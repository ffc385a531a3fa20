package auth

import (
	"strings"
	"unicode"

	goerrors "github.com/goliatone/go-errors"
)

// PasswordMinLength is the minimum accepted password length for register.
const PasswordMinLength = 6

const (
	MsgPasswordTooShort    = "password must be at least 6 characters"
	MsgPasswordNoUppercase = "password must contain at least one uppercase letter"
	MsgPasswordNoLowercase = "password must contain at least one lowercase letter"
)

// PasswordViolations evaluates every policy rule and returns the distinct
// messages for each unmet one, so the UI can show all of them at once
// instead of drip-feeding rules across attempts. An empty slice means the
// password passes.
func PasswordViolations(password string) []string {
	var violations []string

	if len(password) < PasswordMinLength {
		violations = append(violations, MsgPasswordTooShort)
	}

	var hasUpper, hasLower bool
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}

	if !hasUpper {
		violations = append(violations, MsgPasswordNoUppercase)
	}
	if !hasLower {
		violations = append(violations, MsgPasswordNoLowercase)
	}

	return violations
}

// ValidatePasswordPolicy returns nil when the password passes, or a
// validation error carrying every violation. Register is blocked while any
// rule is unmet; no gateway call is made.
func ValidatePasswordPolicy(password string) error {
	violations := PasswordViolations(password)
	if len(violations) == 0 {
		return nil
	}

	return goerrors.New(strings.Join(violations, "; "), goerrors.CategoryValidation).
		WithTextCode(TextCodePasswordPolicy).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"violations": violations})
}
