package passwords

import (
	"fmt"
	"unicode"
)

// ViolationType identifies which password condition was not met.
type ViolationType string

const (
	ViolationNotEnoughDigits         ViolationType = "NOT_ENOUGH_DIGITS"
	ViolationNotEnoughSpecialChars   ViolationType = "NOT_ENOUGH_SPECIAL_CHARS"
	ViolationNotEnoughSmallLetters   ViolationType = "NOT_ENOUGH_SMALL_LETTERS"
	ViolationNotEnoughCapitalLetters ViolationType = "NOT_ENOUGH_CAPITAL_LETTERS"
	ViolationInvalidSize             ViolationType = "INVALID_SIZE"
)

type Violation struct {
	Type    ViolationType
	Message string
}

// Validator checks plaintext passwords against the configured complexity
// conditions before they are hashed.
type Validator struct {
	conditions Conditions
}

func NewValidator(conditions Conditions) *Validator {
	return &Validator{conditions: conditions}
}

// FindViolations returns every unmet condition; an empty slice means the
// password is acceptable.
func (v *Validator) FindViolations(password string) []Violation {
	var violations []Violation

	var hasDigit, hasSpecial, hasLower, hasUpper bool
	for _, c := range password {
		switch {
		case unicode.IsDigit(c):
			hasDigit = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			hasSpecial = true
		}
	}

	if v.conditions.IncludeDigits && !hasDigit {
		violations = append(violations, Violation{ViolationNotEnoughDigits, "Must contain digits"})
	}
	if v.conditions.IncludeSpecialCharacters && !hasSpecial {
		violations = append(violations, Violation{ViolationNotEnoughSpecialChars, "Must contain special characters"})
	}
	if v.conditions.IncludeSmallLetters && !hasLower {
		violations = append(violations, Violation{ViolationNotEnoughSmallLetters, "Must contain lower case letters"})
	}
	if v.conditions.IncludeCaps && !hasUpper {
		violations = append(violations, Violation{ViolationNotEnoughCapitalLetters, "Must contain upper case letters"})
	}

	if len(password) < v.conditions.MinLength || len(password) > v.conditions.MaxLength {
		violations = append(violations, Violation{
			ViolationInvalidSize,
			fmt.Sprintf("Must be between %d and %d characters long", v.conditions.MinLength, v.conditions.MaxLength),
		})
	}

	return violations
}
