package passwords_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tokensquare/guardian/internal/idp/passwords"
)

func TestFindViolations(t *testing.T) {
	t.Parallel()

	validator := passwords.NewValidator(passwords.Conditions{
		MinLength:                8,
		MaxLength:                16,
		IncludeDigits:            true,
		IncludeCaps:              true,
		IncludeSmallLetters:      true,
		IncludeSpecialCharacters: true,
	})

	t.Run("acceptable password has no violations", func(t *testing.T) {
		require.Empty(t, validator.FindViolations("Str0ng!pass"))
	})

	t.Run("reports each unmet condition", func(t *testing.T) {
		violations := validator.FindViolations("alllowercase")

		types := make(map[passwords.ViolationType]bool)
		for _, v := range violations {
			types[v.Type] = true
		}

		require.True(t, types[passwords.ViolationNotEnoughDigits])
		require.True(t, types[passwords.ViolationNotEnoughCapitalLetters])
		require.True(t, types[passwords.ViolationNotEnoughSpecialChars])
		require.False(t, types[passwords.ViolationNotEnoughSmallLetters])
	})

	t.Run("length bounds", func(t *testing.T) {
		short := validator.FindViolations("S1!a")
		require.Contains(t, violationTypes(short), passwords.ViolationInvalidSize)

		long := validator.FindViolations("S1!aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		require.Contains(t, violationTypes(long), passwords.ViolationInvalidSize)
	})
}

func violationTypes(violations []passwords.Violation) []passwords.ViolationType {
	out := make([]passwords.ViolationType, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Type)
	}
	return out
}
