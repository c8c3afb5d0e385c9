package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// StringMode selects the character set used by RandomString.
type StringMode string

const (
	ModeNumeric      StringMode = "NUMERIC"
	ModeAlphabetic   StringMode = "ALPHABETIC"
	ModeAlphanumeric StringMode = "ALPHANUMERIC"
)

const (
	digits  = "0123456789"
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// RandomString generates a random string of the requested length drawn from
// the character set of the given mode. Each character is picked with
// crypto/rand so the output is safe for one-time passwords.
func RandomString(length int, mode StringMode) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("string length must be positive, got %d", length)
	}

	var charset string
	switch mode {
	case ModeNumeric:
		charset = digits
	case ModeAlphabetic:
		charset = letters
	case ModeAlphanumeric:
		charset = letters + digits
	default:
		return "", fmt.Errorf("unrecognized string mode %q", mode)
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		out[i] = charset[n.Int64()]
	}

	return string(out), nil
}
