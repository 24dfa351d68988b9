// Package lottery handles the random identifiers that drive admission
// tie-breaking. A key is the 32-character hex form of a version-4 UUID.
// Keys induce a total order through full-string comparison, and a uniform
// rank in [0, 1) can be derived from the leading hex digits for reporting.
package lottery

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// KeyLength is the number of hex characters in a normalized lottery key.
const KeyLength = 32

// rankDigits is the number of leading hex digits folded into the derived
// rank. 15 digits fit in 60 bits, safely inside a float64 mantissa-ish
// range for a uniform [0, 1) value.
const rankDigits = 15

// ErrInvalidKey is returned when a string cannot be normalized into a
// 32-character hex lottery key.
var ErrInvalidKey = errors.New("lottery: invalid key")

// NewKey draws a fresh lottery key from the given random source. Reading
// from a seeded source keeps key generation reproducible.
func NewKey(r io.Reader) (string, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", fmt.Errorf("lottery: generating key: %w", err)
	}

	return strings.ReplaceAll(id.String(), "-", ""), nil
}

// Normalize strips dashes, lowercases, and validates a user-supplied
// lottery identifier, returning the canonical 32-character hex form.
func Normalize(s string) (string, error) {
	key := strings.ToLower(strings.ReplaceAll(s, "-", ""))

	if len(key) != KeyLength {
		return "", fmt.Errorf("%w: %q has %d hex characters, want %d",
			ErrInvalidKey, s, len(key), KeyLength)
	}

	for _, c := range key {
		if !isHexDigit(c) {
			return "", fmt.Errorf("%w: %q contains non-hex character %q",
				ErrInvalidKey, s, c)
		}
	}

	return key, nil
}

// Valid reports whether s normalizes into a lottery key.
func Valid(s string) bool {
	_, err := Normalize(s)
	return err == nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// Rank derives a uniformly-distributed value in [0, 1) from a normalized
// key. Two students almost never share a rank, but ordering decisions must
// go through Compare, which considers the full key.
func Rank(key string) float64 {
	if len(key) < rankDigits {
		return 0
	}

	prefix, err := strconv.ParseUint(key[:rankDigits], 16, 64)
	if err != nil {
		return 0
	}

	return float64(prefix) / float64(uint64(1)<<(4*rankDigits))
}

// Compare orders two normalized keys. A lower key wins the lottery.
// Returns a negative number if a precedes b, positive if b precedes a,
// and 0 only when the keys are identical.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}
