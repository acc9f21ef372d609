// Package tokens generates opaque random strings for email verification and
// password reset links.
package tokens

import (
	"crypto/rand"
	"fmt"
)

// Alphabet is the set of characters tokens are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Length is the size of tokens returned by Generate.
const Length = 30

// Bytes >= rejectAbove would bias the distribution toward the first
// characters of Alphabet and are discarded.
const rejectAbove = 256 - 256%len(Alphabet)

// Generate returns a Length-character token drawn uniformly from Alphabet.
// It panics if the system random source fails.
func Generate() string {
	s, err := GenerateN(Length)
	if err != nil {
		panic(fmt.Sprintf("tokens: %v", err))
	}
	return s
}

// GenerateN returns an n-character token drawn uniformly from Alphabet.
func GenerateN(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+8)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
