// Package code generates reward code identifiers and point values.
package code

import (
	"crypto/rand"
	"fmt"
	mrand "math/rand/v2"
)

// Alphabet is the set of glyphs used in code identifiers: upper- and
// lowercase letters with the visually ambiguous I, i, and l removed, plus
// digits.
const Alphabet = "ABCDEFGHJKLMNOPQRSTUVWXYZabcdefghjkmnopqrstuvwxyz0123456789"

// Length is the fixed size of a code identifier.
const Length = 6

const (
	minPointValue = 10
	maxPointValue = 100
)

// NewID returns a Length-character identifier drawn uniformly from Alphabet
// using crypto/rand. Rejection sampling keeps the draw unbiased.
func NewID() (string, error) {
	const n = byte(len(Alphabet))
	// Largest multiple of n below 256; bytes at or above it are redrawn.
	limit := byte(256 - (256 % int(n)))

	id := make([]byte, 0, Length)
	buf := make([]byte, Length)
	for len(id) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			id = append(id, Alphabet[b%n])
			if len(id) == Length {
				break
			}
		}
	}
	return string(id), nil
}

// NewPointValue returns a point value drawn uniformly from [10, 100].
func NewPointValue() int {
	return minPointValue + mrand.IntN(maxPointValue-minPointValue+1)
}
