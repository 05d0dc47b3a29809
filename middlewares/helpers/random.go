package helpers

import (
	"fmt"
	"math/rand"
	"strings"
)

// Chance rolls a percentage gate on r, or on the global source when r is
// nil. Percentages at or above 100 always pass, at or below 0 never do.
func Chance(r *rand.Rand, percent int) bool {
	if percent >= 100 {
		return true
	}
	if percent <= 0 {
		return false
	}
	if r != nil {
		return r.Intn(100) < percent
	}
	return rand.Intn(100) < percent
}

// Intn is rand.Intn on r, falling back to the global source when r is nil.
func Intn(r *rand.Rand, n int) int {
	if r != nil {
		return r.Intn(n)
	}
	return rand.Intn(n)
}

// HexEncodeChar spells a character as its \XX escape.
func HexEncodeChar(c rune) string {
	return fmt.Sprintf("\\%02x", c)
}

// RandomlyHexEncodeString escapes each character of s with the given
// percentage, producing the kind of input an obfuscator emits. Used by
// tests to build round-trip material.
func RandomlyHexEncodeString(r *rand.Rand, s string, percent int) string {
	var result strings.Builder
	for _, c := range s {
		if Chance(r, percent) {
			result.WriteString(HexEncodeChar(c))
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}
