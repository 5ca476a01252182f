// Package textmatch provides the hashing and similarity primitives shared by
// the structure fingerprinter, the diff classifier, and the citation relocator.
package textmatch

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/agext/levenshtein"
)

// ShortFingerprintLength is the number of hex characters used when a
// fingerprint is displayed or logged.
const ShortFingerprintLength = 8

// ContentHash returns the hex-encoded SHA-256 of the given text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint truncates a full hex fingerprint for display.
func ShortFingerprint(fingerprint string) string {
	if len(fingerprint) <= ShortFingerprintLength {
		return fingerprint
	}
	return fingerprint[:ShortFingerprintLength]
}

// NormalizeSignature collapses all whitespace runs to single spaces and trims
// the result, so formatting-only edits do not change a function's identity.
func NormalizeSignature(signature string) string {
	return strings.Join(strings.Fields(signature), " ")
}

// Similarity returns the normalized Levenshtein similarity between two
// strings: (longer - distance) / longer, in [0, 1]. Two empty strings are
// identical (1); one empty string against a non-empty one scores 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longer := len([]rune(a))
	if n := len([]rune(b)); n > longer {
		longer = n
	}
	if longer == 0 {
		return 1
	}
	dist := levenshtein.Distance(a, b, nil)
	return float64(longer-dist) / float64(longer)
}
