package textmatch

import (
	"strings"
	"testing"
)

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash("func foo(a int) error")
	b := ContentHash("func foo(a int) error")
	if a != b {
		t.Errorf("hashing the same text twice gave %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestContentHash_Distinct(t *testing.T) {
	if ContentHash("foo") == ContentHash("bar") {
		t.Error("different inputs must not collide")
	}
}

func TestShortFingerprint(t *testing.T) {
	full := ContentHash("func foo()")
	short := ShortFingerprint(full)
	if len(short) != ShortFingerprintLength {
		t.Errorf("short fingerprint length = %d, want %d", len(short), ShortFingerprintLength)
	}
	if !strings.HasPrefix(full, short) {
		t.Error("short fingerprint must be a prefix of the full one")
	}
	if ShortFingerprint("abc") != "abc" {
		t.Error("inputs shorter than the display length pass through unchanged")
	}
}

func TestNormalizeSignature(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses runs", "func   foo(a  int)\t error", "func foo(a int) error"},
		{"trims", "  func foo()  ", "func foo()"},
		{"newlines", "function foo(\n  a,\n  b\n)", "function foo( a, b )"},
		{"already normal", "def foo(a, b):", "def foo(a, b):"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSignature(tt.in); got != tt.want {
				t.Errorf("NormalizeSignature(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeSignature_HashEquality(t *testing.T) {
	a := NormalizeSignature("func foo(a int)   error")
	b := NormalizeSignature("func foo(a int) error")
	if ContentHash(a) != ContentHash(b) {
		t.Error("whitespace-only variants must fingerprint identically after normalization")
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "hello", "hello", 1},
		{"both empty", "", "", 1},
		{"one empty", "hello", "", 0},
		{"disjoint", "abc", "xyz", 0},
		{"one edit", "kitten", "mitten", 5.0 / 6.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a, b := "processPayment(amount)", "processRefund(amount)"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity must be symmetric")
	}
}
