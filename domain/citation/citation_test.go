package citation

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContent_HashTracksContent(t *testing.T) {
	ref := NewRangeReference("acme", "billing", "src/pay.ts", 10, 20)
	require.Empty(t, ref.Hash())

	updated := ref.WithContent("function pay() {}\n", "abc123")

	sum := sha256.Sum256([]byte("function pay() {}\n"))
	assert.Equal(t, hex.EncodeToString(sum[:]), updated.Hash())
	assert.Equal(t, "abc123", updated.CommitSHA())
	assert.False(t, updated.Stale())
	require.NotNil(t, updated.LastModified())

	// receiver untouched
	assert.Empty(t, ref.Hash())
	assert.Empty(t, ref.CommitSHA())
}

func TestRelocateTo(t *testing.T) {
	ref := NewRangeReference("acme", "billing", "src/pay.ts", 10, 20).
		WithContent("old body", "sha1").
		MarkStale()

	moved := ref.RelocateTo(31, 41, "new body", "sha2")

	require.NotNil(t, moved.StartLine())
	require.NotNil(t, moved.EndLine())
	assert.Equal(t, 31, *moved.StartLine())
	assert.Equal(t, 41, *moved.EndLine())
	assert.Equal(t, "new body", moved.Content())
	assert.False(t, moved.Stale())
	assert.Equal(t, 11, moved.LineCount())
}

func TestRelocateTo_LineReferenceKeepsNilEnd(t *testing.T) {
	ref := NewLineReference("acme", "billing", "src/pay.ts", 5)
	moved := ref.RelocateTo(9, 9, "line", "sha")
	assert.Nil(t, moved.EndLine())
	assert.Equal(t, 1, moved.LineCount())
}

func TestDeactivate(t *testing.T) {
	ref := NewFunctionReference("acme", "billing", "src/pay.ts", "processPayment")
	assert.True(t, ref.Active())
	assert.Equal(t, 0, ref.LineCount())

	gone := ref.Deactivate()
	assert.False(t, gone.Active())
	assert.True(t, gone.Stale())
	assert.True(t, ref.Active(), "receiver must not mutate")
}

func TestNewWithID_RecomputesHash(t *testing.T) {
	ref := NewWithID("id-1", "acme", "billing", "a.ts", TypeLine, intp(3), nil,
		"", "snippet", "sha", nil, true, false, nil, ref0().CreatedAt(), ref0().CreatedAt())
	sum := sha256.Sum256([]byte("snippet"))
	assert.Equal(t, hex.EncodeToString(sum[:]), ref.Hash())
	assert.Equal(t, "acme/billing", ref.FullName())
}

func ref0() Reference { return NewLineReference("o", "r", "p", 1) }

func intp(v int) *int { return &v }
