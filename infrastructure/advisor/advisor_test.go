package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codecite/codecite/domain/structure"
)

func candidate(name string, exported bool) structure.CodeStructure {
	return structure.FromCandidate(1, "sha", structure.Candidate{
		FilePath:     "src/pay.ts",
		FunctionName: name,
		Signature:    "function " + name + "()",
		Exported:     exported,
	})
}

func TestFallback_ExportedChange(t *testing.T) {
	diff := structure.Classify(
		[]structure.CodeStructure{candidate("ProcessPayment", true)},
		[]structure.CodeStructure{},
	)

	got := Fallback(diff)
	assert.True(t, got.ShouldUpdate)
	assert.InDelta(t, 90, got.Confidence, 1e-9)
}

func TestFallback_InternalOnly(t *testing.T) {
	old := []structure.CodeStructure{candidate("helper", false)}
	nw := []structure.CodeStructure{structure.FromCandidate(1, "sha2", structure.Candidate{
		FilePath:     "src/pay.ts",
		FunctionName: "helper",
		Signature:    "function helper(extra)",
	})}

	got := Fallback(structure.Classify(old, nw))
	assert.False(t, got.ShouldUpdate, "internal modification alone needs no doc update")
}

func TestFallback_SignificantWithoutExported(t *testing.T) {
	// An unexported function deleted outright still counts as significant.
	diff := structure.Classify(
		[]structure.CodeStructure{candidate("helper", false)},
		[]structure.CodeStructure{},
	)

	got := Fallback(diff)
	assert.True(t, got.ShouldUpdate)
	assert.InDelta(t, 60, got.Confidence, 1e-9)
}

func TestFallback_Empty(t *testing.T) {
	got := Fallback(structure.Diff{})
	assert.False(t, got.ShouldUpdate)
	assert.Equal(t, float64(100), got.Confidence)
}

func TestDescribeDiff_Deterministic(t *testing.T) {
	diff := structure.Classify(
		[]structure.CodeStructure{candidate("a", true), candidate("b", false)},
		[]structure.CodeStructure{},
	)
	assert.Equal(t, describeDiff(diff), describeDiff(diff))
	assert.Contains(t, describeDiff(diff), "deleted: a")
}
