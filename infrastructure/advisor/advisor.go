// Package advisor estimates whether a classified code diff should trigger a
// documentation update. The language-model call is best effort: callers fall
// back to the deterministic rule on any error and never fail a sync over it.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/codecite/codecite/domain/structure"
)

// Assessment is the advisor's verdict on one classified diff. Confidence is
// a percentage from 0 to 100.
type Assessment struct {
	ShouldUpdate bool    `json:"should_update"`
	Confidence   float64 `json:"confidence"`
	Summary      string  `json:"summary"`
}

// Advisor judges documentation impact for a repository diff.
type Advisor interface {
	Assess(ctx context.Context, repository string, diff structure.Diff) (Assessment, error)
}

// Fallback computes the deterministic assessment used whenever the model is
// unavailable: documentation should update when any exported symbol changed
// identity or content, or when any identity-affecting change exists at all.
func Fallback(diff structure.Diff) Assessment {
	exported := 0
	for _, s := range diff.Added() {
		if s.Exported() {
			exported++
		}
	}
	for _, s := range diff.Deleted() {
		if s.Exported() {
			exported++
		}
	}
	for _, p := range diff.Modified() {
		if p.Old.Exported() || p.New.Exported() {
			exported++
		}
	}
	for _, p := range diff.Moved() {
		if p.Old.Exported() || p.New.Exported() {
			exported++
		}
	}
	for _, p := range diff.Renamed() {
		if p.Old.Exported() || p.New.Exported() {
			exported++
		}
	}

	significant := len(diff.Deleted()) + len(diff.Moved()) + len(diff.Renamed())

	switch {
	case exported > 0:
		return Assessment{
			ShouldUpdate: true,
			Confidence:   90,
			Summary:      fmt.Sprintf("%d exported symbol(s) changed", exported),
		}
	case significant > 0:
		return Assessment{
			ShouldUpdate: true,
			Confidence:   60,
			Summary:      fmt.Sprintf("%d structural change(s) without exported symbols", significant),
		}
	case diff.ChangeCount() > 0:
		return Assessment{
			ShouldUpdate: false,
			Confidence:   70,
			Summary:      "only internal modifications or additions",
		}
	default:
		return Assessment{ShouldUpdate: false, Confidence: 100, Summary: "no changes"}
	}
}

// describeDiff renders a compact, deterministic change list for the prompt.
func describeDiff(diff structure.Diff) string {
	var b strings.Builder
	writePairs := func(verb string, pairs []structure.Pair) {
		for _, p := range pairs {
			fmt.Fprintf(&b, "- %s: %s -> %s (%s)\n", verb, qualified(p.Old), qualified(p.New), p.New.FilePath())
		}
	}
	for _, s := range diff.Added() {
		fmt.Fprintf(&b, "- added: %s (%s)\n", qualified(s), s.FilePath())
	}
	for _, s := range diff.Deleted() {
		fmt.Fprintf(&b, "- deleted: %s (%s)\n", qualified(s), s.FilePath())
	}
	writePairs("modified", diff.Modified())
	writePairs("moved", diff.Moved())
	writePairs("renamed", diff.Renamed())
	return b.String()
}

func qualified(s structure.CodeStructure) string {
	if s.ClassName() != "" {
		return s.ClassName() + "." + s.FunctionName()
	}
	return s.FunctionName()
}
