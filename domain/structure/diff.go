package structure

import "github.com/codecite/codecite/internal/textmatch"

// DefaultRenameThreshold is the minimum normalized signature similarity for
// two differently named structures to classify as a rename.
const DefaultRenameThreshold = 0.6

// Pair couples the old and new version of one structure across a diff.
type Pair struct {
	Old CodeStructure
	New CodeStructure
}

// Diff partitions the structures of two commits into change buckets. Every
// input record lands in exactly one bucket; records with matching
// fingerprints on both sides are unchanged and excluded entirely.
type Diff struct {
	added    []CodeStructure
	deleted  []CodeStructure
	modified []Pair
	moved    []Pair
	renamed  []Pair
}

// Added returns structures present only at the new commit.
func (d Diff) Added() []CodeStructure { return d.added }

// Deleted returns structures present only at the old commit.
func (d Diff) Deleted() []CodeStructure { return d.deleted }

// Modified returns pairs with preserved identity but changed signatures.
func (d Diff) Modified() []Pair { return d.modified }

// Moved returns pairs whose name is unchanged but whose file differs.
func (d Diff) Moved() []Pair { return d.moved }

// Renamed returns pairs whose names differ but signatures are similar.
func (d Diff) Renamed() []Pair { return d.renamed }

// Empty reports whether the diff has no changes at all.
func (d Diff) Empty() bool {
	return len(d.added) == 0 && len(d.deleted) == 0 &&
		len(d.modified) == 0 && len(d.moved) == 0 && len(d.renamed) == 0
}

// ChangeCount returns the total number of classified changes.
func (d Diff) ChangeCount() int {
	return len(d.added) + len(d.deleted) + len(d.modified) + len(d.moved) + len(d.renamed)
}

// ClassifyOption configures classification.
type ClassifyOption func(*classifyConfig)

type classifyConfig struct {
	renameThreshold float64
}

// WithRenameThreshold overrides the rename similarity threshold.
func WithRenameThreshold(threshold float64) ClassifyOption {
	return func(c *classifyConfig) { c.renameThreshold = threshold }
}

// identityKey pairs candidates that kept file, name, and class.
type identityKey struct {
	filePath     string
	functionName string
	className    string
}

// nameKey pairs candidates that kept name and class across files.
type nameKey struct {
	functionName string
	className    string
}

// Classify partitions the old and new structure sets of one repository.
//
// Rules fire in order and each consumes its matches; an old record claimed by
// an earlier rule is never reconsidered. Reordering the rules changes
// classification on ambiguous inputs, so the order is part of the contract:
//
//  1. equal fingerprints on both sides: unchanged, excluded
//  2. same (file, name, class): modified
//  3. same (name, class), different file: moved
//  4. different name, signature similarity above the rename threshold: renamed
//  5. leftovers: deleted (old side) / added (new side)
func Classify(oldSet, newSet []CodeStructure, opts ...ClassifyOption) Diff {
	cfg := classifyConfig{renameThreshold: DefaultRenameThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}

	oldByFP := make(map[string]CodeStructure, len(oldSet))
	for _, s := range oldSet {
		oldByFP[s.Fingerprint()] = s
	}
	newByFP := make(map[string]CodeStructure, len(newSet))
	for _, s := range newSet {
		newByFP[s.Fingerprint()] = s
	}

	// Rule 1: shared fingerprints are unchanged.
	var oldOnly []CodeStructure
	for _, s := range oldSet {
		if _, ok := newByFP[s.Fingerprint()]; !ok {
			oldOnly = append(oldOnly, s)
		}
	}
	var newOnly []CodeStructure
	for _, s := range newSet {
		if _, ok := oldByFP[s.Fingerprint()]; !ok {
			newOnly = append(newOnly, s)
		}
	}

	var diff Diff
	oldConsumed := make([]bool, len(oldOnly))
	newConsumed := make([]bool, len(newOnly))

	// Rule 2: identity preserved, content changed.
	newByIdentity := make(map[identityKey]int, len(newOnly))
	for i, s := range newOnly {
		newByIdentity[identityKey{s.FilePath(), s.FunctionName(), s.ClassName()}] = i
	}
	for i, old := range oldOnly {
		j, ok := newByIdentity[identityKey{old.FilePath(), old.FunctionName(), old.ClassName()}]
		if !ok || newConsumed[j] {
			continue
		}
		diff.modified = append(diff.modified, Pair{Old: old, New: newOnly[j]})
		oldConsumed[i] = true
		newConsumed[j] = true
	}

	// Rule 3: same name and class in a different file.
	newByName := make(map[nameKey]int, len(newOnly))
	for i, s := range newOnly {
		if newConsumed[i] {
			continue
		}
		newByName[nameKey{s.FunctionName(), s.ClassName()}] = i
	}
	for i, old := range oldOnly {
		if oldConsumed[i] {
			continue
		}
		j, ok := newByName[nameKey{old.FunctionName(), old.ClassName()}]
		if !ok || newConsumed[j] {
			continue
		}
		if newOnly[j].FilePath() == old.FilePath() {
			continue
		}
		diff.moved = append(diff.moved, Pair{Old: old, New: newOnly[j]})
		oldConsumed[i] = true
		newConsumed[j] = true
	}

	// Rule 4: new name, similar signature. Each old record takes the most
	// similar unconsumed new record above the threshold.
	for i, old := range oldOnly {
		if oldConsumed[i] {
			continue
		}
		bestScore := cfg.renameThreshold
		bestIdx := -1
		for j, nw := range newOnly {
			if newConsumed[j] {
				continue
			}
			if nw.FunctionName() == old.FunctionName() && nw.ClassName() == old.ClassName() {
				continue
			}
			score := textmatch.Similarity(old.Signature(), nw.Signature())
			if score > bestScore {
				bestScore = score
				bestIdx = j
			}
		}
		if bestIdx < 0 {
			continue
		}
		diff.renamed = append(diff.renamed, Pair{Old: old, New: newOnly[bestIdx]})
		oldConsumed[i] = true
		newConsumed[bestIdx] = true
	}

	// Rule 5: leftovers.
	for i, old := range oldOnly {
		if !oldConsumed[i] {
			diff.deleted = append(diff.deleted, old)
		}
	}
	for j, nw := range newOnly {
		if !newConsumed[j] {
			diff.added = append(diff.added, nw)
		}
	}

	return diff
}
