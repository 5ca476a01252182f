package extraction

import (
	"regexp"
	"strings"

	"github.com/codecite/codecite/domain/structure"
)

var branchToken = regexp.MustCompile(
	`\b(if|elif|else if|for|foreach|while|case|when|catch|rescue|except)\b|&&|\|\|`)

// analyzeMetrics counts complexity lexically over a function body. Cyclomatic
// is 1 plus the branch tokens; cognitive weights each branch by its nesting
// depth at the point it appears.
func analyzeMetrics(lang Language, body []string) structure.Metrics {
	loc := 0
	cyclomatic := 1
	cognitive := 0
	depth := 0

	indentBased := lang == Python || lang == Ruby
	baseIndent := -1

	for _, raw := range body {
		line := stripLineComment(lang, raw)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		loc++

		if indentBased {
			indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
			if baseIndent < 0 {
				baseIndent = indent
			}
			depth = 0
			if indent > baseIndent {
				depth = (indent - baseIndent + 1) / 2
			}
		}

		branches := branchToken.FindAllString(line, -1)
		cyclomatic += len(branches)
		for range branches {
			cognitive += 1 + depth
		}

		// Depth rises after the line's branches are scored, so a branch
		// that opens its own block is weighted by the depth outside it.
		if !indentBased {
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if depth < 0 {
				depth = 0
			}
		}
	}

	return structure.NewMetrics(loc, cyclomatic, cognitive)
}

var callToken = regexp.MustCompile(`([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`)

// callKeywords are identifier-before-paren tokens that are syntax, not
// callees.
var callKeywords = map[string]bool{
	"if": true, "elif": true, "for": true, "foreach": true, "while": true,
	"switch": true, "case": true, "when": true, "catch": true, "except": true,
	"return": true, "function": true, "func": true, "fn": true, "def": true,
	"new": true, "typeof": true, "await": true, "yield": true, "defer": true,
	"go": true, "not": true, "and": true, "or": true, "in": true,
	"super": true, "print": true, "assert": true, "raise": true, "throw": true,
	"sizeof": true, "do": true, "else": true, "try": true, "with": true,
}

// extractDependencies collects callee identifiers from a function body: any
// identifier immediately before an open paren, minus language keywords and
// the function's own name, deduplicated in first-seen order.
func extractDependencies(lang Language, name string, body []string) []string {
	seen := map[string]bool{}
	var deps []string
	for _, raw := range body {
		line := stripLineComment(lang, raw)
		for _, m := range callToken.FindAllStringSubmatch(line, -1) {
			callee := m[1]
			if callKeywords[callee] || callee == name || seen[callee] {
				continue
			}
			seen[callee] = true
			deps = append(deps, callee)
		}
	}
	return deps
}

// stripLineComment cuts a line at its line-comment marker. String literals
// containing the marker are miscounted; this is a lexical scanner, not a
// parser.
func stripLineComment(lang Language, line string) string {
	marker := "//"
	switch lang {
	case Python, Ruby:
		marker = "#"
	case PHP:
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
	}
	if i := strings.Index(line, marker); i >= 0 {
		return line[:i]
	}
	return line
}
