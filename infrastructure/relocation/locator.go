// Package relocation finds the new position of a stored code citation inside
// changed file content, by exact window matching first and fuzzy similarity
// second.
package relocation

import (
	"regexp"
	"strings"
)

// Span is a 1-based inclusive line range inside a file.
type Span struct {
	StartLine int
	EndLine   int
}

// FunctionLocator resolves a named function's boundaries in file content.
type FunctionLocator interface {
	Locate(content, name string) (Span, bool)
}

// LexicalLocator finds function boundaries by declaration patterns and brace
// depth, without parsing. It recognizes free functions, class methods with
// visibility or async modifiers, arrow bindings, and Python defs.
type LexicalLocator struct{}

// NewLexicalLocator returns a locator.
func NewLexicalLocator() *LexicalLocator { return &LexicalLocator{} }

func declPatterns(name string) []*regexp.Regexp {
	n := regexp.QuoteMeta(name)
	return []*regexp.Regexp{
		regexp.MustCompile(`\bfunction\s*\*?\s*` + n + `\s*\(`),
		regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+` + n + `\s*(?::[^=]+)?=\s*(?:async\s*)?\(`),
		regexp.MustCompile(`^(?:(?:public|private|protected|static|readonly|async|get|set)\s+)*\*?` + n + `\s*\(`),
		regexp.MustCompile(`\bfunc\s+(?:\([^)]*\)\s*)?` + n + `\s*[(\[]`),
		regexp.MustCompile(`\bdef\s+` + n + `\s*\(`),
	}
}

// Locate scans for a declaration of name and closes its block where brace
// depth returns to zero. Single-line and arrow bodies close on the
// declaration line; Python defs close at the dedent.
func (l *LexicalLocator) Locate(content, name string) (Span, bool) {
	lines := strings.Split(content, "\n")
	patterns := declPatterns(name)

	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		matched := false
		for _, p := range patterns {
			if p.MatchString(trimmed) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "async def ") {
			return pythonSpan(lines, i), true
		}
		return braceSpan(lines, i), true
	}
	return Span{}, false
}

// braceSpan tracks brace depth from the declaration line. A declaration that
// never opens a block terminates immediately.
func braceSpan(lines []string, start int) Span {
	depth := 0
	opened := false
	for li := start; li < len(lines); li++ {
		for _, ch := range lines[li] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
				if opened && depth == 0 {
					return Span{StartLine: start + 1, EndLine: li + 1}
				}
			}
		}
		if !opened {
			// single-line or arrow expression body
			return Span{StartLine: start + 1, EndLine: start + 1}
		}
	}
	return Span{StartLine: start + 1, EndLine: len(lines)}
}

func pythonSpan(lines []string, start int) Span {
	indent := len(lines[start]) - len(strings.TrimLeft(lines[start], " \t"))
	end := start
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		lineIndent := len(lines[i]) - len(strings.TrimLeft(lines[i], " \t"))
		if lineIndent <= indent {
			break
		}
		end = i
	}
	return Span{StartLine: start + 1, EndLine: end + 1}
}
