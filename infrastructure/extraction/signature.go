package extraction

import (
	"strings"
	"unicode"
)

// modifierWords are declaration keywords stripped ahead of a function name.
// The set is the union across supported languages; unknown words end the
// modifier prefix.
var modifierWords = map[string]bool{
	"export": true, "default": true, "async": true, "static": true,
	"public": true, "private": true, "protected": true, "internal": true,
	"abstract": true, "override": true, "virtual": true, "final": true,
	"readonly": true, "open": true, "suspend": true, "inline": true,
	"unsafe": true, "constexpr": true, "get": true, "set": true,
	"pub": true, "extern": true,
}

// leadingModifiers returns the modifier keywords prefixing a declaration.
func leadingModifiers(signature string) []string {
	var mods []string
	for _, word := range strings.Fields(signature) {
		w := strings.TrimSuffix(word, ":")
		if w == "pub(crate)" || strings.HasPrefix(w, "pub(") {
			mods = append(mods, "pub")
			continue
		}
		if !modifierWords[w] {
			break
		}
		mods = append(mods, w)
	}
	return mods
}

// parseParams splits the parenthesized parameter list of a signature at
// top-level commas. Nested parens, generics, and array literals do not split.
func parseParams(signature string) []string {
	open, end := paramSpan(signature)
	if open < 0 {
		return nil
	}
	if end < 0 {
		end = len(signature)
	}
	inner := strings.TrimSpace(signature[open+1 : end])
	if inner == "" {
		return nil
	}

	var params []string
	depth := 0
	start := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(', '[', '<', '{':
			depth++
		case ')', ']', '>', '}':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	if p := strings.TrimSpace(inner[start:]); p != "" {
		params = append(params, p)
	}
	return params
}

// paramSpan returns the byte offsets of the parameter list parens, matching
// the first open paren of the signature.
func paramSpan(signature string) (open, close int) {
	open = strings.IndexByte(signature, '(')
	if open < 0 {
		return -1, -1
	}
	depth := 0
	for i := open; i < len(signature); i++ {
		switch signature[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return open, i
			}
		}
	}
	return open, -1
}

// parseReturnType extracts the declared return type following the parameter
// list, for the languages that place it there.
func parseReturnType(lang Language, signature string) string {
	_, close := paramSpan(signature)
	if close < 0 || close+1 >= len(signature) {
		return ""
	}
	rest := strings.TrimSpace(signature[close+1:])
	switch lang {
	case TypeScript, Kotlin, Swift:
		rest = strings.TrimPrefix(rest, ":")
		return strings.TrimSpace(strings.TrimSuffix(rest, "=>"))
	case Python:
		rest = strings.TrimSuffix(rest, ":")
		rest = strings.TrimSpace(rest)
		return strings.TrimSpace(strings.TrimPrefix(rest, "->"))
	case Rust:
		return strings.TrimSpace(strings.TrimPrefix(rest, "->"))
	case Go:
		return rest
	}
	return ""
}

// isExported decides visibility per language convention: export/pub/public
// keywords where the language has them, case for Go, underscore for Python.
func isExported(lang Language, name, className string, modifiers []string) bool {
	has := func(m string) bool {
		for _, mod := range modifiers {
			if mod == m {
				return true
			}
		}
		return false
	}
	switch lang {
	case TypeScript, JavaScript:
		if className != "" {
			return !has("private") && !has("protected") && !strings.HasPrefix(name, "#")
		}
		return has("export")
	case Go:
		for _, r := range name {
			return unicode.IsUpper(r)
		}
		return false
	case Python:
		return !strings.HasPrefix(name, "_")
	case Rust:
		return has("pub")
	case Java, CSharp, PHP, Kotlin, Swift:
		return has("public") || has("open")
	case C, CPP:
		return !has("static")
	}
	return true
}
