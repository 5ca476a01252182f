package extraction

import (
	"regexp"
	"strings"

	"github.com/codecite/codecite/domain/structure"
)

// Extractor produces code structure candidates from raw source text. It is
// stateless and deterministic: identical content yields identical candidates.
type Extractor struct{}

// New returns an extractor.
func New() *Extractor { return &Extractor{} }

// Extract scans one file and returns its function and method candidates in
// source order. The language comes from the file extension; unsupported
// extensions fail with *UnsupportedLanguageError.
func (e *Extractor) Extract(path, content string) ([]structure.Candidate, error) {
	lang, err := DetectLanguage(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(content, "\n")
	switch lang {
	case Python:
		return scanPython(path, lines), nil
	case Ruby:
		return scanRuby(path, lines), nil
	default:
		return scanBrace(lang, path, lines), nil
	}
}

var (
	jsFuncPattern  = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)
	jsArrowPattern = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)(?:\s*:[^=]+)?\s*=\s*(?:async\s+)?\(`)
	jsMethodPattern = regexp.MustCompile(`^(?:(?:public|private|protected|static|readonly|async|get|set)\s+)*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)
	jsClassPattern  = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)

	goFuncPattern = regexp.MustCompile(`^func\s+(?:\(\s*\w+\s+\*?([\w\.]+)\s*\)\s+)?([A-Za-z_]\w*)\s*[(\[]`)

	javaMethodPattern = regexp.MustCompile(`^(?:(?:public|private|protected|internal|static|final|abstract|synchronized|native|virtual|override|sealed|async)\s+)+(?:[\w<>\[\],.?\s]+?\s+)?([A-Za-z_]\w*)\s*\(`)
	javaClassPattern  = regexp.MustCompile(`^(?:(?:public|private|protected|internal|static|final|abstract|sealed)\s+)*(?:class|interface|enum|record)\s+([A-Za-z_]\w*)`)

	cFuncPattern  = regexp.MustCompile(`^(?:(?:static|inline|extern|constexpr|unsigned|signed|const|struct)\s+)*[\w*&<>:,\s]+?[\s*&]([A-Za-z_]\w*)\s*\(`)
	cClassPattern = regexp.MustCompile(`^(?:class|struct)\s+([A-Za-z_]\w*)`)

	rustFnPattern   = regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+([A-Za-z_]\w*)`)
	rustImplPattern = regexp.MustCompile(`^impl(?:<[^>]*>)?\s+(?:[\w:<>]+\s+for\s+)?([A-Za-z_][\w:]*)`)

	kotlinFnPattern    = regexp.MustCompile(`^(?:(?:public|private|protected|internal|open|override|suspend|inline|operator)\s+)*fun\s+(?:<[^>]*>\s+)?([A-Za-z_]\w*)\s*\(`)
	kotlinClassPattern = regexp.MustCompile(`^(?:(?:public|private|internal|open|abstract|data|sealed)\s+)*(?:class|object|interface)\s+([A-Za-z_]\w*)`)

	swiftFnPattern    = regexp.MustCompile(`^(?:(?:public|private|fileprivate|internal|open|static|override|final|mutating)\s+)*func\s+([A-Za-z_]\w*)\s*\(`)
	swiftClassPattern = regexp.MustCompile(`^(?:(?:public|open|final)\s+)*(?:class|struct|protocol|extension)\s+([A-Za-z_]\w*)`)

	phpFnPattern    = regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract)\s+)*function\s+&?([A-Za-z_]\w*)\s*\(`)
	phpClassPattern = regexp.MustCompile(`^(?:final\s+|abstract\s+)?(?:class|interface|trait)\s+([A-Za-z_]\w*)`)
)

// declRejects are names and leading words that look like declarations to the
// lexical patterns but are control flow.
var declRejects = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "else": true, "do": true, "new": true, "throw": true,
	"delete": true, "case": true,
}

// matchBraceDecl matches a function declaration at the start of a trimmed
// line. For Go it also returns the receiver base type.
func matchBraceDecl(lang Language, trimmed string, insideClass bool) (name, recv string, ok bool) {
	switch lang {
	case Go:
		if m := goFuncPattern.FindStringSubmatch(trimmed); m != nil {
			return m[2], m[1], true
		}
	case TypeScript, JavaScript:
		if m := jsFuncPattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], "", true
		}
		if m := jsArrowPattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], "", true
		}
		if insideClass {
			if m := jsMethodPattern.FindStringSubmatch(trimmed); m != nil && !declRejects[m[1]] {
				return m[1], "", true
			}
		}
	case Java, CSharp:
		if m := javaMethodPattern.FindStringSubmatch(trimmed); m != nil && !declRejects[m[1]] {
			return m[1], "", true
		}
	case C, CPP:
		first, _, _ := strings.Cut(trimmed, " ")
		if declRejects[first] {
			return "", "", false
		}
		if m := cFuncPattern.FindStringSubmatch(trimmed); m != nil && !declRejects[m[1]] {
			return m[1], "", true
		}
	case Rust:
		if m := rustFnPattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], "", true
		}
	case Kotlin:
		if m := kotlinFnPattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], "", true
		}
	case Swift:
		if m := swiftFnPattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], "", true
		}
	case PHP:
		if m := phpFnPattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], "", true
		}
	}
	return "", "", false
}

func classPattern(lang Language) *regexp.Regexp {
	switch lang {
	case TypeScript, JavaScript:
		return jsClassPattern
	case Java, CSharp:
		return javaClassPattern
	case CPP:
		return cClassPattern
	case Rust:
		return rustImplPattern
	case Kotlin:
		return kotlinClassPattern
	case Swift:
		return swiftClassPattern
	case PHP:
		return phpClassPattern
	}
	return nil
}

// maxSignatureLines bounds how far a declaration may spread before the body
// opens.
const maxSignatureLines = 40

// funcSpan locates the extent of one matched declaration.
type funcSpan struct {
	sigEnd  int // line index where the signature text ends
	cutCol  int // column on sigEnd where the signature stops
	bodyEnd int // line index of the last body line
	valid   bool
}

// scanFunctionSpan walks characters from the declaration line to find where
// the parameter list closes and the body opens and ends. A semicolon at
// paren depth zero means a bodyless declaration; an arrow without a block
// closes on its own line.
func scanFunctionSpan(lang Language, lines []string, start int) funcSpan {
	parens := 0
	seenParen := false
	for li := start; li < len(lines) && li-start < maxSignatureLines; li++ {
		line := stripLineComment(lang, lines[li])
		for ci := 0; ci < len(line); ci++ {
			switch line[ci] {
			case '(':
				parens++
				seenParen = true
			case ')':
				parens--
			case '{':
				if seenParen && parens == 0 {
					end := findBraceEnd(lang, lines, li, ci)
					if end < 0 {
						return funcSpan{}
					}
					return funcSpan{sigEnd: li, cutCol: ci, bodyEnd: end, valid: true}
				}
			case ';':
				if parens == 0 {
					return funcSpan{}
				}
			case '=':
				if seenParen && parens == 0 && ci+1 < len(line) && line[ci+1] == '>' &&
					!strings.Contains(line[ci:], "{") {
					return funcSpan{sigEnd: li, cutCol: ci, bodyEnd: li, valid: true}
				}
			}
		}
	}
	return funcSpan{}
}

// findBraceEnd returns the line index where the block opened at (li, ci)
// closes.
func findBraceEnd(lang Language, lines []string, li, ci int) int {
	depth := 0
	for l := li; l < len(lines); l++ {
		line := stripLineComment(lang, lines[l])
		start := 0
		if l == li {
			start = ci
		}
		for c := start; c < len(line); c++ {
			switch line[c] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return l
				}
			}
		}
	}
	return -1
}

func buildSignature(lang Language, lines []string, start int, span funcSpan) string {
	var parts []string
	for li := start; li <= span.sigEnd && li < len(lines); li++ {
		line := stripLineComment(lang, lines[li])
		if li == span.sigEnd {
			cut := span.cutCol
			if cut > len(line) {
				cut = len(line)
			}
			line = line[:cut]
		}
		parts = append(parts, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

var goReceiverPrefix = regexp.MustCompile(`^func\s*\([^)]*\)\s*`)

func makeCandidate(lang Language, path, name, className, sig string,
	startLine, endLine int, body, decorators []string) structure.Candidate {
	paramSig := sig
	if lang == Go {
		paramSig = goReceiverPrefix.ReplaceAllString(sig, "func ")
	}
	mods := leadingModifiers(sig)
	return structure.Candidate{
		FilePath:     path,
		FunctionName: name,
		ClassName:    className,
		Signature:    sig,
		StartLine:    startLine,
		EndLine:      endLine,
		Language:     string(lang),
		Exported:     isExported(lang, name, className, mods),
		AST: structure.NewAST(
			parseParams(paramSig),
			parseReturnType(lang, paramSig),
			mods,
			decorators,
			extractDependencies(lang, name, body),
		),
		Metrics: analyzeMetrics(lang, body),
	}
}

func isDecorator(lang Language, trimmed string) bool {
	switch lang {
	case TypeScript, JavaScript, Python, Java, Kotlin:
		return strings.HasPrefix(trimmed, "@")
	}
	return false
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// scanBrace extracts functions from brace-delimited languages. Function
// bodies are skipped once extracted, so nested closures and call statements
// inside bodies are never re-matched; class bodies stay open so methods are
// seen.
func scanBrace(lang Language, path string, lines []string) []structure.Candidate {
	type classCtx struct {
		name       string
		closeDepth int
		opened     bool
	}
	var (
		out        []structure.Candidate
		classes    []classCtx
		decorators []string
	)
	classRe := classPattern(lang)
	depth := 0

	for i := 0; i < len(lines); i++ {
		line := stripLineComment(lang, lines[i])
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if isDecorator(lang, trimmed) {
			decorators = append(decorators, trimmed)
			continue
		}

		if classRe != nil {
			if m := classRe.FindStringSubmatch(trimmed); m != nil {
				ctx := classCtx{name: m[1], closeDepth: depth}
				depth += strings.Count(line, "{") - strings.Count(line, "}")
				ctx.opened = depth > ctx.closeDepth
				classes = append(classes, ctx)
				decorators = nil
				continue
			}
		}

		insideClass := len(classes) > 0 && depth == classes[len(classes)-1].closeDepth+1
		if name, recv, ok := matchBraceDecl(lang, trimmed, insideClass); ok {
			if span := scanFunctionSpan(lang, lines, i); span.valid {
				className := recv
				if className == "" && insideClass {
					className = classes[len(classes)-1].name
				}
				sig := buildSignature(lang, lines, i, span)
				body := lines[i:min(span.bodyEnd+1, len(lines))]
				out = append(out, makeCandidate(lang, path, name, className, sig,
					i+1, span.bodyEnd+1, body, decorators))
				decorators = nil
				i = span.bodyEnd
				continue
			}
		}

		decorators = nil
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
		for len(classes) > 0 {
			top := classes[len(classes)-1]
			if !top.opened {
				if depth > top.closeDepth {
					classes[len(classes)-1].opened = true
				}
				break
			}
			if depth <= top.closeDepth {
				classes = classes[:len(classes)-1]
				continue
			}
			break
		}
	}
	return out
}

var (
	pyDefPattern   = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	pyClassPattern = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`)
)

// scanPython extracts defs using indentation blocks. Nested defs inside a
// function body are part of that body, not separate candidates; methods of a
// class are.
func scanPython(path string, lines []string) []structure.Candidate {
	type classCtx struct {
		name   string
		indent int
	}
	var (
		out        []structure.Candidate
		classes    []classCtx
		decorators []string
	)

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(stripLineComment(Python, lines[i]))
		if trimmed == "" {
			continue
		}
		indent := indentOf(lines[i])
		for len(classes) > 0 && indent <= classes[len(classes)-1].indent {
			classes = classes[:len(classes)-1]
		}

		if strings.HasPrefix(trimmed, "@") {
			decorators = append(decorators, trimmed)
			continue
		}
		if m := pyClassPattern.FindStringSubmatch(trimmed); m != nil {
			classes = append(classes, classCtx{name: m[1], indent: indent})
			decorators = nil
			continue
		}
		m := pyDefPattern.FindStringSubmatch(trimmed)
		if m == nil {
			decorators = nil
			continue
		}

		// The signature runs until a colon at paren depth zero.
		parens := 0
		sigEnd := -1
		var sigParts []string
		for j := i; j < len(lines) && j-i < maxSignatureLines; j++ {
			l := stripLineComment(Python, lines[j])
			parens += strings.Count(l, "(") - strings.Count(l, ")")
			sigParts = append(sigParts, strings.TrimSpace(l))
			if parens == 0 && strings.HasSuffix(strings.TrimSpace(l), ":") {
				sigEnd = j
				break
			}
		}
		if sigEnd < 0 {
			decorators = nil
			continue
		}

		end := sigEnd
		for j := sigEnd + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			if indentOf(lines[j]) <= indent {
				break
			}
			end = j
		}

		sig := strings.TrimSuffix(strings.Join(sigParts, " "), ":")
		className := ""
		if len(classes) > 0 {
			className = classes[len(classes)-1].name
		}
		out = append(out, makeCandidate(Python, path, m[1], className, sig,
			i+1, end+1, lines[i:end+1], decorators))
		decorators = nil
		i = end
	}
	return out
}

var (
	rbDefPattern   = regexp.MustCompile(`^def\s+(?:self\.)?([A-Za-z_]\w*[?!]?)`)
	rbClassPattern = regexp.MustCompile(`^(?:class|module)\s+([A-Z]\w*)`)
)

// scanRuby extracts defs closed by an end keyword at or below the def's
// indentation.
func scanRuby(path string, lines []string) []structure.Candidate {
	type classCtx struct {
		name   string
		indent int
	}
	var (
		out     []structure.Candidate
		classes []classCtx
	)

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(stripLineComment(Ruby, lines[i]))
		if trimmed == "" {
			continue
		}
		indent := indentOf(lines[i])

		if trimmed == "end" {
			for len(classes) > 0 && indent <= classes[len(classes)-1].indent {
				classes = classes[:len(classes)-1]
			}
			continue
		}
		if m := rbClassPattern.FindStringSubmatch(trimmed); m != nil {
			classes = append(classes, classCtx{name: m[1], indent: indent})
			continue
		}
		m := rbDefPattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}

		end := i
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(stripLineComment(Ruby, lines[j])) == "end" && indentOf(lines[j]) <= indent {
				end = j
				break
			}
		}
		className := ""
		if len(classes) > 0 {
			className = classes[len(classes)-1].name
		}
		out = append(out, makeCandidate(Ruby, path, m[1], className, trimmed,
			i+1, end+1, lines[i:end+1], nil))
		i = end
	}
	return out
}
