// Package extraction turns raw source files into code structure candidates
// using lexical scanning: declaration regexes plus brace or indentation
// tracking, not a parser.
package extraction

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language is a supported source language, detected from file extension
// only. Content is never sniffed.
type Language string

const (
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Python     Language = "python"
	Go         Language = "go"
	Java       Language = "java"
	Ruby       Language = "ruby"
	Rust       Language = "rust"
	C          Language = "c"
	CPP        Language = "cpp"
	CSharp     Language = "csharp"
	PHP        Language = "php"
	Swift      Language = "swift"
	Kotlin     Language = "kotlin"
)

var extensionLanguages = map[string]Language{
	".ts":    TypeScript,
	".tsx":   TypeScript,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".mjs":   JavaScript,
	".cjs":   JavaScript,
	".py":    Python,
	".go":    Go,
	".java":  Java,
	".rb":    Ruby,
	".rs":    Rust,
	".c":     C,
	".h":     C,
	".cpp":   CPP,
	".cc":    CPP,
	".hpp":   CPP,
	".cs":    CSharp,
	".php":   PHP,
	".swift": Swift,
	".kt":    Kotlin,
	".kts":   Kotlin,
}

// UnsupportedLanguageError reports a file whose extension maps to no
// supported language.
type UnsupportedLanguageError struct {
	Path     string
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("extraction: unsupported language %q for %s", e.Language, e.Path)
}

// DetectLanguage maps a file path to its language by extension.
func DetectLanguage(path string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang, nil
	}
	return "", &UnsupportedLanguageError{Path: path, Language: strings.TrimPrefix(ext, ".")}
}

// Supported reports whether the path maps to a supported language.
func Supported(path string) bool {
	_, err := DetectLanguage(path)
	return err == nil
}
