package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Link is one parsed citation link from a markdown document.
//
// The grammar is:
//
//	[label](github://OWNER/REPO/PATH:LINE)       single line
//	[label](github://OWNER/REPO/PATH:START-END)  inclusive range
//	[label](github://OWNER/REPO/PATH#FUNCTION)   named function
type Link struct {
	Label        string
	Owner        string
	Repo         string
	Path         string
	StartLine    int
	EndLine      int
	FunctionName string
}

// LinkScheme is the URI scheme citation links use.
const LinkScheme = "github://"

var linkPattern = regexp.MustCompile(
	`\[([^\]]*)\]\(github://([^/\s)]+)/([^/\s)]+)/([^):#\s]+)(?::(\d+)(?:-(\d+))?|#([A-Za-z_$][A-Za-z0-9_$]*))\)`)

// Type returns the reference type the link encodes.
func (l Link) Type() ReferenceType {
	switch {
	case l.FunctionName != "":
		return TypeFunction
	case l.EndLine > 0 && l.EndLine != l.StartLine:
		return TypeRange
	default:
		return TypeLine
	}
}

// Target formats the link target URI without the markdown wrapper.
func (l Link) Target() string {
	base := fmt.Sprintf("%s%s/%s/%s", LinkScheme, l.Owner, l.Repo, l.Path)
	switch l.Type() {
	case TypeFunction:
		return base + "#" + l.FunctionName
	case TypeRange:
		return fmt.Sprintf("%s:%d-%d", base, l.StartLine, l.EndLine)
	default:
		return fmt.Sprintf("%s:%d", base, l.StartLine)
	}
}

// Markdown formats the full markdown citation link.
func (l Link) Markdown() string {
	return fmt.Sprintf("[%s](%s)", l.Label, l.Target())
}

// ToReference builds a new active citation from the link.
func (l Link) ToReference() Reference {
	switch l.Type() {
	case TypeFunction:
		return NewFunctionReference(l.Owner, l.Repo, l.Path, l.FunctionName)
	case TypeRange:
		return NewRangeReference(l.Owner, l.Repo, l.Path, l.StartLine, l.EndLine)
	default:
		return NewLineReference(l.Owner, l.Repo, l.Path, l.StartLine)
	}
}

// ParseLink parses one markdown citation link. The input must be exactly one
// link with no surrounding text.
func ParseLink(s string) (Link, error) {
	m := linkPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || m[0] != strings.TrimSpace(s) {
		return Link{}, fmt.Errorf("citation: malformed link %q", s)
	}
	return linkFromMatch(m)
}

// ScanDocument extracts every citation link from a markdown document, in
// document order. Malformed github:// targets are skipped, not errors.
func ScanDocument(doc string) []Link {
	matches := linkPattern.FindAllStringSubmatch(doc, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		link, err := linkFromMatch(m)
		if err != nil {
			continue
		}
		links = append(links, link)
	}
	return links
}

func linkFromMatch(m []string) (Link, error) {
	link := Link{
		Label:        m[1],
		Owner:        m[2],
		Repo:         m[3],
		Path:         m[4],
		FunctionName: m[7],
	}
	if m[5] != "" {
		start, err := strconv.Atoi(m[5])
		if err != nil {
			return Link{}, fmt.Errorf("citation: bad start line %q: %w", m[5], err)
		}
		link.StartLine = start
	}
	if m[6] != "" {
		end, err := strconv.Atoi(m[6])
		if err != nil {
			return Link{}, fmt.Errorf("citation: bad end line %q: %w", m[6], err)
		}
		if end < link.StartLine {
			return Link{}, fmt.Errorf("citation: inverted range %d-%d", link.StartLine, end)
		}
		link.EndLine = end
	}
	return link, nil
}
