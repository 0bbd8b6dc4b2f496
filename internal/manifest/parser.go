package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Dialect identifies which surface syntax a document is written in.
type Dialect int

const (
	// DialectHeading is the #/##/### markdown-section syntax.
	DialectHeading Dialect = iota
	// DialectCompact is the `tool: name(args)` indented-section syntax.
	DialectCompact
)

func (d Dialect) String() string {
	if d == DialectCompact {
		return "compact"
	}
	return "heading"
}

var (
	// tool: searchProducts(query, limit = 10)
	toolHeaderRe = regexp.MustCompile(`^tool:\s+(\w+)\(([^)]*)\)\s*$`)
	toolPrefixRe = regexp.MustCompile(`^tool:\s+`)

	// ```lang\n ... ```
	codeBlockRe = regexp.MustCompile("(?s)```\\w*\\n(.*?)```")
)

// Parse converts webagents.md text to a Manifest. It never fails: input
// matching neither dialect yields whatever structure could be extracted.
func Parse(text string) *Manifest {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Manifest{Version: DefaultVersion}
	}

	lines := splitLines(text)

	var m *Manifest
	switch DetectDialect(lines) {
	case DialectCompact:
		m = parseCompact(lines)
	default:
		m = parseHeading(lines)
	}

	m.Version = DefaultVersion
	m.Content = text
	return m
}

// ParseFile reads and parses a webagents.md file.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// DetectDialect picks the dialect for a whole document. One compact tool
// header anywhere is enough to select the compact dialect.
func DetectDialect(lines []string) Dialect {
	for _, line := range lines {
		if toolHeaderRe.MatchString(line) {
			return DialectCompact
		}
	}
	return DialectHeading
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// extractCodeBlock returns the content of the first fenced block, or the
// trimmed text when there is none.
func extractCodeBlock(text string) string {
	if m := codeBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

func joinTrimmed(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
