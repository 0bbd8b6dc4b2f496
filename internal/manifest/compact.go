package manifest

import (
	"regexp"
	"strings"
)

// A section key sits at exactly two spaces of indentation.
var sectionKeyRe = regexp.MustCompile(`^\s{2}\w+:`)

func parseCompact(lines []string) *Manifest {
	m := &Manifest{}

	var preamble []string
	for _, line := range lines {
		if strings.HasPrefix(line, "# ") {
			m.Name = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			continue
		}
		if toolHeaderRe.MatchString(line) {
			break
		}
		preamble = append(preamble, line)
	}
	m.Description = joinTrimmed(preamble)

	for _, block := range splitToolBlocks(lines) {
		if t, ok := parseCompactTool(block); ok {
			m.Tools = append(m.Tools, t)
		}
	}
	return m
}

// splitToolBlocks cuts the document at every `tool:` line. The text after
// the prefix becomes the first line of its block.
func splitToolBlocks(lines []string) [][]string {
	var (
		blocks [][]string
		cur    []string
		inTool bool
	)
	for _, line := range lines {
		if loc := toolPrefixRe.FindStringIndex(line); loc != nil {
			if inTool {
				blocks = append(blocks, cur)
			}
			cur = []string{line[loc[1]:]}
			inTool = true
			continue
		}
		if inTool {
			cur = append(cur, line)
		}
	}
	if inTool {
		blocks = append(blocks, cur)
	}
	return blocks
}

func parseCompactTool(block []string) (Tool, bool) {
	lines := splitLines(joinTrimmed(block))
	if lines[0] == "" {
		return Tool{}, false
	}

	b := &compactBuilder{}
	if h := toolHeaderRe.FindStringSubmatch("tool: " + lines[0]); h != nil {
		b.name, b.args = h[1], h[2]
	} else {
		b.name = strings.TrimSpace(strings.SplitN(lines[0], "(", 2)[0])
	}

	for _, line := range lines[1:] {
		b.feed(line)
	}
	return b.build(), true
}

// compactBuilder accumulates one tool while the section lines stream by.
// The open section is committed by flush at each new key and by build.
type compactBuilder struct {
	name string
	args string

	description string
	params      []Param
	hasParams   bool
	returns     string
	sampleCode  string

	key   string
	lines []string
}

func (b *compactBuilder) feed(line string) {
	if !sectionKeyRe.MatchString(line) || strings.HasPrefix(line, "    ") {
		b.lines = append(b.lines, line)
		return
	}

	b.flush()
	stripped := strings.TrimSpace(line)
	b.key = strings.TrimSpace(strings.SplitN(stripped, ":", 2)[0])
	b.lines = nil
	if rest := strings.TrimSpace(stripped[len(b.key)+1:]); rest != "" && rest != "|" {
		b.lines = []string{rest}
	}
}

func (b *compactBuilder) flush() {
	switch b.key {
	case "description":
		trimmed := make([]string, len(b.lines))
		for i, l := range b.lines {
			trimmed[i] = strings.TrimSpace(l)
		}
		b.description = joinTrimmed(trimmed)
	case "params":
		b.params = parseCompactParams(b.lines, b.args)
		b.hasParams = true
	case "output", "returns":
		b.returns = sectionCode(b.lines)
	case "sample_code":
		b.sampleCode = sectionCode(b.lines)
	}
	b.key = ""
	b.lines = nil
}

func (b *compactBuilder) build() Tool {
	b.flush()

	params := b.params
	if !b.hasParams && b.args != "" {
		params = paramsFromSignature(b.args)
	}
	return Tool{
		Name:        b.name,
		Description: b.description,
		Params:      params,
		Returns:     b.returns,
		SampleCode:  b.sampleCode,
	}
}

func sectionCode(lines []string) string {
	text := strings.Join(lines, "\n")
	if strings.Contains(text, "```") {
		return extractCodeBlock(text)
	}
	return strings.TrimSpace(text)
}

// parseCompactParams reads `name: type` lines. Defaults come from the
// `name=literal` entries of the tool header.
func parseCompactParams(lines []string, args string) []Param {
	defaults := signatureDefaults(args)

	var params []Param
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		name, typ, ok := strings.Cut(stripped, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)

		p := Param{Name: name, Type: ParseParamType(strings.TrimSpace(typ)), Required: true}
		if def, ok := defaults[name]; ok {
			p = p.WithDefault(def)
		}
		params = append(params, p)
	}
	return params
}

func signatureDefaults(args string) map[string]string {
	defaults := make(map[string]string)
	for _, part := range strings.Split(args, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		defaults[strings.TrimSpace(name)] = unquote(value)
	}
	return defaults
}

// paramsFromSignature builds params from a header like `query, limit = 10`.
func paramsFromSignature(args string) []Param {
	var params []Param
	for _, part := range strings.Split(args, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		p := Param{Name: strings.TrimSpace(name), Type: TypeString, Required: true}
		if ok {
			p = p.WithDefault(unquote(value))
		}
		params = append(params, p)
	}
	return params
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `'"`)
}
