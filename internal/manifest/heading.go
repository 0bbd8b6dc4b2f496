package manifest

import (
	"regexp"
	"strings"
)

// - `name` (type, required|optional, default=val): description
var paramHeadRe = regexp.MustCompile("^-\\s+`(\\w+)`\\s*\\(")

type headingState int

const (
	statePreamble headingState = iota
	stateToolHeader
	stateSection
)

// headingTool collects the raw lines of one `## ` segment.
type headingTool struct {
	header   []string
	sections map[string][]string
	key      string
}

func newHeadingTool(title string) *headingTool {
	return &headingTool{
		header:   []string{title},
		sections: make(map[string][]string),
	}
}

func (h *headingTool) openSection(title string) {
	h.key = strings.ToLower(strings.TrimSpace(title))
	h.sections[h.key] = nil
}

func (h *headingTool) build() Tool {
	lines := splitLines(joinTrimmed(h.header))
	t := Tool{
		Name:        strings.TrimSpace(lines[0]),
		Description: joinTrimmed(lines[1:]),
	}

	if body, ok := h.sections["params"]; ok {
		t.Params = parseParamLines(body)
	}
	if body, ok := h.sections["sample code"]; ok {
		t.SampleCode = extractCodeBlock(strings.Join(body, "\n"))
	}
	for _, key := range []string{"output", "returns"} {
		if body, ok := h.sections[key]; ok {
			t.Returns = extractCodeBlock(strings.Join(body, "\n"))
			break
		}
	}
	return t
}

func parseHeading(lines []string) *Manifest {
	var (
		preamble []string
		tools    []Tool
		cur      *headingTool
		state    = statePreamble
	)

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "## "):
			if cur != nil {
				tools = append(tools, cur.build())
			}
			cur = newHeadingTool(strings.TrimPrefix(line, "## "))
			state = stateToolHeader
		case state != statePreamble && strings.HasPrefix(line, "### "):
			cur.openSection(strings.TrimPrefix(line, "### "))
			state = stateSection
		case state == statePreamble:
			preamble = append(preamble, line)
		case state == stateToolHeader:
			cur.header = append(cur.header, line)
		default:
			cur.sections[cur.key] = append(cur.sections[cur.key], line)
		}
	}
	if cur != nil {
		tools = append(tools, cur.build())
	}

	name, description := parsePreamble(preamble)
	return &Manifest{Name: name, Description: description, Tools: tools}
}

// parsePreamble takes the last `# ` line as the name and every line after
// the first name as description.
func parsePreamble(lines []string) (string, string) {
	var (
		name string
		desc []string
	)
	for _, line := range splitLines(joinTrimmed(lines)) {
		switch {
		case strings.HasPrefix(line, "# "):
			name = strings.TrimSpace(strings.TrimPrefix(line, "# "))
		case name != "":
			desc = append(desc, line)
		}
	}
	return name, joinTrimmed(desc)
}

func parseParamLines(lines []string) []Param {
	var params []Param
	for _, line := range lines {
		if p, ok := parseParamLine(strings.TrimSpace(line)); ok {
			params = append(params, p)
		}
	}
	return params
}

// parseParamLine reads one param bullet. The modifier list ends at the
// parenthesis that balances the opening one, so type hints may nest parens.
func parseParamLine(line string) (Param, bool) {
	loc := paramHeadRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return Param{}, false
	}
	name := line[loc[2]:loc[3]]
	rest := line[loc[1]:]

	end, depth := -1, 1
	for i, r := range rest {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			end = i
			break
		}
	}
	if end <= 0 {
		return Param{}, false
	}
	modifiers, tail := rest[:end], strings.TrimSpace(rest[end+1:])

	var desc string
	if tail != "" {
		after, ok := strings.CutPrefix(tail, ":")
		if !ok {
			return Param{}, false
		}
		desc = strings.TrimSpace(after)
	}

	p := Param{Name: name, Type: TypeString, Description: desc, Required: true}
	for _, mod := range strings.Split(modifiers, ",") {
		mod = strings.TrimSpace(mod)
		switch {
		case mod == "optional":
			p.Required = false
		case mod == "required":
			p.Required = true
		case strings.HasPrefix(mod, "default="):
			p = p.WithDefault(strings.TrimSpace(strings.TrimPrefix(mod, "default=")))
		default:
			p.Type = ParseParamType(mod)
		}
	}
	return p, true
}
