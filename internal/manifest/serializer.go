package manifest

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// ToMarkdown renders a manifest in the heading dialect, whatever dialect it
// was parsed from.
func ToMarkdown(m *Manifest) string {
	var lines []string

	if m.Name != "" {
		lines = append(lines, "# "+m.Name)
	}
	if m.Description != "" {
		lines = append(lines, m.Description)
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}

	for _, t := range m.Tools {
		lines = append(lines, serializeTool(t)...)
		lines = append(lines, "")
	}

	return strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace) + "\n"
}

// WriteFile writes the heading-dialect rendering of m to path.
func WriteFile(m *Manifest, path string) error {
	if err := os.WriteFile(path, []byte(ToMarkdown(m)), 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

func serializeTool(t Tool) []string {
	lines := []string{"## " + t.Name}
	if t.Description != "" {
		lines = append(lines, t.Description)
	}
	lines = append(lines, "")

	if len(t.Params) > 0 {
		lines = append(lines, "### Params")
		for _, p := range t.Params {
			lines = append(lines, serializeParam(p))
		}
		lines = append(lines, "")
	}

	if t.Returns != "" {
		lines = append(lines, "### Output", "```typescript", t.Returns, "```", "")
	}

	if t.SampleCode != "" {
		lines = append(lines, "### Sample Code", "```javascript", t.SampleCode, "```")
	}
	return lines
}

func serializeParam(p Param) string {
	mods := []string{p.Type.String()}
	if p.Required {
		mods = append(mods, "required")
	} else {
		mods = append(mods, "optional")
	}
	if p.Default != nil {
		mods = append(mods, "default="+*p.Default)
	}

	line := fmt.Sprintf("- `%s` (%s)", p.Name, strings.Join(mods, ", "))
	if p.Description != "" {
		line += ": " + p.Description
	}
	return line
}
