package manifest

import (
	"fmt"
	"strings"
)

// GenerateTypeScript renders the manifest's tools as a
// `declare const global: { ... }` block with JSDoc comments. The LLM writes
// code against these signatures; the browser provides the implementations.
//
// Member naming, the `?` optional marker and the type table are a contract
// with existing prompts and must stay stable.
func GenerateTypeScript(m *Manifest) string {
	if len(m.Tools) == 0 {
		return "declare const global: {};\n"
	}

	decls := make([]string, 0, len(m.Tools))
	for _, t := range m.Tools {
		decls = append(decls, toolDeclaration(t))
	}
	return fmt.Sprintf("declare const global: {\n%s\n};\n", strings.Join(decls, "\n\n"))
}

func toolDeclaration(t Tool) string {
	lines := []string{"  /**"}
	if t.Description != "" {
		for _, l := range splitLines(t.Description) {
			lines = append(lines, "   * "+l)
		}
	}
	if len(t.Params) > 0 {
		if t.Description != "" {
			lines = append(lines, "   *")
		}
		for _, p := range t.Params {
			line := "   * @param " + p.Name + " -"
			if p.Description != "" {
				line += " " + p.Description
			}
			if p.Default != nil {
				line += " (default: " + *p.Default + ")"
			}
			lines = append(lines, line)
		}
	}
	lines = append(lines, "   */")

	args := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		args = append(args, paramSignature(p))
	}
	returns := t.Returns
	if returns == "" {
		returns = "any"
	}
	lines = append(lines, fmt.Sprintf("  %s(%s): Promise<%s>;", t.Name, strings.Join(args, ", "), returns))

	return strings.Join(lines, "\n")
}

func paramSignature(p Param) string {
	name := p.Name
	if p.Optional() {
		name += "?"
	}
	return name + ": " + tsType(p.Type)
}

func tsType(t ParamType) string {
	switch t.Kind() {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindObject:
		return "Record<string, unknown>"
	case KindArray:
		return "unknown[]"
	default:
		return t.String()
	}
}
