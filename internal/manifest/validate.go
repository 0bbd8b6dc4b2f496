package manifest

import "fmt"

// Validate lints a manifest and returns human-readable warnings in
// declaration order. An empty result means the manifest is valid.
// Every repeat of a tool name after its first occurrence is reported.
func Validate(m *Manifest) []string {
	var warnings []string

	if m.Name == "" {
		warnings = append(warnings, "Manifest has no name.")
	}
	if len(m.Tools) == 0 {
		warnings = append(warnings, "Manifest has no tools.")
	}

	seen := make(map[string]bool)
	for _, t := range m.Tools {
		switch {
		case t.Name == "":
			warnings = append(warnings, "A tool has no name.")
		case seen[t.Name]:
			warnings = append(warnings, fmt.Sprintf("Duplicate tool name: '%s'.", t.Name))
		default:
			seen[t.Name] = true
		}

		if t.Description == "" {
			warnings = append(warnings, fmt.Sprintf("Tool '%s' has no description.", t.Name))
		}
		if len(t.Params) == 0 && t.SampleCode == "" {
			warnings = append(warnings, fmt.Sprintf("Tool '%s' has no params and no sample_code.", t.Name))
		}
	}

	return warnings
}

// ValidateMarkdown parses text and validates the result.
func ValidateMarkdown(text string) []string {
	return Validate(Parse(text))
}
