package manifest

// DefaultVersion is the manifest format version assumed when none is given.
const DefaultVersion = "0.1"

// Manifest represents a site's agent-callable tools.
type Manifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Tools       []Tool `json:"tools"`

	// Content is the raw text the manifest was parsed from. Empty for
	// manifests built in code.
	Content string `json:"content,omitempty"`
}

// Tool represents a single callable operation.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
	Returns     string  `json:"returns,omitempty"`
	SampleCode  string  `json:"sample_code,omitempty"`
}

// Param represents one declared input of a tool.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Default     *string   `json:"default,omitempty"`
}

// NewParam creates a required param with no default.
func NewParam(name string, typ ParamType, description string) Param {
	return Param{Name: name, Type: typ, Description: description, Required: true}
}

// Optional reports whether callers may omit the param. A param with a
// default is optional whatever its Required flag says.
func (p Param) Optional() bool {
	return !p.Required || p.Default != nil
}

// WithDefault returns a copy of p carrying the given default, marked optional.
func (p Param) WithDefault(value string) Param {
	p.Default = &value
	p.Required = false
	return p
}

// Tool returns the first tool with the given name.
func (m *Manifest) Tool(name string) (*Tool, bool) {
	for i := range m.Tools {
		if m.Tools[i].Name == name {
			return &m.Tools[i], true
		}
	}
	return nil, false
}

// ToolNames lists tool names in declaration order.
func (m *Manifest) ToolNames() []string {
	names := make([]string, 0, len(m.Tools))
	for _, t := range m.Tools {
		names = append(names, t.Name)
	}
	return names
}
