package manifest

import (
	"fmt"
	"html"
)

// DefaultPath is where sites conventionally serve their manifest.
const DefaultPath = "/webagents.md"

// MetaTagName is the name attribute of the discovery meta tag.
const MetaTagName = "webagents-md"

// MetaTag returns the <meta> tag a site puts in its <head> so agents can
// find the manifest. An empty path means DefaultPath.
func MetaTag(path string) string {
	if path == "" {
		path = DefaultPath
	}
	return fmt.Sprintf(`<meta name="%s" content="%s">`, MetaTagName, html.EscapeString(path))
}

// ParamSpec is a shorthand for a required param.
type ParamSpec struct {
	Name        string
	Type        string
	Description string
}

// Build assembles a manifest in code.
func Build(name, description string, tools ...Tool) *Manifest {
	return &Manifest{
		Name:        name,
		Description: description,
		Version:     DefaultVersion,
		Tools:       tools,
	}
}

// BuildTool assembles a tool whose params are all required. Use Param
// directly for optional params.
func BuildTool(name, description, sampleCode string, params ...ParamSpec) Tool {
	t := Tool{Name: name, Description: description, SampleCode: sampleCode}
	for _, ps := range params {
		typ := TypeString
		if ps.Type != "" {
			typ = ParseParamType(ps.Type)
		}
		t.Params = append(t.Params, NewParam(ps.Name, typ, ps.Description))
	}
	return t
}
