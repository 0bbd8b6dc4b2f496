package router

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jhaveripatric/webagents/internal/manifest"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{.MetaTag}}
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{with .Description}}<p>{{.}}</p>{{end}}
<p>Agents: this site publishes <a href="{{.ServePath}}">{{.ServePath}}</a> (<a href="{{.DeclarationsPath}}">declarations</a>).</p>
{{if .Tools}}<ul>
{{range .Tools}}<li><code>{{.Name}}</code>{{with .Description}}: {{.}}{{end}}</li>
{{end}}</ul>{{end}}
</body>
</html>
`))

type indexData struct {
	MetaTag          template.HTML
	Title            string
	Description      string
	ServePath        string
	DeclarationsPath string
	Tools            []manifest.Tool
}

// handleIndex serves a page carrying the discovery meta tag. It works
// before a manifest is loaded so discovery never depends on auth.
func (b *Builder) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		MetaTag:          template.HTML(manifest.MetaTag(b.opts.ServePath)),
		Title:            b.opts.PageTitle,
		ServePath:        b.opts.ServePath,
		DeclarationsPath: b.DeclarationsPath(),
	}

	// Tools are listed only when the manifest itself is public.
	if doc := b.source.Current(); doc != nil && doc.Manifest != nil {
		if data.Title == "" {
			data.Title = doc.Manifest.Name
		}
		data.Description = doc.Manifest.Description
		if b.opts.Verifier == nil {
			data.Tools = doc.Manifest.Tools
		}
	}
	if data.Title == "" {
		data.Title = "webagents"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to render index")
	}
}
