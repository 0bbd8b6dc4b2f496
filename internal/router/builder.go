package router

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jhaveripatric/webagents/internal/manifest"
	"github.com/jhaveripatric/webagents/internal/middleware"
)

// maxValidateBody bounds POST /api/validate bodies.
const maxValidateBody = 1 << 20

// Document is a loaded manifest with its lint results.
type Document struct {
	Manifest *manifest.Manifest
	Warnings []string
	Path     string
	LoadedAt time.Time
}

// NewDocument wraps m and records its lint warnings.
func NewDocument(m *manifest.Manifest, path string) *Document {
	return &Document{
		Manifest: m,
		Warnings: manifest.Validate(m),
		Path:     path,
		LoadedAt: time.Now(),
	}
}

// Source yields the current document, or nil before the first load.
type Source interface {
	Current() *Document
}

// Options configure the published routes.
type Options struct {
	ServePath string // manifest path, default /webagents.md
	PageTitle string
	Verifier  middleware.TokenVerifier // nil leaves the manifest public
}

// Builder creates the publisher routes.
type Builder struct {
	source Source
	opts   Options
	logger zerolog.Logger
}

// NewBuilder creates a route builder over source.
func NewBuilder(source Source, opts Options, logger zerolog.Logger) *Builder {
	if opts.ServePath == "" {
		opts.ServePath = manifest.DefaultPath
	}
	return &Builder{source: source, opts: opts, logger: logger}
}

// DeclarationsPath is the path the TypeScript declarations are served on.
func (b *Builder) DeclarationsPath() string {
	return strings.TrimSuffix(b.opts.ServePath, ".md") + ".d.ts"
}

// Build creates the manifest routes.
func (b *Builder) Build() chi.Router {
	r := chi.NewRouter()

	r.Get("/", b.handleIndex)
	r.Post("/api/validate", b.handleValidate)

	r.Group(func(r chi.Router) {
		if b.opts.Verifier != nil {
			r.Use(middleware.RequireAuth(b.opts.Verifier))
		}
		r.Get(b.opts.ServePath, b.handleMarkdown)
		r.Get(b.DeclarationsPath(), b.handleDeclarations)
		r.Get("/api/manifest", b.handleManifest)
		r.Get("/api/tools", b.handleTools)
		r.Get("/api/tools/{name}", b.handleTool)
	})

	b.logger.Debug().
		Str("manifest", b.opts.ServePath).
		Str("declarations", b.DeclarationsPath()).
		Bool("auth", b.opts.Verifier != nil).
		Msg("Routes built")

	return r
}

// current returns the loaded document or writes a 503.
func (b *Builder) current(w http.ResponseWriter, r *http.Request) (*Document, bool) {
	doc := b.source.Current()
	if doc == nil || doc.Manifest == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "manifest_unavailable", "No manifest loaded", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return doc, true
}

func (b *Builder) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	doc, ok := b.current(w, r)
	if !ok {
		return
	}

	text := doc.Manifest.Content
	if text == "" {
		text = manifest.ToMarkdown(doc.Manifest)
	} else if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	writeText(w, "text/markdown; charset=utf-8", doc, text)
}

func (b *Builder) handleDeclarations(w http.ResponseWriter, r *http.Request) {
	doc, ok := b.current(w, r)
	if !ok {
		return
	}
	writeText(w, "application/typescript; charset=utf-8", doc, manifest.GenerateTypeScript(doc.Manifest))
}

func (b *Builder) handleManifest(w http.ResponseWriter, r *http.Request) {
	doc, ok := b.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, manifestResponse{
		Manifest: doc.Manifest,
		Warnings: nonNil(doc.Warnings),
		LoadedAt: doc.LoadedAt,
	})
}

func (b *Builder) handleTools(w http.ResponseWriter, r *http.Request) {
	doc, ok := b.current(w, r)
	if !ok {
		return
	}
	tools := doc.Manifest.Tools
	if tools == nil {
		tools = []manifest.Tool{}
	}
	writeJSON(w, http.StatusOK, tools)
}

func (b *Builder) handleTool(w http.ResponseWriter, r *http.Request) {
	doc, ok := b.current(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	tool, found := doc.Manifest.Tool(name)
	if !found {
		middleware.WriteError(w, http.StatusNotFound, "tool_not_found", "Tool '"+name+"' not found", middleware.GetRequestID(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, toolResponse{
		Tool:        tool,
		Declaration: manifest.GenerateTypeScript(&manifest.Manifest{Tools: []manifest.Tool{*tool}}),
	})
}

func (b *Builder) handleValidate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValidateBody))
	if err != nil {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "invalid_request", "Body too large", middleware.GetRequestID(r.Context()))
		return
	}

	m := manifest.Parse(string(data))
	warnings := nonNil(manifest.Validate(m))
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:    len(warnings) == 0,
		Warnings: warnings,
		Manifest: m,
	})
}

type manifestResponse struct {
	Manifest *manifest.Manifest `json:"manifest"`
	Warnings []string           `json:"warnings"`
	LoadedAt time.Time          `json:"loaded_at"`
}

type toolResponse struct {
	*manifest.Tool
	Declaration string `json:"declaration"`
}

type validateResponse struct {
	Valid    bool               `json:"valid"`
	Warnings []string           `json:"warnings"`
	Manifest *manifest.Manifest `json:"manifest"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeText(w http.ResponseWriter, contentType string, doc *Document, body string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Last-Modified", doc.LoadedAt.UTC().Format(http.TimeFormat))
	io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
