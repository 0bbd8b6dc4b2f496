// Package discovery locates and fetches webagents.md manifests referenced
// from web pages.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/jhaveripatric/webagents/internal/manifest"
)

// Discoverer finds manifests through a Fetcher. Every call fetches afresh;
// nothing is cached or retried.
type Discoverer struct {
	fetcher Fetcher
}

// New creates a discoverer. A nil fetcher means NewHTTPFetcher().
func New(fetcher Fetcher) *Discoverer {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	return &Discoverer{fetcher: fetcher}
}

// ManifestURL fetches pageURL and returns the absolute manifest URL from
// its meta tag, or ErrNotFound.
func (d *Discoverer) ManifestURL(ctx context.Context, pageURL string) (string, error) {
	body, err := d.get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	ref, ok := FindMetaContent(body)
	if !ok {
		return "", ErrNotFound
	}
	return resolve(pageURL, ref)
}

// FetchManifest fetches and parses the manifest at manifestURL.
func (d *Discoverer) FetchManifest(ctx context.Context, manifestURL string) (*manifest.Manifest, error) {
	body, err := d.get(ctx, manifestURL)
	if err != nil {
		return nil, err
	}
	return manifest.Parse(body), nil
}

// Discover combines ManifestURL and FetchManifest.
func (d *Discoverer) Discover(ctx context.Context, pageURL string) (*manifest.Manifest, error) {
	manifestURL, err := d.ManifestURL(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return d.FetchManifest(ctx, manifestURL)
}

func (d *Discoverer) get(ctx context.Context, target string) (string, error) {
	resp, err := d.fetcher.Get(ctx, target)
	if err != nil {
		return "", &FetchError{URL: target, Err: err}
	}
	if !resp.OK() {
		return "", &FetchError{URL: target, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// FindMetaContent returns the content of the first
// <meta name="webagents-md" content="..."> tag, in either attribute order.
func FindMetaContent(document string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(document))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}

			var name, content string
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "content":
					content = strings.TrimSpace(attr.Val)
				}
			}
			if strings.EqualFold(name, manifest.MetaTagName) && content != "" {
				return content, true
			}
		}
	}
}

func resolve(pageURL, ref string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse manifest reference %q: %w", ref, err)
	}
	return base.ResolveReference(rel).String(), nil
}
