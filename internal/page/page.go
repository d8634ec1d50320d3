// Package page renders the single map page from the embedded assets.
package page

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/woozymasta/quakemap/assets"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

// DefaultTitle is the page title.
const DefaultTitle = "Earthquakes and Fault Lines"

// Options are the values injected into the page template.
type Options struct {
	Title  string
	MapAPI string // snapshot endpoint the script mounts from
}

type pageData struct {
	Title  string
	MapAPI string
	CSS    string
	JS     string
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// Render executes the page template with minified CSS and JS and minifies
// the resulting HTML.
func Render(opts Options) ([]byte, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.MapAPI == "" {
		opts.MapAPI = "/api/map"
	}

	m := newMinifier()

	cssMin, err := m.String("text/css", assets.CSS)
	if err != nil {
		return nil, fmt.Errorf("minify css: %w", err)
	}
	jsMin, err := m.String("text/javascript", assets.JS)
	if err != nil {
		return nil, fmt.Errorf("minify js: %w", err)
	}

	tmpl, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, pageData{
		Title:  template.HTMLEscapeString(opts.Title),
		MapAPI: template.HTMLEscapeString(opts.MapAPI),
		CSS:    cssMin,
		JS:     jsMin,
	})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	out, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify html: %w", err)
	}

	return out, nil
}

// Favicon returns the minified SVG favicon.
func Favicon() ([]byte, error) {
	out, err := newMinifier().String("image/svg+xml", assets.Favicon)
	if err != nil {
		return nil, fmt.Errorf("minify svg: %w", err)
	}

	return []byte(out), nil
}
