// Package assets embeds the static files of the map page.
package assets

import _ "embed"

var (
	//go:embed index.html.tpl
	IndexTemplate string

	//go:embed style.css
	CSS string

	//go:embed script.js
	JS string

	//go:embed favicon.svg
	Favicon string
)
