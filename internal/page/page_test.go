package page

import (
	"strings"
	"testing"

	"github.com/woozymasta/quakemap/assets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render(Options{})
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "<title>"+DefaultTitle+"</title>")
	assert.Contains(t, body, "data-api=")
	assert.Contains(t, body, "/api/map")
	assert.Contains(t, body, "leaflet.js")
	assert.Contains(t, body, "L.circleMarker")
	assert.Contains(t, body, ".legend")
	// snapshot polling for late and refreshed overlays
	assert.Contains(t, body, "If-None-Match")
	assert.Contains(t, body, "clearLayers")
	assert.Less(t, len(out), len(assets.IndexTemplate)+len(assets.CSS)+len(assets.JS))
}

func TestRender_EscapesOptions(t *testing.T) {
	out, err := Render(Options{Title: "Quakes <live>", MapAPI: "/x/map"})
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "Quakes &lt;live")
	assert.Contains(t, body, "/x/map")
	assert.NotContains(t, body, "<live>")
}

func TestFavicon(t *testing.T) {
	out, err := Favicon()
	require.NoError(t, err)

	svg := string(out)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Less(t, len(svg), len(assets.Favicon))
}
