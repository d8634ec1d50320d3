// Package feature turns earthquake records into styled circle markers.
package feature

import (
	"strconv"
	"time"

	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DateLayout mirrors the default string form of a browser Date.
const DateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// MarkerStyle is the circle marker path style understood by the page.
type MarkerStyle struct {
	FillColor   string  `json:"fillColor" yaml:"fill_color"`
	Color       string  `json:"color" yaml:"color"`
	Opacity     float64 `json:"opacity" yaml:"opacity"`
	FillOpacity float64 `json:"fillOpacity" yaml:"fill_opacity"`
	Radius      float64 `json:"radius" yaml:"radius"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Stroke      bool    `json:"stroke" yaml:"stroke"`
}

// Marker is one earthquake epicenter ready to be drawn.
type Marker struct {
	ID       string      `json:"id,omitempty" yaml:"id,omitempty"`
	Popup    string      `json:"popup" yaml:"popup"`
	Position geo.LatLon  `json:"position" yaml:"position"`
	Style    MarkerStyle `json:"style" yaml:"style"`
}

// Layer is an ordered set of markers.
type Layer struct {
	Markers []Marker `json:"markers" yaml:"markers"`
}

// Options controls popup rendering.
type Options struct {
	// Location for popup dates; UTC when nil.
	Location *time.Location
}

// Build produces exactly one marker per earthquake, in input order.
func Build(quakes []geo.Earthquake, opts Options) Layer {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	markers := make([]Marker, 0, len(quakes))
	for _, q := range quakes {
		markers = append(markers, Marker{
			ID:       q.ID,
			Position: q.Position,
			Style:    StyleFor(q.Magnitude),
			Popup:    Popup(q, loc),
		})
	}

	return Layer{Markers: markers}
}

// StyleFor returns the marker style for a magnitude.
func StyleFor(magnitude float64) MarkerStyle {
	return MarkerStyle{
		Opacity:     0.5,
		FillOpacity: 0.8,
		FillColor:   style.ColorFor(magnitude),
		Color:       "#000000",
		Radius:      style.RadiusFor(magnitude),
		Stroke:      true,
		Weight:      0.5,
	}
}

// Popup renders the popup text. The place is inserted verbatim.
func Popup(q geo.Earthquake, loc *time.Location) string {
	return "Magnitude: " + strconv.FormatFloat(q.Magnitude, 'f', -1, 64) +
		"<br>Location: " + q.Place +
		"</br> Date: " + q.Time.In(loc).Format(DateLayout)
}

// FeatureCollection renders the layer as GeoJSON points carrying their
// style and popup as properties.
func (l Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := geo.EmptyCollection()
	for _, m := range l.Markers {
		f := geojson.NewFeature(orb.Point{m.Position.Lon, m.Position.Lat})
		if m.ID != "" {
			f.ID = m.ID
		}
		f.Properties["popup"] = m.Popup
		f.Properties["style"] = m.Style
		fc.Append(f)
	}

	return fc
}

// Len returns the number of markers.
func (l Layer) Len() int {
	return len(l.Markers)
}
