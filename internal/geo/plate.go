package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PlateBoundary is one line segment of a tectonic plate boundary.
type PlateBoundary struct {
	Name string         `json:"name,omitempty"`
	Line orb.LineString `json:"line"`
}

// PlateBoundaries extracts line geometries from the plates feed.
// MultiLineString features expand into one boundary per line; other
// geometry types are ignored.
func PlateBoundaries(fc *geojson.FeatureCollection) []PlateBoundary {
	if fc == nil {
		return []PlateBoundary{}
	}

	out := make([]PlateBoundary, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		name := f.Properties.MustString("Name", "")

		switch g := f.Geometry.(type) {
		case orb.LineString:
			out = append(out, PlateBoundary{Name: name, Line: g})
		case orb.MultiLineString:
			for _, ls := range g {
				out = append(out, PlateBoundary{Name: name, Line: ls})
			}
		}
	}

	return out
}

// PlatesCollection renders boundaries back to GeoJSON line features.
func PlatesCollection(boundaries []PlateBoundary) *geojson.FeatureCollection {
	fc := EmptyCollection()
	for _, b := range boundaries {
		f := geojson.NewFeature(b.Line)
		if b.Name != "" {
			f.Properties["Name"] = b.Name
		}
		fc.Append(f)
	}

	return fc
}
