// Package geo holds the typed records parsed from the GeoJSON feeds.
package geo

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"
)

// LatLon is a geographic position in degrees.
type LatLon struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// DecodeCollection reads a GeoJSON FeatureCollection from r.
func DecodeCollection(r io.Reader) (*geojson.FeatureCollection, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	return &fc, nil
}

// EmptyCollection returns a FeatureCollection that marshals with an empty
// features array rather than null.
func EmptyCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = []*geojson.Feature{}
	return fc
}
