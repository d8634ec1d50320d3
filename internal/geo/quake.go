package geo

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Earthquake is one event from the earthquake feed.
type Earthquake struct {
	Time      time.Time `json:"time" yaml:"time"`
	ID        string    `json:"id" yaml:"id"`
	Place     string    `json:"place" yaml:"place"`
	URL       string    `json:"url,omitempty" yaml:"url,omitempty"`
	Position  LatLon    `json:"position" yaml:"position"`
	Magnitude float64   `json:"magnitude" yaml:"magnitude"`
}

// Earthquakes converts feed features into typed records. Features without a
// numeric magnitude or a point geometry are skipped; the number skipped is
// returned alongside.
func Earthquakes(fc *geojson.FeatureCollection) ([]Earthquake, int) {
	if fc == nil {
		return []Earthquake{}, 0
	}

	quakes := make([]Earthquake, 0, len(fc.Features))
	skipped := 0

	for _, f := range fc.Features {
		q, ok := earthquakeFromFeature(f)
		if !ok {
			skipped++
			ev := log.Debug()
			if f != nil {
				ev = ev.Interface("id", f.ID)
			}
			ev.Msg("Earthquake feature skipped: no magnitude or point geometry")
			continue
		}
		quakes = append(quakes, q)
	}

	return quakes, skipped
}

func earthquakeFromFeature(f *geojson.Feature) (Earthquake, bool) {
	if f == nil {
		return Earthquake{}, false
	}

	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return Earthquake{}, false
	}

	mag, ok := f.Properties["mag"].(float64)
	if !ok {
		return Earthquake{}, false
	}

	q := Earthquake{
		Magnitude: mag,
		Place:     f.Properties.MustString("place", ""),
		URL:       f.Properties.MustString("url", ""),
		Position:  LatLon{Lat: pt.Lat(), Lon: pt.Lon()},
	}

	if id, ok := f.ID.(string); ok {
		q.ID = id
	}

	// epoch milliseconds
	if ms, ok := f.Properties["time"].(float64); ok {
		q.Time = time.UnixMilli(int64(ms)).UTC()
	}

	return q, true
}
