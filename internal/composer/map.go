// Package composer assembles the layer registries, view defaults, controls
// and legend of the earthquake map.
package composer

import (
	"sync"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/feature"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/paulmach/orb/geojson"
)

// Overlay names.
const (
	OverlayEarthquakes = "Earthquakes"
	OverlayFaultLines  = "Fault Lines"
)

// Data endpoints the page loads overlays from.
const (
	EarthquakesSource = "/api/earthquakes"
	FaultLinesSource  = "/api/plates"
	ProxyTileURL      = "/tiles/{id}/{z}/{x}/{y}"
)

// FaultLineStyle is the fixed style of the plate boundary overlay.
var FaultLineStyle = LineStyle{Color: "orange", Weight: 2}

// TileLayer describes one base tile layer for the page.
type TileLayer struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	AccessToken string `json:"accessToken,omitempty"`
	MaxZoom     int    `json:"maxZoom"`
}

// LineStyle is the path style of a line overlay.
type LineStyle struct {
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
}

// Overlay describes one toggleable overlay.
type Overlay struct {
	Style  *LineStyle `json:"style,omitempty"`
	Name   string     `json:"name"`
	Kind   string     `json:"kind"` // markers or lines
	Source string     `json:"source"`
	Count  int        `json:"count"`
	// Revision of the map at the last change of this overlay.
	Revision uint64 `json:"revision"`
	Ready    bool   `json:"ready"`
}

// View is the initial map view.
type View struct {
	Center    geo.LatLon `json:"center"`
	BaseLayer string     `json:"baseLayer"`
	Overlays  []string   `json:"overlays"`
	Zoom      int        `json:"zoom"`
}

// LayerControl configures the layer selection widget.
type LayerControl struct {
	Collapsed bool `json:"collapsed"`
}

// Legend configures the legend widget.
type Legend struct {
	Position string              `json:"position"`
	Title    string              `json:"title"`
	HTML     string              `json:"html"`
	Entries  []style.LegendEntry `json:"entries"`
}

// Snapshot is the immutable description of the map handed to the page.
type Snapshot struct {
	Legend       Legend       `json:"legend"`
	View         View         `json:"view"`
	BaseLayers   []TileLayer  `json:"baseLayers"`
	Overlays     []Overlay    `json:"overlays"`
	LayerControl LayerControl `json:"layerControl"`
	Revision     uint64       `json:"revision"`
}

// faultLines is the placeholder layer filled once the plates feed lands.
type faultLines struct {
	boundaries []geo.PlateBoundary
	style      LineStyle
	attached   bool
}

// Map is the composed map. Overlay contents may change after composition;
// all methods are safe for concurrent use.
type Map struct {
	bases    *Registry[TileLayer]
	overlays *Registry[string] // name -> kind
	view     View
	control  LayerControl
	legend   Legend

	mu          sync.RWMutex
	earthquakes feature.Layer
	faults      faultLines
	revision    uint64
	quakesRev   uint64
	faultsRev   uint64
}

// Compose performs the one-time map setup around an earthquake layer.
// The fault-line layer starts empty; see AttachFaultLines.
func Compose(cfg *config.Config, earthquakes feature.Layer) *Map {
	bases := NewRegistry[TileLayer]()
	for _, l := range cfg.BaseLayers {
		bases.Add(l.Name, tileLayer(cfg, l))
	}

	overlays := NewRegistry[string]()
	overlays.Add(OverlayEarthquakes, "markers")
	overlays.Add(OverlayFaultLines, "lines")

	// exactly one base layer is active
	active := cfg.DefaultBase
	if !bases.Has(active) && bases.Len() > 0 {
		active = bases.Names()[0]
	}

	center := config.DefaultCenter
	if cfg.Center != nil {
		center = *cfg.Center
	}

	return &Map{
		bases:    bases,
		overlays: overlays,
		view: View{
			Center:    center,
			Zoom:      cfg.Zoom,
			BaseLayer: active,
			Overlays:  overlays.Names(),
		},
		control: LayerControl{Collapsed: false},
		legend: Legend{
			Position: "bottomright",
			Title:    style.LegendTitle,
			Entries:  style.Legend(),
			HTML:     style.LegendHTML(),
		},
		earthquakes: earthquakes,
		revision:    1,
		quakesRev:   1,
		faultsRev:   1,
	}
}

func tileLayer(cfg *config.Config, l config.BaseLayer) TileLayer {
	t := TileLayer{
		Name:        l.Name,
		ID:          l.ID,
		Attribution: cfg.Attribution,
		MaxZoom:     cfg.MaxZoom,
	}

	// the proxy keeps the credential on the server
	if cfg.ProxyTiles {
		t.URL = ProxyTileURL
	} else {
		t.URL = cfg.TileURL
		t.AccessToken = cfg.AccessToken
	}

	return t
}

// AttachFaultLines fills the fault-line placeholder. The overlay shows up on
// the page without further action when it is active.
func (m *Map) AttachFaultLines(boundaries []geo.PlateBoundary, s LineStyle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.faults = faultLines{
		boundaries: append([]geo.PlateBoundary(nil), boundaries...),
		style:      s,
		attached:   true,
	}
	m.revision++
	m.faultsRev = m.revision
}

// ReplaceEarthquakes swaps the earthquake layer for a fresh one.
func (m *Map) ReplaceEarthquakes(layer feature.Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.earthquakes = layer
	m.revision++
	m.quakesRev = m.revision
}

// FaultLinesAttached reports whether the plates feed has landed.
func (m *Map) FaultLinesAttached() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.faults.attached
}

// Revision increases on every overlay change.
func (m *Map) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.revision
}

// BaseLayers returns the base layer registry names in control order.
func (m *Map) BaseLayers() []string {
	return m.bases.Names()
}

// Overlays returns the overlay registry names in control order.
func (m *Map) Overlays() []string {
	return m.overlays.Names()
}

// Snapshot copies the current state for the page.
func (m *Map) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Revision:     m.revision,
		View:         m.view,
		LayerControl: m.control,
		Legend:       m.legend,
		BaseLayers:   make([]TileLayer, 0, m.bases.Len()),
		Overlays:     make([]Overlay, 0, m.overlays.Len()),
	}
	s.View.Overlays = append([]string(nil), m.view.Overlays...)

	m.bases.Each(func(_ string, l TileLayer) {
		s.BaseLayers = append(s.BaseLayers, l)
	})

	m.overlays.Each(func(name, kind string) {
		o := Overlay{Name: name, Kind: kind}
		switch name {
		case OverlayEarthquakes:
			o.Source = EarthquakesSource
			o.Count = m.earthquakes.Len()
			o.Revision = m.quakesRev
			o.Ready = true
		case OverlayFaultLines:
			o.Source = FaultLinesSource
			o.Count = len(m.faults.boundaries)
			o.Revision = m.faultsRev
			o.Ready = m.faults.attached
			if m.faults.attached {
				ls := m.faults.style
				o.Style = &ls
			}
		}
		s.Overlays = append(s.Overlays, o)
	})

	return s
}

// EarthquakesGeoJSON renders the earthquake overlay.
func (m *Map) EarthquakesGeoJSON() *geojson.FeatureCollection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.earthquakes.FeatureCollection()
}

// FaultLinesGeoJSON renders the fault-line overlay; empty until attached.
func (m *Map) FaultLinesGeoJSON() *geojson.FeatureCollection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return geo.PlatesCollection(m.faults.boundaries)
}
