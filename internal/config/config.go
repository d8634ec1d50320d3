// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/woozymasta/quakemap/internal/geo"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Normalize.
const (
	DefaultTileURL = "https://api.tiles.mapbox.com/v4/{id}/{z}/{x}/{y}.png?access_token={accessToken}"

	DefaultAttribution = `Map data &copy; <a href="https://www.openstreetmap.org/">OpenStreetMap</a> contributors, ` +
		`<a href="https://creativecommons.org/licenses/by-sa/2.0/">CC-BY-SA</a>, ` +
		`Imagery © <a href="https://www.mapbox.com/">Mapbox</a>`

	DefaultEarthquakesURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson"
	DefaultPlatesURL      = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"

	DefaultMaxZoom       = 18
	DefaultZoom          = 3
	DefaultBaseLayer     = "Satellite"
	DefaultFetchTimeout  = 30 * time.Second
	DefaultTileCacheSize = 2048

	// MaxZoomLimit keeps tile grid arithmetic within int range.
	MaxZoomLimit = 30
)

// DefaultCenter is roughly the centroid of the contiguous United States.
var DefaultCenter = geo.LatLon{Lat: 37.09, Lon: -95.71}

// DefaultBaseLayers lists the base tile sets in layer-control order.
func DefaultBaseLayers() []BaseLayer {
	return []BaseLayer{
		{Name: "Street Map", ID: "mapbox.streets"},
		{Name: "Outdoors", ID: "mapbox.outdoors"},
		{Name: "Dark Map", ID: "mapbox.dark"},
		{Name: "Satellite", ID: "mapbox.satellite"},
	}
}

// Config represents the root configuration file structure.
type Config struct {
	Center          *geo.LatLon   `yaml:"center,omitempty"`
	AccessToken     string        `yaml:"access_token,omitempty"`
	Attribution     string        `yaml:"attribution,omitempty"`
	TileURL         string        `yaml:"tile_url,omitempty"`
	DefaultBase     string        `yaml:"default_base,omitempty"`
	TimeZone        string        `yaml:"timezone,omitempty"`
	Feeds           Feeds         `yaml:"feeds,omitempty"`
	BaseLayers      []BaseLayer   `yaml:"base_layers,omitempty"`
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`
	MaxZoom         int           `yaml:"max_zoom,omitempty"`
	Zoom            int           `yaml:"zoom,omitempty"`
	TileCacheSize   int           `yaml:"tile_cache_size,omitempty"`
	ProxyTiles      bool          `yaml:"proxy_tiles,omitempty"`
}

// Feeds holds the upstream GeoJSON endpoints.
type Feeds struct {
	Earthquakes string        `yaml:"earthquakes,omitempty"`
	Plates      string        `yaml:"plates,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// BaseLayer is one named tile set of the tile provider.
type BaseLayer struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// Load reads and parses the YAML configuration file from the specified path.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Normalize fills unset fields with defaults.
func (c *Config) Normalize() {
	if c.TileURL == "" {
		c.TileURL = DefaultTileURL
	}
	if c.Attribution == "" {
		c.Attribution = DefaultAttribution
	}
	if c.MaxZoom <= 0 {
		c.MaxZoom = DefaultMaxZoom
	}
	if c.Zoom <= 0 {
		c.Zoom = DefaultZoom
	}
	if c.Center == nil {
		center := DefaultCenter
		c.Center = &center
	}
	if len(c.BaseLayers) == 0 {
		c.BaseLayers = DefaultBaseLayers()
	}
	if c.DefaultBase == "" {
		c.DefaultBase = DefaultBaseLayer
	}
	if c.Feeds.Earthquakes == "" {
		c.Feeds.Earthquakes = DefaultEarthquakesURL
	}
	if c.Feeds.Plates == "" {
		c.Feeds.Plates = DefaultPlatesURL
	}
	if c.Feeds.Timeout <= 0 {
		c.Feeds.Timeout = DefaultFetchTimeout
	}
	if c.TileCacheSize <= 0 {
		c.TileCacheSize = DefaultTileCacheSize
	}
}

// Validate checks a normalized configuration.
func (c *Config) Validate() error {
	if c.MaxZoom > MaxZoomLimit {
		return fmt.Errorf("max_zoom %d exceeds %d", c.MaxZoom, MaxZoomLimit)
	}
	if c.Zoom > c.MaxZoom {
		return fmt.Errorf("zoom %d exceeds max_zoom %d", c.Zoom, c.MaxZoom)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.BaseLayers))
	for _, l := range c.BaseLayers {
		if l.Name == "" || l.ID == "" {
			return errors.New("base layer requires name and id")
		}
		if seen[l.Name] {
			return fmt.Errorf("duplicate base layer %q", l.Name)
		}
		seen[l.Name] = true
	}
	if !seen[c.DefaultBase] {
		return fmt.Errorf("default_base %q is not a configured base layer", c.DefaultBase)
	}

	return nil
}

// Location resolves TimeZone; empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.TimeZone, err)
	}

	return loc, nil
}

// BaseLayerByID looks a base layer up by its tile set id.
func (c *Config) BaseLayerByID(id string) (BaseLayer, bool) {
	for _, l := range c.BaseLayers {
		if l.ID == id {
			return l, true
		}
	}

	return BaseLayer{}, false
}
