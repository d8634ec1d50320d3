package style

import (
	"fmt"
	"strings"
)

const (
	// MinMagnitude and MaxMagnitude bound the domain of both encodings.
	MinMagnitude = 0.0
	MaxMagnitude = 6.0

	MinRadius = 1.0
	MaxRadius = 15.0

	// LegendTitle is the heading of the legend control.
	LegendTitle = "Earthquake<br>Intensity"
)

// Colors is the severity ramp, lightest first.
var Colors = []string{
	"rgb(255,255,178)",
	"rgb(254,217,118)",
	"rgb(254,178,76)",
	"rgb(253,141,60)",
	"rgb(240,59,32)",
	"rgb(189,0,38)",
}

var (
	colorScale  = NewQuantize(MinMagnitude, MaxMagnitude, Colors)
	radiusScale = NewLinear(MinMagnitude, MaxMagnitude, MinRadius, MaxRadius)
)

// ColorFor returns the fill color for a magnitude.
func ColorFor(magnitude float64) string {
	return colorScale.At(magnitude)
}

// RadiusFor returns the marker radius in pixels for a magnitude.
func RadiusFor(magnitude float64) float64 {
	return radiusScale.At(magnitude)
}

// LegendEntry is one row of the legend.
type LegendEntry struct {
	Color string `json:"color" yaml:"color"`
	Label string `json:"label" yaml:"label"`
}

// Legend returns one entry per color bucket. Every label but the last is a
// range to the next grade; the last is open-ended.
func Legend() []LegendEntry {
	entries := make([]LegendEntry, 0, len(Colors))
	step := (MaxMagnitude - MinMagnitude) / float64(len(Colors))

	for i, c := range Colors {
		grade := MinMagnitude + float64(i)*step
		label := fmt.Sprintf("%g+", grade)
		if i < len(Colors)-1 {
			label = fmt.Sprintf("%g&ndash;%g", grade, grade+step)
		}
		entries = append(entries, LegendEntry{Color: c, Label: label})
	}

	return entries
}

// LegendHTML renders the legend control body.
func LegendHTML() string {
	var b strings.Builder
	b.WriteString("<h4>" + LegendTitle + "</h4>")

	entries := Legend()
	for i, e := range entries {
		b.WriteString("<i style='background: " + e.Color + "'></i> " + e.Label)
		if i < len(entries)-1 {
			b.WriteString("<br>")
		}
	}

	return b.String()
}
