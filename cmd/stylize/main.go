package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/woozymasta/quakemap/internal/feature"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input    string `short:"i" long:"in"       description:"Earthquake feed file (GeoJSON). Reads from stdin if empty"`
	Output   string `short:"o" long:"out"      description:"Output file path. Writes to stdout if empty"`
	Format   string `short:"f" long:"format"   description:"Output format" choice:"json" choice:"yaml" choice:"geojson" default:"json"`
	TimeZone string `short:"z" long:"timezone" description:"Time zone for popup dates" default:"UTC"`
	Legend   bool   `short:"l" long:"legend"   description:"Print the legend instead of markers"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	loc, err := time.LoadLocation(opts.TimeZone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: unknown timezone %q: %v\n", opts.TimeZone, err)
		os.Exit(1)
	}

	var out any
	count := 0

	if opts.Legend {
		out = style.Legend()
	} else {
		// Read Input
		var in io.Reader = os.Stdin
		if opts.Input != "" {
			f, err := os.Open(opts.Input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
				os.Exit(1)
			}
			defer func() { _ = f.Close() }()
			in = f
		}

		fc, err := geo.DecodeCollection(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing feed: %v\n", err)
			os.Exit(1)
		}

		quakes, skipped := geo.Earthquakes(fc)
		if skipped > 0 {
			fmt.Fprintf(os.Stderr, "Skipped %d features without magnitude or point geometry\n", skipped)
		}

		layer := feature.Build(quakes, feature.Options{Location: loc})
		count = layer.Len()

		if opts.Format == "geojson" {
			out = layer.FeatureCollection()
		} else {
			out = layer
		}
	}

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(out)
	} else {
		outputData, err = json.MarshalIndent(out, "", "  ")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully styled %d markers to %s (format: %s)\n", count, opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}
