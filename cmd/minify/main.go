package main

import (
	"fmt"
	"log"
	"os"

	"github.com/woozymasta/quakemap/internal/page"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Output string `short:"o" long:"out"   description:"Output HTML path" default:"index.html"`
	Title  string `short:"t" long:"title" description:"Page title"`
	MapAPI string `short:"m" long:"api"   description:"Map snapshot endpoint the page mounts from" default:"/api/map"`
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

	finalHTML, err := page.Render(page.Options{Title: opts.Title, MapAPI: opts.MapAPI})
	if err != nil {
		log.Fatal("error render page:", err)
	}

	err = os.WriteFile(opts.Output, finalHTML, 0644)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("minify done")
}
