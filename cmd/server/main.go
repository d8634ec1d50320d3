package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/loader"
	"github.com/woozymasta/quakemap/internal/logger"
	"github.com/woozymasta/quakemap/internal/observability"
	"github.com/woozymasta/quakemap/internal/server"
	"github.com/woozymasta/quakemap/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string        `short:"c" long:"config"       env:"CONFIG_FILE"    description:"Path to configuration file"`
	Addr        string        `short:"a" long:"addr"         env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	AccessToken string        `short:"t" long:"access-token" env:"MAPBOX_TOKEN"   description:"Tile provider access token"`
	Refresh     time.Duration `short:"r" long:"refresh"      env:"REFRESH"        description:"Earthquake feed refresh interval (0 disables)"`
	Port        int           `short:"p" long:"port"         env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	ProxyTiles  bool          `short:"P" long:"proxy-tiles"  env:"PROXY_TILES"    description:"Serve base tiles through the server"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// flags win over the file
	if opts.AccessToken != "" {
		cfg.AccessToken = opts.AccessToken
	}
	if opts.Refresh > 0 {
		cfg.RefreshInterval = opts.Refresh
	}
	if opts.ProxyTiles {
		cfg.ProxyTiles = true
	}
	if cfg.AccessToken == "" {
		log.Warn().Msg("No tile provider access token set, base layers will not load")
	}

	metrics := observability.NewMetrics()
	client := feed.NewClient(cfg.Feeds.Earthquakes, cfg.Feeds.Plates, cfg.Feeds.Timeout, metrics)

	ld, err := loader.New(cfg, client, metrics, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create loader")
	}

	var tileSource server.TileSource
	if cfg.ProxyTiles {
		tileSource = tiles.NewProxy(cfg, &http.Client{Timeout: 15 * time.Second}, metrics, nil)
	}

	srvCtx, err := server.NewServerContext(cfg, ld, tileSource, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      srvCtx.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := ld.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Loader stopped")
		}
	}()

	go func() {
		log.Info().
			Str("addr", listenAddr).
			Str("default_base", cfg.DefaultBase).
			Bool("tile_proxy", cfg.ProxyTiles).
			Dur("refresh", cfg.RefreshInterval).
			Msg("Web server started")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if !ld.WaitPlates(5 * time.Second) {
		log.Warn().Msg("Plates fetch still in flight at shutdown")
	}

	log.Info().Msg("Shutdown complete")
}
