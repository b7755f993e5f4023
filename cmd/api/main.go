package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/api"
	"github.com/urmzd/remo/pkg/app"
	"github.com/urmzd/remo/pkg/config"

	_ "github.com/urmzd/remo/docs"
)

// @title           Remo API
// @version         1.0
// @description     REST API for Nature Remo air conditioners, lights, IR signals and sensors

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

func main() {
	config.SetupLogging(config.Default().Level())

	configPath := flag.String("config", "", "Path to config file (default: ~/.config/remo/config.toml)")
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/remo/remo.db)")
	token := flag.String("token", "", "Nature Remo access token; stored for later runs")
	addr := flag.String("addr", "", "Listen address; stored for later runs (default: 0.0.0.0:8080)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := app.Start(ctx, app.Options{ConfigPath: *configPath, DBPath: *dbPath, Token: *token, Addr: *addr})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}

	m := rt.Metrics
	if !rt.Config.API.Metrics {
		m = nil
	}
	router := api.NewRouter(rt.Controller, rt.Subscriber, m)

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		cancel()
		if err := rt.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
		os.Exit(0)
	}()

	listen := rt.APIAddress(*addr)
	log.Info().Str("address", listen).Msg("Starting API server")

	if err := router.Run(listen); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
