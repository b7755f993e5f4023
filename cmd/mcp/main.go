package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/app"
	"github.com/urmzd/remo/pkg/config"
	remomcp "github.com/urmzd/remo/pkg/mcp"
)

const version = "1.0.0"

func main() {
	// Logging must go to stderr, stdout is the MCP transport
	config.SetupLogging(config.Default().Level())

	configPath := flag.String("config", "", "Path to config file (default: ~/.config/remo/config.toml)")
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/remo/remo.db)")
	token := flag.String("token", "", "Nature Remo access token; stored for later runs")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := app.Start(ctx, app.Options{ConfigPath: *configPath, DBPath: *dbPath, Token: *token})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	mcpServer := remomcp.NewServer(rt.Controller, version)

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Error().Err(err).Msg("MCP server failed")
	}
}
