package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mindmatch/assets"
	"github.com/robalobadob/mindmatch/internal/config"
	"github.com/robalobadob/mindmatch/internal/database"
	"github.com/robalobadob/mindmatch/internal/httpserver"
	"github.com/robalobadob/mindmatch/internal/palette"
	"github.com/robalobadob/mindmatch/internal/puzzles"
	"github.com/robalobadob/mindmatch/internal/store"
)

func main() {
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := palette.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load color palette")
	}
	log.Info().Int("colors", palette.Stats()).Str("file", cfg.PaletteFile).Msg("palette loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenAndMigrate(cfg.DBPath, assets.Migrations())
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()

	if err := puzzles.NewStore(db).SeedTypes(ctx, puzzles.DefaultTypeNames); err != nil {
		log.Fatal().Err(err).Msg("failed to seed puzzle types")
	}

	mem := store.NewMemoryStore()
	go mem.RunSweeper(ctx, time.Minute, cfg.SessionTTL)

	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, daily generation disabled")
	}

	srv := httpserver.New(cfg, mem, db)
	log.Info().Str("port", cfg.Port).Msg("starting mindmatch server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
