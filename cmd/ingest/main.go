package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/ingest"
	"github.com/magnanimus/magnanimus/internal/logx"
	"github.com/magnanimus/magnanimus/internal/store"
)

func main() {
	defaultDataDir := "./data"
	if env := os.Getenv("MAGNANIMUS_DATA_DIR"); env != "" {
		defaultDataDir = env
	}

	var (
		dataDir   = flag.String("data-dir", defaultDataDir, "Data directory (games are kept under games/)")
		inputPath = flag.String("pgn", "", "Path to PGN file (supports .zst)")
		minPlies  = flag.Int("min-plies", 1, "Skip games shorter than this after replay")
		logLevel  = flag.String("log-level", os.Getenv("MAGNANIMUS_LOG_LEVEL"), "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: ingest --pgn <file.pgn[.zst]> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logx.NewLogger(os.Stdout, *logLevel)
	logger.Info().
		Str("pgn", *inputPath).
		Str("data_dir", *dataDir).
		Msg("starting ingest")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	games, err := store.NewGameStore(filepath.Join(*dataDir, "games"))
	if err != nil {
		logger.Fatal().Err(err).Msg("open game store")
	}
	games.SetLogger(func(format string, args ...any) {
		logger.Debug().Msgf(format, args...)
	})
	defer games.Close()

	im := ingest.NewImporter(games, board.NewGeometry(), *minPlies, logger)
	sum, err := im.ImportFile(ctx, *inputPath)
	if err != nil {
		logger.Error().Err(err).Msg("ingest failed")
	}
	logger.Info().
		Int("imported", sum.Imported).
		Int("truncated", sum.Truncated).
		Int("skipped", sum.Skipped).
		Msg("ingest complete")
}
