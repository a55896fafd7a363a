package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/eco"
	"github.com/magnanimus/magnanimus/internal/httpapi"
	"github.com/magnanimus/magnanimus/internal/ingest"
	"github.com/magnanimus/magnanimus/internal/logx"
	"github.com/magnanimus/magnanimus/internal/search"
	"github.com/magnanimus/magnanimus/internal/store"
)

func main() {
	defaultDataDir := "./data"
	if env := os.Getenv("MAGNANIMUS_DATA_DIR"); env != "" {
		defaultDataDir = env
	}

	var (
		// Server
		addr = flag.String("addr", ":8007", "listen address")

		// Data directories
		dataDir = flag.String("data-dir", defaultDataDir, "Data directory (games/ and eco/)")
		ecoDir  = flag.String("eco-dir", "", "Directory containing ECO .tsv files (default <data-dir>/eco)")

		// Search defaults and caps
		plies     = flag.Int("plies", 4, "default search depth in plies")
		beam      = flag.Int("beam", 200, "default lines kept per ply")
		budget    = flag.Duration("budget", 5*time.Second, "default time per search")
		workers   = flag.Int("workers", 4, "parallel expansion workers per search")
		maxPlies  = flag.Int("max-plies", 8, "largest depth a request may ask for")
		maxBudget = flag.Duration("max-budget", 10*time.Second, "largest budget a request may ask for")

		// Ingest settings
		ingestDir = flag.String("ingest-dir", "", "Directory to watch for PGN files (empty = disabled)")

		logLevel = flag.String("log-level", os.Getenv("MAGNANIMUS_LOG_LEVEL"), "log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger := logx.NewLogger(os.Stdout, *logLevel)
	geo := board.NewGeometry()

	games, err := store.NewGameStore(filepath.Join(*dataDir, "games"))
	if err != nil {
		logger.Fatal().Err(err).Msg("open game store")
	}
	games.SetLogger(func(format string, args ...any) {
		logger.Debug().Msgf(format, args...)
	})
	defer games.Close()
	logger.Info().Str("dir", games.Dir()).Msg("opened game store")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load ECO opening database
	if *ecoDir == "" {
		*ecoDir = filepath.Join(*dataDir, "eco")
	}
	var ecoDB *eco.Database
	db := eco.NewDatabase()
	if err := db.LoadDir(*ecoDir); err != nil {
		logger.Warn().Err(err).Str("dir", *ecoDir).Msg("failed to load ECO database")
	} else {
		ecoDB = db
		logger.Info().Int("openings", ecoDB.Count()).Msg("ECO database loaded")
	}

	// Start HTTP server
	srv := &http.Server{
		Addr: *addr,
		Handler: httpapi.NewRouter(logger, geo, httpapi.Options{
			Games:    games,
			Openings: ecoDB,
			Search: search.Config{
				Plies:   *plies,
				Beam:    *beam,
				Budget:  *budget,
				Workers: *workers,
			},
			MaxPlies:  *maxPlies,
			MaxBudget: *maxBudget,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: *maxBudget + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("api server")
		}
	}()

	// Start ingest worker if configured
	if *ingestDir != "" {
		worker, err := ingest.NewWorker(ingest.Config{
			WatchDir: *ingestDir,
			Logger:   logger.With().Str("component", "ingest").Logger(),
		}, games, geo)
		if err != nil {
			logger.Fatal().Err(err).Msg("create ingest worker")
		}
		go func() {
			if err := worker.Run(ctx); err != nil && err != context.Canceled {
				logger.Error().Err(err).Msg("ingest worker stopped")
			}
		}()
		logger.Info().Str("watch_dir", *ingestDir).Msg("started ingest worker")
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}

	logger.Info().Msg("shutdown complete")
}
