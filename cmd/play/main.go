package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/eco"
	"github.com/magnanimus/magnanimus/internal/game"
	"github.com/magnanimus/magnanimus/internal/logx"
	"github.com/magnanimus/magnanimus/internal/notation"
	"github.com/magnanimus/magnanimus/internal/player"
	"github.com/magnanimus/magnanimus/internal/position"
	"github.com/magnanimus/magnanimus/internal/search"
	"github.com/magnanimus/magnanimus/internal/store"
)

func main() {
	defaultDataDir := "./data"
	if env := os.Getenv("MAGNANIMUS_DATA_DIR"); env != "" {
		defaultDataDir = env
	}
	defaultLogLevel := "warn"
	if env := os.Getenv("MAGNANIMUS_LOG_LEVEL"); env != "" {
		defaultLogLevel = env
	}

	var (
		// Players
		white = flag.String("white", "human", "white player: human, engine or uci")
		black = flag.String("black", "engine", "black player: human, engine or uci")

		// Game
		fen      = flag.String("fen", "", "start from this FEN instead of the standard layout")
		gameID   = flag.String("id", "", "save id (default: a timestamp)")
		resume   = flag.Bool("resume", false, "resume the game saved under -id")
		maxPlies = flag.Int("max-plies", 0, "stop after this many plies (0 = no limit)")

		// Search
		plies   = flag.Int("plies", 4, "search depth in plies")
		beam    = flag.Int("beam", 200, "lines kept per ply")
		budget  = flag.Duration("budget", 5*time.Second, "time per engine move")
		workers = flag.Int("workers", 1, "parallel expansion workers")

		// External engine
		uciPath  = flag.String("uci", os.Getenv("MAGNANIMUS_UCI_PATH"), "path to a UCI engine executable")
		uciDepth = flag.Int("uci-depth", 8, "UCI engine depth per candidate move")

		// Data
		dataDir  = flag.String("data-dir", defaultDataDir, "data directory (games/ and eco/)")
		noSave   = flag.Bool("no-save", false, "do not save the game")
		logLevel = flag.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger := logx.NewLogger(os.Stderr, *logLevel)
	geo := board.NewGeometry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	searchCfg := search.Config{
		Logger:  logger.With().Str("component", "search").Logger(),
		Plies:   *plies,
		Beam:    *beam,
		Budget:  *budget,
		Workers: *workers,
	}
	var closers []func() error
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()
	// one console player reads stdin for both sides
	var human *player.ConsolePlayer
	newPlayer := func(kind string, c board.Color) player.Player {
		switch kind {
		case "human":
			if human == nil {
				human = player.NewConsolePlayer("you", os.Stdin, os.Stdout)
			}
			return human
		case "engine":
			return player.NewEnginePlayer("magnanimus-"+c.String(), searchCfg)
		case "uci":
			u, err := player.NewUCIPlayer(player.UCIConfig{
				Logger: logger,
				Name:   "uci-" + c.String(),
				Path:   *uciPath,
				Depth:  *uciDepth,
			})
			if err != nil {
				logger.Fatal().Err(err).Str("path", *uciPath).Msg("start uci engine")
			}
			closers = append(closers, u.Close)
			return u
		}
		logger.Fatal().Str("player", kind).Msg("unknown player kind")
		return nil
	}

	cfg := game.Config{
		Logger:   logger,
		White:    newPlayer(*white, board.White),
		Black:    newPlayer(*black, board.Black),
		MaxPlies: *maxPlies,
		Out:      os.Stdout,
		ID:       *gameID,
	}
	if cfg.ID == "" {
		cfg.ID = "game-" + time.Now().Format("20060102-150405")
	}

	if !*noSave || *resume {
		games, err := store.NewGameStore(filepath.Join(*dataDir, "games"))
		if err != nil {
			logger.Fatal().Err(err).Msg("open game store")
		}
		games.SetLogger(func(format string, args ...any) {
			logger.Debug().Msgf(format, args...)
		})
		defer games.Close()
		cfg.Store = games
	}

	ecoDB := eco.NewDatabase()
	if err := ecoDB.LoadDir(filepath.Join(*dataDir, "eco")); err != nil {
		logger.Info().Err(err).Msg("no opening names")
	} else {
		cfg.Openings = ecoDB
	}

	var (
		g   *game.Game
		err error
	)
	switch {
	case *resume:
		g, err = game.Load(cfg, geo)
	case *fen != "":
		var start *position.Position
		start, err = notation.FromFEN(geo, *fen)
		if err == nil {
			g, err = game.New(cfg, geo, start)
		}
	default:
		g, err = game.New(cfg, geo, nil)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("start game")
	}

	status, err := g.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("game stopped")
	}
	fmt.Print(g.String())
	fmt.Printf("%s after %d plies", status, g.Position().Ply())
	if o := g.Opening(); o != nil {
		fmt.Printf(", opening %s %s", o.ECO, o.Name)
	}
	fmt.Println()
	if cfg.Store != nil {
		fmt.Printf("saved as %s\n", cfg.ID)
	}
	logger.Debug().Str("id", cfg.ID).Msg("done")
}
