// Package ingest imports games recorded in PGN files into the game store.
// Each game is replayed under the engine's move rules; a game that reaches a
// move those rules do not have (en passant, promotion) is kept up to the
// last move that could be played.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/freeeve/pgn/v3"
	"github.com/rs/zerolog"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/position"
	"github.com/magnanimus/magnanimus/internal/store"
)

// Config configures the ingest worker.
type Config struct {
	WatchDir     string         // Directory to watch for PGN files
	ProcessedDir string         // Directory to move processed files to
	MinPlies     int            // Games shorter than this after replay are skipped (default 1)
	NumWorkers   int            // Files processed in parallel (default 1)
	PollInterval time.Duration  // How often to check for new files
	Logger       zerolog.Logger // Logger
}

// Importer replays PGN games and saves them in a game store.
type Importer struct {
	games    *store.GameStore
	geo      *board.Geometry
	minPlies int
	log      zerolog.Logger
}

// NewImporter creates an importer. Games shorter than minPlies after replay
// are skipped; zero means 1.
func NewImporter(games *store.GameStore, geo *board.Geometry, minPlies int, log zerolog.Logger) *Importer {
	if minPlies == 0 {
		minPlies = 1
	}
	return &Importer{games: games, geo: geo, minPlies: minPlies, log: log}
}

// Worker watches a folder and imports PGN files.
type Worker struct {
	*Importer
	cfg Config
	log zerolog.Logger
}

// Summary counts the outcome of importing one file.
type Summary struct {
	Imported  int // saved in full
	Truncated int // saved up to an unplayable move
	Skipped   int // too short to keep
}

// NewWorker creates a new ingest worker. It returns nil when no watch
// directory is configured.
func NewWorker(cfg Config, games *store.GameStore, geo *board.Geometry) (*Worker, error) {
	if cfg.WatchDir == "" {
		return nil, nil // Disabled
	}
	if games == nil {
		return nil, errors.New("ingest needs a game store")
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = filepath.Join(cfg.WatchDir, "processed")
	}
	if cfg.NumWorkers == 0 {
		cfg.NumWorkers = 1
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}

	// Ensure directories exist
	if err := os.MkdirAll(cfg.WatchDir, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.ProcessedDir, 0755); err != nil {
		return nil, err
	}

	return &Worker{
		Importer: NewImporter(games, geo, cfg.MinPlies, cfg.Logger),
		cfg:      cfg,
		log:      cfg.Logger,
	}, nil
}

// Run starts the folder watcher.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().
		Str("watch_dir", w.cfg.WatchDir).
		Str("processed_dir", w.cfg.ProcessedDir).
		Msg("ingest worker started")

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessNewFiles(ctx); err != nil {
				w.log.Warn().Err(err).Msg("process files failed")
			}
		}
	}
}

// ProcessNewFiles imports every PGN file waiting in the watch directory and
// moves each one it finishes to the processed directory.
func (w *Worker) ProcessNewFiles(ctx context.Context) error {
	// Early exit if context already cancelled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	entries, err := os.ReadDir(w.cfg.WatchDir)
	if err != nil {
		return err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); isPGNFile(name) {
			files = append(files, name)
		}
	}
	if len(files) == 0 {
		return nil
	}
	sort.Strings(files)
	w.log.Info().Int("files", len(files)).Int("workers", w.cfg.NumWorkers).Msg("found PGN files")

	type fileResult struct {
		name    string
		summary Summary
		err     error
	}

	fileChan := make(chan string, len(files))
	resultChan := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileChan {
				select {
				case <-ctx.Done():
					resultChan <- fileResult{name: name, err: ctx.Err()}
					continue
				default:
				}
				sum, err := w.ImportFile(ctx, filepath.Join(w.cfg.WatchDir, name))
				resultChan <- fileResult{name: name, summary: sum, err: err}
			}
		}()
	}

	for _, name := range files {
		fileChan <- name
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var processed, failed int
	for result := range resultChan {
		if result.err != nil {
			w.log.Error().Err(result.err).Str("file", result.name).Msg("ingest failed")
			failed++
			continue
		}

		srcPath := filepath.Join(w.cfg.WatchDir, result.name)
		destPath := filepath.Join(w.cfg.ProcessedDir, result.name)
		if err := os.Rename(srcPath, destPath); err != nil {
			w.log.Warn().Err(err).Str("file", result.name).Msg("move to processed failed")
		} else {
			w.log.Info().Str("file", result.name).Msg("moved to processed")
		}
		processed++
	}

	w.log.Info().Int("processed", processed).Int("failed", failed).Msg("batch complete")
	return nil
}

// ImportFile imports every game in one PGN file. Games are saved under the
// file's base name and their index in the file.
func (im *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	var sum Summary
	start := time.Now()
	prefix := gamePrefix(path)

	parser := pgn.Games(path)
	stopped := false
	n := 0
gameLoop:
	for game := range parser.Games {
		select {
		case <-ctx.Done():
			if !stopped {
				parser.Stop()
				stopped = true
			}
			break gameLoop
		default:
		}
		n++

		p, complete := im.replay(game.Moves)
		if p.Ply() < im.minPlies {
			sum.Skipped++
			continue
		}
		id := fmt.Sprintf("%s-%04d", prefix, n)
		if err := im.games.Save(id, p.Snapshot()); err != nil {
			return sum, err
		}
		if complete {
			sum.Imported++
		} else {
			sum.Truncated++
		}
		im.log.Debug().
			Str("id", id).
			Str("white", game.Tags["White"]).
			Str("black", game.Tags["Black"]).
			Int("plies", p.Ply()).
			Int("recorded", len(game.Moves)).
			Msg("game imported")
	}

	if err := parser.Err(); err != nil {
		return sum, err
	}
	if ctx.Err() != nil {
		return sum, ctx.Err()
	}

	im.log.Info().
		Str("file", filepath.Base(path)).
		Int("imported", sum.Imported).
		Int("truncated", sum.Truncated).
		Int("skipped", sum.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("file ingest complete")
	return sum, nil
}

// replay plays moves from the standard layout until one is not available
// under the engine's rules. It reports whether every move was played.
func (im *Importer) replay(moves []pgn.Mv) (*position.Position, bool) {
	p := position.Start(im.geo)
	for _, mv := range moves {
		if isPromotion(mv) {
			return p, false
		}
		next, err := p.Play(toMove(p, mv))
		if err != nil {
			return p, false
		}
		p = next
	}
	return p, true
}

// pgn squares count from a1 upward
func fromPGN(sq int) board.Square {
	return board.SquareAt(7-sq/8, sq%8)
}

// toMove converts mv, reading a king taking its own rook as a castle.
func toMove(p *position.Position, mv pgn.Mv) board.Move {
	from, to := fromPGN(int(mv.From)), fromPGN(int(mv.To))
	king, rook := p.PieceAt(from), p.PieceAt(to)
	if king != nil && rook != nil && king.Kind == board.King && rook.Kind == board.Rook && king.Color == rook.Color {
		if c, side, ok := board.RookHome(to); ok && c == king.Color {
			return board.NewCastle(c, side)
		}
	}
	return board.NewMove(from, to)
}

func isPromotion(mv pgn.Mv) bool {
	switch mv.Promo {
	case pgn.PromoQueen, pgn.PromoRook, pgn.PromoBishop, pgn.PromoKnight:
		return true
	}
	return false
}

var idUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func gamePrefix(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".zst")
	base = strings.TrimSuffix(base, ".pgn")
	base = strings.Trim(idUnsafe.ReplaceAllString(base, "-"), "-")
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" {
		base = "game"
	}
	return base
}

func isPGNFile(name string) bool {
	ext := filepath.Ext(name)
	if ext == ".pgn" {
		return true
	}
	if ext == ".zst" {
		// Check for .pgn.zst
		base := name[:len(name)-4]
		return filepath.Ext(base) == ".pgn"
	}
	return false
}
