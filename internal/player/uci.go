package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/freeeve/uci"
	"github.com/rs/zerolog"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/notation"
	"github.com/magnanimus/magnanimus/internal/position"
)

// mateValue ranks engine mate scores above any centipawn score.
const mateValue = 30000

// UCIConfig configures a UCIPlayer.
type UCIConfig struct {
	Logger  zerolog.Logger
	Name    string
	Path    string // engine executable
	Depth   int    // search depth per candidate; default 8
	Hash    int    // hash MB; default 64
	Threads int    // default 1
}

// evaluator scores a FEN position in centipawns for the side to move.
type evaluator interface {
	Evaluate(fen string) (int, error)
	Close() error
}

// UCIPlayer asks an external UCI engine to evaluate every safe reply and
// plays the one that leaves the opponent worst off. Restricting the engine
// to our own move set keeps it inside the rules the game is played by.
type UCIPlayer struct {
	name string
	eval evaluator
	log  zerolog.Logger
}

// NewUCIPlayer starts the engine at cfg.Path.
func NewUCIPlayer(cfg UCIConfig) (*UCIPlayer, error) {
	if cfg.Path == "" {
		return nil, errors.New("uci engine path required")
	}
	if cfg.Depth == 0 {
		cfg.Depth = 8
	}
	if cfg.Hash == 0 {
		cfg.Hash = 64
	}
	if cfg.Threads == 0 {
		cfg.Threads = 1
	}
	if cfg.Name == "" {
		cfg.Name = "uci"
	}

	engine, err := uci.NewEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	opts := uci.Options{
		Hash:    cfg.Hash,
		Threads: cfg.Threads,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := engine.SetOptions(opts); err != nil {
		engine.Close()
		return nil, fmt.Errorf("set options: %w", err)
	}

	log := cfg.Logger.With().Str("player", cfg.Name).Logger()
	log.Info().Str("path", cfg.Path).Int("depth", cfg.Depth).Msg("uci engine started")
	return newUCIPlayer(cfg.Name, &uciEngine{engine: engine, depth: cfg.Depth}, log), nil
}

func newUCIPlayer(name string, eval evaluator, log zerolog.Logger) *UCIPlayer {
	return &UCIPlayer{name: name, eval: eval, log: log}
}

func (u *UCIPlayer) Name() string { return u.name }

// Close stops the engine.
func (u *UCIPlayer) Close() error { return u.eval.Close() }

// Move evaluates each safe move's resulting position and picks the one whose
// score, negated back to the mover, is highest. Ties keep the earliest move.
func (u *UCIPlayer) Move(ctx context.Context, p *position.Position) (board.Move, error) {
	moves := p.SafeMoves()
	if len(moves) == 0 {
		return board.Move{}, ErrNoMove
	}

	var best board.Move
	bestValue := 0
	for i, m := range moves {
		if err := ctx.Err(); err != nil {
			if i == 0 {
				return board.Move{}, err
			}
			u.log.Debug().Int("evaluated", i).Msg("stopped early")
			break
		}
		fen := notation.FEN(p.Apply(m))
		v, err := u.eval.Evaluate(fen)
		if err != nil {
			return board.Move{}, fmt.Errorf("evaluate %s: %w", m, err)
		}
		value := -v
		if i == 0 || value > bestValue {
			best, bestValue = m, value
		}
		u.log.Debug().Str("move", m.String()).Int("value", value).Msg("candidate")
	}
	u.log.Debug().Str("move", best.String()).Int("value", bestValue).Msg("uci move")
	return best, nil
}

type uciEngine struct {
	engine *uci.Engine
	depth  int
}

// Evaluate returns the deepest score the engine reports for fen, with mates
// mapped to values beyond any material score.
func (e *uciEngine) Evaluate(fen string) (int, error) {
	if err := e.engine.SetFEN(fen); err != nil {
		return 0, fmt.Errorf("set FEN: %w", err)
	}
	results, err := e.engine.GoDepth(e.depth, uci.HighestDepthOnly)
	if err != nil {
		return 0, fmt.Errorf("engine eval: %w", err)
	}
	if len(results.Results) == 0 {
		return 0, fmt.Errorf("no results from engine")
	}
	best := results.Results[0]
	for _, r := range results.Results {
		if r.Depth > best.Depth {
			best = r
		}
	}
	if best.Mate {
		return mateScore(best.Score), nil
	}
	return best.Score, nil
}

// mateScore maps "mate in n" (negative when being mated) so that shorter
// wins score higher and shorter losses lower.
func mateScore(n int) int {
	if n > 0 {
		return mateValue - n
	}
	return -mateValue - n
}

func (e *uciEngine) Close() error {
	e.engine.Close()
	return nil
}
