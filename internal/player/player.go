// Package player supplies the sources of moves in a game: the built-in
// search, a person at a console, and an external UCI engine.
package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/position"
	"github.com/magnanimus/magnanimus/internal/search"
)

var (
	// ErrQuit is returned when a player abandons the game.
	ErrQuit = errors.New("quit")
	// ErrUndo is returned when a player asks to take back moves.
	ErrUndo = errors.New("undo")
	// ErrNoMove is returned when the position offers no move.
	ErrNoMove = errors.New("no move available")
)

// Player chooses the next move for the side to move.
type Player interface {
	Name() string
	Move(ctx context.Context, p *position.Position) (board.Move, error)
}

// EnginePlayer moves with the built-in beam search.
type EnginePlayer struct {
	name     string
	searcher *search.Searcher
	log      zerolog.Logger
	last     search.Result
}

// NewEnginePlayer wraps a searcher built from cfg.
func NewEnginePlayer(name string, cfg search.Config) *EnginePlayer {
	if name == "" {
		name = "magnanimus"
	}
	return &EnginePlayer{
		name:     name,
		searcher: search.NewSearcher(cfg),
		log:      cfg.Logger.With().Str("player", name).Logger(),
	}
}

func (e *EnginePlayer) Name() string { return e.name }

// Move runs a search from p and returns its first move.
func (e *EnginePlayer) Move(ctx context.Context, p *position.Position) (board.Move, error) {
	res, err := e.searcher.BestMove(ctx, p)
	if err != nil {
		return board.Move{}, fmt.Errorf("search: %w", err)
	}
	e.last = res
	if !res.HasMove {
		return board.Move{}, fmt.Errorf("%s: %w", res.Outcome, ErrNoMove)
	}
	e.log.Debug().
		Str("move", res.Move.String()).
		Float64("score", res.Score).
		Str("outcome", res.Outcome.String()).
		Msg("engine move")
	return res.Move, nil
}

// LastResult returns the result of the most recent search.
func (e *EnginePlayer) LastResult() search.Result { return e.last }
