// Package game runs a game between two players: it asks each side for a
// move in turn, records the history, detects the end of the game and keeps
// the saved copy and the opening name up to date.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/eco"
	"github.com/magnanimus/magnanimus/internal/notation"
	"github.com/magnanimus/magnanimus/internal/player"
	"github.com/magnanimus/magnanimus/internal/position"
	"github.com/magnanimus/magnanimus/internal/store"
)

// Status is where a game stands.
type Status uint8

const (
	InProgress Status = iota
	Checkmate
	Stalemate
	Quit
	MoveLimit
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Quit:
		return "quit"
	case MoveLimit:
		return "move limit"
	}
	return "in progress"
}

// Over reports whether no more moves will be played.
func (s Status) Over() bool { return s != InProgress }

// Config configures a Game.
type Config struct {
	Logger   zerolog.Logger
	White    player.Player
	Black    player.Player
	Store    *store.GameStore // optional; saves after every move when set
	ID       string           // save id, required with Store
	Openings *eco.Database    // optional
	MaxPlies int              // 0 means no limit
	Out      io.Writer        // board and status output; nil for none
}

// Game is a game in progress. It is not safe for concurrent use.
type Game struct {
	cfg     Config
	log     zerolog.Logger
	pos     *position.Position
	tracker *eco.Tracker
	status  Status
	mated   board.Color
}

// New starts a game from start, or from the standard layout when start is nil.
func New(cfg Config, geo *board.Geometry, start *position.Position) (*Game, error) {
	if cfg.White == nil || cfg.Black == nil {
		return nil, errors.New("both players are required")
	}
	if cfg.Store != nil && cfg.ID == "" {
		return nil, errors.New("a save id is required with a store")
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if start == nil {
		start = position.Start(geo)
	}
	g := &Game{
		cfg: cfg,
		log: cfg.Logger.With().Str("game", cfg.ID).Logger(),
		pos: start,
	}
	g.resetTracker()
	return g, nil
}

// Load resumes the game saved under cfg.ID in cfg.Store. A game that began
// from the standard layout is replayed from it, so its whole history can be
// taken back.
func Load(cfg Config, geo *board.Geometry) (*Game, error) {
	if cfg.Store == nil {
		return nil, errors.New("load needs a store")
	}
	st, err := cfg.Store.Load(cfg.ID)
	if err != nil {
		return nil, err
	}
	saved, err := position.FromState(geo, st, nil)
	if err != nil {
		return nil, fmt.Errorf("restore game %s: %w", cfg.ID, err)
	}
	pos := saved
	if replayed, ok := replay(geo, saved.Moves()); ok && notation.FEN(replayed) == notation.FEN(saved) {
		pos = replayed
	}
	g, err := New(cfg, geo, pos)
	if err != nil {
		return nil, err
	}
	g.log.Info().Int("plies", pos.Ply()).Msg("game loaded")
	return g, nil
}

func replay(geo *board.Geometry, moves []board.Move) (*position.Position, bool) {
	p := position.Start(geo)
	for _, m := range moves {
		next, err := p.Play(m)
		if err != nil {
			return nil, false
		}
		p = next
	}
	return p, true
}

// Position returns the current position.
func (g *Game) Position() *position.Position { return g.pos }

// Status returns where the game stands.
func (g *Game) Status() Status { return g.status }

// Mated returns the checkmated color once Status is Checkmate.
func (g *Game) Mated() board.Color { return g.mated }

// Opening returns the named opening the game has passed through, or nil.
func (g *Game) Opening() *eco.Opening {
	if g.tracker == nil {
		return nil
	}
	return g.tracker.Opening()
}

func (g *Game) playerFor(c board.Color) player.Player {
	if c == board.Black {
		return g.cfg.Black
	}
	return g.cfg.White
}

// the tracker only follows games rooted in the standard layout
func (g *Game) resetTracker() {
	g.tracker = nil
	if g.cfg.Openings == nil {
		return
	}
	root := g.pos.Root()
	if notation.FEN(root) != notation.FEN(position.Start(root.Geometry())) {
		return
	}
	g.tracker = eco.NewTracker(g.cfg.Openings)
	p := root
	for _, m := range g.pos.Moves()[root.Ply():] {
		g.tracker.Observe(p, m)
		p = p.Apply(m)
	}
}

// ended marks the game over when the side to move has no safe move.
func (g *Game) ended() bool {
	if len(g.pos.SafeMoves()) > 0 {
		return false
	}
	mover := g.pos.ToMove()
	if g.pos.InCheck(mover) {
		g.status = Checkmate
		g.mated = mover
	} else {
		g.status = Stalemate
	}
	return true
}

// Step plays one move. It returns the game status afterwards; an error means
// the game could not continue, such as a player returning an illegal move.
func (g *Game) Step(ctx context.Context) (Status, error) {
	if g.status.Over() {
		return g.status, nil
	}
	if g.ended() {
		g.report()
		return g.status, nil
	}
	if g.cfg.MaxPlies > 0 && g.pos.Ply() >= g.cfg.MaxPlies {
		g.status = MoveLimit
		g.report()
		return g.status, nil
	}

	g.show()
	mover := g.pos.ToMove()
	pl := g.playerFor(mover)
	m, err := pl.Move(ctx, g.pos)
	switch {
	case errors.Is(err, player.ErrQuit):
		g.status = Quit
		g.report()
		return g.status, nil
	case errors.Is(err, player.ErrUndo):
		// take back the player's last move and the reply to it, or just the
		// reply when the player has not moved yet
		n := min(2, g.pos.Ply()-g.pos.Root().Ply())
		if n == 0 {
			fmt.Fprintln(g.cfg.Out, "nothing to undo")
			return g.status, nil
		}
		if err := g.Undo(n); err != nil {
			g.log.Warn().Err(err).Msg("undo refused")
			fmt.Fprintln(g.cfg.Out, "nothing to undo")
		}
		return g.status, nil
	case err != nil:
		return g.status, fmt.Errorf("%s (%s): %w", pl.Name(), mover, err)
	}

	next, err := g.pos.Play(m)
	if err != nil {
		return g.status, fmt.Errorf("%s (%s): %w", pl.Name(), mover, err)
	}
	if next.InCheck(mover) {
		return g.status, fmt.Errorf("%s (%s) %s leaves its king in check: %w", pl.Name(), mover, m, position.ErrIllegalMove)
	}

	san := notation.SAN(g.pos, m)
	if g.tracker != nil {
		g.tracker.Observe(g.pos, m)
	}
	g.pos = next

	ev := g.log.Info().
		Int("ply", g.pos.Ply()).
		Str("player", pl.Name()).
		Str("color", mover.String()).
		Str("move", san).
		Float64("score", g.pos.Score())
	if c, ok := g.pos.Checked(); ok {
		ev = ev.Str("check", c.String())
	}
	if o := g.Opening(); o != nil {
		ev = ev.Str("eco", o.ECO)
	}
	ev.Msg("move played")
	fmt.Fprintf(g.cfg.Out, "%s move: %s\n", mover, san)

	if err := g.Save(); err != nil {
		return g.status, err
	}
	if g.ended() {
		g.report()
	}
	return g.status, nil
}

// Run steps until the game is over or a step fails.
func (g *Game) Run(ctx context.Context) (Status, error) {
	for !g.status.Over() {
		if _, err := g.Step(ctx); err != nil {
			return g.status, err
		}
	}
	return g.status, nil
}

// Undo takes back the last n moves and reopens a finished game.
func (g *Game) Undo(n int) error {
	for _, m := range lastMoves(g.pos, n) {
		g.log.Info().Str("move", m.String()).Msg("undoing move")
	}
	prev, err := g.pos.Undo(n)
	if err != nil {
		return err
	}
	g.pos = prev
	g.status = InProgress
	g.resetTracker()
	return g.Save()
}

func lastMoves(p *position.Position, n int) []board.Move {
	moves := p.Moves()
	if n > len(moves) || n < 0 {
		return nil
	}
	return moves[len(moves)-n:]
}

// Save writes the current position to the store, if there is one.
func (g *Game) Save() error {
	if g.cfg.Store == nil {
		return nil
	}
	if err := g.cfg.Store.Save(g.cfg.ID, g.pos.Snapshot()); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// Explain describes how the piece on sq contributes to the score.
func (g *Game) Explain(sq board.Square) (string, bool) {
	return notation.Explain(g.pos, sq)
}

// String shows the board between the two sides' scores.
func (g *Game) String() string {
	var b strings.Builder
	scores := g.pos.Scores()
	checked, inCheck := g.pos.Checked()
	line := func(c board.Color) {
		fmt.Fprintf(&b, "       %s %.2f", c, scores[c])
		if g.pos.ToMove() == c {
			b.WriteString("  to move")
		}
		if inCheck && checked == c {
			b.WriteString("  in check")
		}
		b.WriteByte('\n')
	}
	line(board.Black)
	var lit []board.Square
	if m, ok := g.pos.LastMove(); ok {
		lit = m.Touched()
	}
	b.WriteString(notation.Render(g.pos, lit...))
	line(board.White)
	return b.String()
}

func (g *Game) show() {
	fmt.Fprint(g.cfg.Out, g.String())
}

func (g *Game) report() {
	ev := g.log.Info().Str("status", g.status.String()).Int("plies", g.pos.Ply()).Float64("score", g.pos.Score())
	if g.status == Checkmate {
		ev = ev.Str("mated", g.mated.String())
	}
	ev.Msg("game over")
	switch g.status {
	case Checkmate:
		fmt.Fprintf(g.cfg.Out, "%s is checkmated\n", g.mated)
	case Stalemate:
		fmt.Fprintln(g.cfg.Out, "stalemate")
	case MoveLimit:
		fmt.Fprintf(g.cfg.Out, "stopped after %d plies\n", g.pos.Ply())
	}
}
