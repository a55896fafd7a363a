// Package position implements the board state of a game: piece placement,
// per-piece reachability, heuristic scoring, move application and move
// enumeration.
//
// A Position is immutable once returned. Applying a move produces a new
// Position that shares the derived data of every piece the move could not
// have affected, so earlier positions stay valid for history and undo.
package position

import (
	"errors"
	"fmt"

	"github.com/magnanimus/magnanimus/internal/board"
)

var (
	ErrBadSquare       = errors.New("square off board")
	ErrDuplicateSquare = errors.New("square occupied twice")
	ErrUnknownPiece    = errors.New("unknown piece")
	ErrIllegalMove     = errors.New("illegal move")
	ErrNothingToUndo   = errors.New("nothing to undo")
)

// Coeffs weights the terms of the scoring heuristic.
type Coeffs struct {
	Free      float64 // per reachable empty square, times the piece's base value, halved
	Defending float64 // per friendly piece covered
	Attacking float64 // times the base value of each attacked enemy piece
	Check     float64 // once, when the enemy king is attacked
	Castle    float64 // per castle made, to the castling side
}

// DefaultCoeffs returns the standard weights.
func DefaultCoeffs() Coeffs {
	return Coeffs{
		Free:      0.02,
		Defending: 0.05,
		Attacking: 0.02,
		Check:     1,
		Castle:    0.5,
	}
}

// Placement puts one piece on one square.
type Placement struct {
	Kind   board.Kind
	Color  board.Color
	Square board.Square
}

// Piece is an occupied square with its derived reachability and score.
// Pieces are shared between positions and must not be modified.
type Piece struct {
	Kind   board.Kind
	Color  board.Color
	Square board.Square

	Free         []board.Square // empty squares the piece can move to
	Attacking    []board.Square // enemy pieces it can capture
	Defending    []board.Square // friendly pieces it covers
	JustCovering []board.Square // empty pawn diagonals
	GivesCheck   bool
	Score        float64 // signed, negative for black
}

// Setup describes a position to construct.
type Setup struct {
	Pieces   []Placement
	ToMove   board.Color
	Castling [2]board.CastleRights // indexed by color
	Moves    []board.Move          // history already played, recorded but not replayed
	Coeffs   *Coeffs               // nil selects DefaultCoeffs
}

// Position is one version of the board.
type Position struct {
	geo      *board.Geometry
	coeffs   Coeffs
	squares  [64]*Piece
	toMove   board.Color
	moves    []board.Move
	castling [2]board.CastleRights
	bonus    float64 // accumulated castle bonus, signed
	score    float64
	root     *Position
}

// StartPlacements is the standard initial layout.
func StartPlacements() []Placement {
	back := []board.Kind{board.Rook, board.Knight, board.Bishop, board.Queen, board.King, board.Bishop, board.Knight, board.Rook}
	out := make([]Placement, 0, 32)
	for f, k := range back {
		out = append(out, Placement{k, board.Black, board.SquareAt(0, f)})
	}
	for f := 0; f < 8; f++ {
		out = append(out, Placement{board.Pawn, board.Black, board.SquareAt(1, f)})
	}
	for f := 0; f < 8; f++ {
		out = append(out, Placement{board.Pawn, board.White, board.SquareAt(6, f)})
	}
	for f, k := range back {
		out = append(out, Placement{k, board.White, board.SquareAt(7, f)})
	}
	return out
}

// Start returns the standard initial position, white to move.
func Start(geo *board.Geometry) *Position {
	p, err := New(geo, Setup{
		Pieces:   StartPlacements(),
		ToMove:   board.White,
		Castling: [2]board.CastleRights{board.BothSides, board.BothSides},
	})
	if err != nil {
		panic(fmt.Sprintf("start position: %v", err))
	}
	return p
}

// New validates the setup and returns a fully analysed position.
func New(geo *board.Geometry, s Setup) (*Position, error) {
	p := &Position{
		geo:      geo,
		coeffs:   DefaultCoeffs(),
		toMove:   s.ToMove,
		castling: s.Castling,
		moves:    append([]board.Move(nil), s.Moves...),
	}
	if s.Coeffs != nil {
		p.coeffs = *s.Coeffs
	}
	if s.ToMove > board.Black {
		return nil, fmt.Errorf("to move %d: %w", s.ToMove, ErrUnknownPiece)
	}
	for _, pl := range s.Pieces {
		if !pl.Square.Valid() {
			return nil, fmt.Errorf("%s %s at %d: %w", pl.Color, pl.Kind, pl.Square, ErrBadSquare)
		}
		if pl.Kind > board.King || pl.Color > board.Black {
			return nil, fmt.Errorf("piece %d color %d at %s: %w", pl.Kind, pl.Color, pl.Square, ErrUnknownPiece)
		}
		if p.squares[pl.Square] != nil {
			return nil, fmt.Errorf("%s: %w", pl.Square, ErrDuplicateSquare)
		}
		p.squares[pl.Square] = &Piece{Kind: pl.Kind, Color: pl.Color, Square: pl.Square}
	}
	for _, m := range p.moves {
		if m.IsCastle() {
			p.bonus += p.coeffs.Castle * m.Color.Sign()
		}
	}
	p.analyse(p.occupied())
	p.root = p
	return p, nil
}

func (p *Position) clone() *Position {
	c := *p
	c.moves = append(make([]board.Move, 0, len(p.moves)+1), p.moves...)
	return &c
}

func (p *Position) occupied() []board.Square {
	out := make([]board.Square, 0, 32)
	for sq, pc := range p.squares {
		if pc != nil {
			out = append(out, board.Square(sq))
		}
	}
	return out
}

// Geometry returns the table the position was analysed with.
func (p *Position) Geometry() *board.Geometry { return p.geo }

// Coeffs returns the scoring weights in use.
func (p *Position) Coeffs() Coeffs { return p.coeffs }

// ToMove returns the side to move.
func (p *Position) ToMove() board.Color { return p.toMove }

// Moves returns the history of applied moves.
func (p *Position) Moves() []board.Move { return append([]board.Move(nil), p.moves...) }

// Ply is the number of moves in the history.
func (p *Position) Ply() int { return len(p.moves) }

// LastMove returns the most recent move, if any.
func (p *Position) LastMove() (board.Move, bool) {
	if len(p.moves) == 0 {
		return board.Move{}, false
	}
	return p.moves[len(p.moves)-1], true
}

// CastleRights returns the wings color may still castle on.
func (p *Position) CastleRights(c board.Color) board.CastleRights { return p.castling[c] }

// PieceAt returns the piece on sq, or nil.
func (p *Position) PieceAt(sq board.Square) *Piece {
	if !sq.Valid() {
		return nil
	}
	return p.squares[sq]
}

// Pieces returns the occupied squares in square order.
func (p *Position) Pieces() []*Piece {
	out := make([]*Piece, 0, 32)
	for _, pc := range p.squares {
		if pc != nil {
			out = append(out, pc)
		}
	}
	return out
}

// Placements returns the bare piece layout in square order.
func (p *Position) Placements() []Placement {
	out := make([]Placement, 0, 32)
	for _, pc := range p.Pieces() {
		out = append(out, Placement{pc.Kind, pc.Color, pc.Square})
	}
	return out
}

// Score is the signed net score; positive favours white.
func (p *Position) Score() float64 { return p.score }

// Scores splits the net score per side; black's is the negation of white's.
func (p *Position) Scores() map[board.Color]float64 {
	return map[board.Color]float64{board.White: p.score, board.Black: -p.score}
}

// InCheck reports whether any piece of the other color attacks c's king.
func (p *Position) InCheck(c board.Color) bool {
	for _, pc := range p.squares {
		if pc != nil && pc.Color != c && pc.GivesCheck {
			return true
		}
	}
	return false
}

// Checked returns the side in check, preferring the side to move when the
// position is illegal and both are.
func (p *Position) Checked() (board.Color, bool) {
	if p.InCheck(p.toMove) {
		return p.toMove, true
	}
	if p.InCheck(p.toMove.Invert()) {
		return p.toMove.Invert(), true
	}
	return board.White, false
}

// Root returns the position this line was constructed from; Undo cannot go
// back past it.
func (p *Position) Root() *Position { return p.root }

// Undo returns the position with the last n moves taken back, replaying the
// remaining history from the position this line was constructed from.
func (p *Position) Undo(n int) (*Position, error) {
	base := len(p.root.moves)
	if n < 0 || n > len(p.moves)-base {
		return nil, fmt.Errorf("undo %d of %d: %w", n, len(p.moves)-base, ErrNothingToUndo)
	}
	q := p.root
	for _, m := range p.moves[base : len(p.moves)-n] {
		q = q.Apply(m)
	}
	return q, nil
}
