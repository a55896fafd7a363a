package position

import (
	"fmt"

	"github.com/magnanimus/magnanimus/internal/board"
)

// Apply returns the position after m. Legality is not checked: a move from an
// empty square only passes the turn, and the search filters lines that leave
// the mover in check. Only pieces whose reachability can have changed are
// re-analysed; all others are shared with p.
func (p *Position) Apply(m board.Move) *Position {
	q := p.clone()
	changed := m.Touched()
	scope := p.affected(changed)

	if m.IsCastle() {
		q.relocate(m.From, m.To)
		q.relocate(m.RookFrom(), m.RookTo())
		q.castling[m.Color] = board.NoCastling
		q.bonus += q.coeffs.Castle * m.Color.Sign()
		scope = append(scope, m.To, m.RookTo())
	} else if mover := p.squares[m.From]; mover != nil {
		q.relocate(m.From, m.To)
		if mover.Kind == board.King {
			q.castling[mover.Color] = board.NoCastling
		}
		for _, sq := range changed {
			if c, side, ok := board.RookHome(sq); ok {
				q.castling[c] = q.castling[c].Without(side)
			}
		}
		scope = append(scope, m.To)
	}

	q.analyse(scope)
	q.toMove = p.toMove.Invert()
	q.moves = append(q.moves, m)
	return q
}

// relocate moves the piece on from to to, replacing any occupant of to.
func (p *Position) relocate(from, to board.Square) {
	pc := p.squares[from]
	if pc == nil {
		return
	}
	p.squares[from] = nil
	p.squares[to] = &Piece{Kind: pc.Kind, Color: pc.Color, Square: to}
}

// affected lists the pieces, other than those standing on changed squares,
// whose derived sets touch a changed square. Pawns are also included when a
// changed square lies on their forward path, since a freed square there is
// not recorded in any set.
func (p *Position) affected(changed []board.Square) []board.Square {
	var mask [64]bool
	for _, sq := range changed {
		if sq.Valid() {
			mask[sq] = true
		}
	}
	hits := func(sqs []board.Square) bool {
		for _, sq := range sqs {
			if mask[sq] {
				return true
			}
		}
		return false
	}
	var out []board.Square
	for i, pc := range p.squares {
		if pc == nil || mask[i] {
			continue
		}
		if hits(pc.Free) || hits(pc.Attacking) || hits(pc.Defending) || hits(pc.JustCovering) ||
			(pc.Kind == board.Pawn && hits(p.geo.PawnAhead(pc.Square, pc.Color))) {
			out = append(out, pc.Square)
		}
	}
	return out
}

// LegalMoves returns every move available to the side to move: each piece's
// free and attacking squares, plus castles whose right is held, whose king
// and rook stand on their home squares and whose between squares are empty.
// Moves that leave the king in check are included.
func (p *Position) LegalMoves() []board.Move {
	return p.MovesFor(p.toMove)
}

// MovesFor is LegalMoves for an arbitrary color.
func (p *Position) MovesFor(c board.Color) []board.Move {
	var out []board.Move
	for _, pc := range p.squares {
		if pc == nil || pc.Color != c {
			continue
		}
		for _, sq := range pc.Free {
			out = append(out, board.NewMove(pc.Square, sq))
		}
		for _, sq := range pc.Attacking {
			out = append(out, board.NewMove(pc.Square, sq))
		}
	}
	for _, side := range p.castling[c].Sides() {
		if p.canCastle(c, side) {
			out = append(out, board.NewCastle(c, side))
		}
	}
	return out
}

func (p *Position) canCastle(c board.Color, side board.CastleSide) bool {
	king, rook := board.CastleHome(c, side)
	k, r := p.squares[king], p.squares[rook]
	if k == nil || k.Kind != board.King || k.Color != c {
		return false
	}
	if r == nil || r.Kind != board.Rook || r.Color != c {
		return false
	}
	for _, sq := range board.CastleBetween(c, side) {
		if p.squares[sq] != nil {
			return false
		}
	}
	return true
}

// IsLegal reports whether m is among LegalMoves.
func (p *Position) IsLegal(m board.Move) bool {
	for _, lm := range p.LegalMoves() {
		if lm == m {
			return true
		}
	}
	return false
}

// Play applies m after checking it against LegalMoves. A castle may be given
// as the king's two-square move.
func (p *Position) Play(m board.Move) (*Position, error) {
	if !m.IsCastle() {
		if pc := p.PieceAt(m.From); pc != nil && pc.Kind == board.King {
			for _, side := range [2]board.CastleSide{board.Kingside, board.Queenside} {
				if c := board.NewCastle(pc.Color, side); c.From == m.From && c.To == m.To {
					m = c
				}
			}
		}
	}
	if !p.IsLegal(m) {
		return nil, fmt.Errorf("%s: %w", m, ErrIllegalMove)
	}
	return p.Apply(m), nil
}

// SafeMoves is LegalMoves without the moves that leave the mover in check.
func (p *Position) SafeMoves() []board.Move {
	var out []board.Move
	for _, m := range p.LegalMoves() {
		if !p.Apply(m).InCheck(p.toMove) {
			out = append(out, m)
		}
	}
	return out
}
