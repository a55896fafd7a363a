package position

import (
	"github.com/magnanimus/magnanimus/internal/board"
)

// Analyze returns a copy of p with the derived data of the given squares
// recomputed against current occupancy. With no squares every occupied
// square is analysed. Empty squares in the list are ignored.
func (p *Position) Analyze(squares ...board.Square) *Position {
	q := p.clone()
	if len(squares) == 0 {
		squares = q.occupied()
	}
	q.analyse(squares)
	return q
}

// analyse recomputes the listed squares in place; only used on positions not
// yet handed out.
func (p *Position) analyse(squares []board.Square) {
	for _, sq := range squares {
		if !sq.Valid() || p.squares[sq] == nil {
			continue
		}
		p.squares[sq] = p.analysePiece(p.squares[sq])
	}
	p.score = p.bonus
	for _, pc := range p.squares {
		if pc != nil {
			p.score += pc.Score
		}
	}
}

type classifier struct {
	p  *Position
	pc *Piece
}

// classify files an occupied target as attacking or defending, or an empty
// one as free. It reports whether the square was occupied.
func (c classifier) classify(sq board.Square) bool {
	t := c.p.squares[sq]
	switch {
	case t == nil:
		c.pc.Free = append(c.pc.Free, sq)
		return false
	case t.Color == c.pc.Color:
		c.pc.Defending = append(c.pc.Defending, sq)
	default:
		c.pc.Attacking = append(c.pc.Attacking, sq)
	}
	return true
}

func (p *Position) analysePiece(old *Piece) *Piece {
	pc := &Piece{Kind: old.Kind, Color: old.Color, Square: old.Square}
	c := classifier{p: p, pc: pc}
	switch {
	case pc.Kind.Slides():
		for _, ray := range p.geo.Rays(pc.Square, pc.Kind) {
			for _, sq := range ray {
				if c.classify(sq) {
					break
				}
			}
		}
	case pc.Kind == board.Pawn:
		for _, sq := range p.geo.PawnAhead(pc.Square, pc.Color) {
			if p.squares[sq] != nil {
				break
			}
			pc.Free = append(pc.Free, sq)
		}
		for _, sq := range p.geo.PawnDiagonal(pc.Square, pc.Color) {
			if p.squares[sq] == nil {
				pc.JustCovering = append(pc.JustCovering, sq)
				continue
			}
			c.classify(sq)
		}
	default:
		for _, sq := range p.geo.Leaps(pc.Square, pc.Kind) {
			c.classify(sq)
		}
	}
	pc.Score = p.pieceTerms(pc).Total
	return pc
}

// Terms is the breakdown of one piece's score.
type Terms struct {
	Free      float64 `json:"free"`
	Defending float64 `json:"defending"`
	Attacking float64 `json:"attacking"`
	Check     float64 `json:"check"`
	Total     float64 `json:"total"` // signed
}

func (p *Position) pieceTerms(pc *Piece) Terms {
	cf := p.coeffs
	t := Terms{
		Free:      pc.Kind.BaseValue() * cf.Free * float64(len(pc.Free)) / 2,
		Defending: cf.Defending * float64(len(pc.Defending)),
	}
	pc.GivesCheck = false
	for _, sq := range pc.Attacking {
		target := p.squares[sq]
		if target.Kind == board.King {
			pc.GivesCheck = true
			continue
		}
		t.Attacking += target.Kind.BaseValue() * cf.Attacking
	}
	if pc.GivesCheck {
		t.Check = cf.Check
	}
	t.Total = (t.Free + t.Defending + t.Attacking + t.Check) * pc.Color.Sign()
	return t
}

// Explain returns the score terms of the piece on sq as currently analysed.
func (p *Position) Explain(sq board.Square) (*Piece, Terms, bool) {
	pc := p.PieceAt(sq)
	if pc == nil {
		return nil, Terms{}, false
	}
	cp := *pc
	return pc, p.pieceTerms(&cp), true
}
