package board

import "fmt"

// Move encoding for persistence (pair of ints):
//
//	normal: (from, to), both 0-63
//	castle: (rook origin + CastleSentinel, king destination)
//
// The sentinel keeps the persisted move list a plain list of square pairs
// while still distinguishing the combined king+rook relocation.
const CastleSentinel = 100

// MoveKind tags the Move variant.
type MoveKind uint8

const (
	Normal MoveKind = iota
	Castle
)

// Move is either a normal relocation {From, To} or a castle {Color, Side}.
// For castles From/To hold the king's origin and destination.
type Move struct {
	Kind  MoveKind
	From  Square
	To    Square
	Color Color
	Side  CastleSide
}

// castleSquares indexed by [color][side].
type castleSquares struct {
	kingFrom, kingTo Square
	rookFrom, rookTo Square
	between          []Square
}

var castling = [2][2]castleSquares{
	White: {
		Kingside:  {kingFrom: 60, kingTo: 62, rookFrom: 63, rookTo: 61, between: []Square{61, 62}},
		Queenside: {kingFrom: 60, kingTo: 58, rookFrom: 56, rookTo: 59, between: []Square{57, 58, 59}},
	},
	Black: {
		Kingside:  {kingFrom: 4, kingTo: 6, rookFrom: 7, rookTo: 5, between: []Square{5, 6}},
		Queenside: {kingFrom: 4, kingTo: 2, rookFrom: 0, rookTo: 3, between: []Square{1, 2, 3}},
	},
}

// NewMove returns a normal move.
func NewMove(from, to Square) Move {
	return Move{Kind: Normal, From: from, To: to}
}

// NewCastle returns the castle for color on side.
func NewCastle(color Color, side CastleSide) Move {
	cs := castling[color][side]
	return Move{Kind: Castle, From: cs.kingFrom, To: cs.kingTo, Color: color, Side: side}
}

// IsCastle reports whether m is a combined king+rook move.
func (m Move) IsCastle() bool { return m.Kind == Castle }

// RookFrom returns the castling rook's origin.
func (m Move) RookFrom() Square { return castling[m.Color][m.Side].rookFrom }

// RookTo returns the castling rook's destination.
func (m Move) RookTo() Square { return castling[m.Color][m.Side].rookTo }

// Touched lists every square whose occupancy the move changes.
func (m Move) Touched() []Square {
	if m.Kind == Castle {
		cs := castling[m.Color][m.Side]
		return []Square{cs.kingFrom, cs.kingTo, cs.rookFrom, cs.rookTo}
	}
	return []Square{m.From, m.To}
}

// CastleHome returns the king and rook origins for a castle.
func CastleHome(color Color, side CastleSide) (king, rook Square) {
	cs := castling[color][side]
	return cs.kingFrom, cs.rookFrom
}

// CastleBetween returns the squares that must be empty for a castle.
func CastleBetween(color Color, side CastleSide) []Square {
	return castling[color][side].between
}

// RookHome reports which castling right a rook on sq belongs to.
func RookHome(sq Square) (Color, CastleSide, bool) {
	for _, c := range Colors {
		for _, s := range [2]CastleSide{Kingside, Queenside} {
			if castling[c][s].rookFrom == sq {
				return c, s, true
			}
		}
	}
	return White, Kingside, false
}

// Encode returns the persisted (from, to) pair, using the castle sentinel.
func (m Move) Encode() (from, to int) {
	if m.Kind == Castle {
		return int(m.RookFrom()) + CastleSentinel, int(m.To)
	}
	return int(m.From), int(m.To)
}

// DecodeMove parses a persisted (from, to) pair.
func DecodeMove(from, to int) (Move, error) {
	if from >= CastleSentinel {
		rook := Square(from - CastleSentinel)
		color, side, ok := RookHome(rook)
		if !ok {
			return Move{}, fmt.Errorf("castle sentinel %d: no rook home at %d", from, rook)
		}
		m := NewCastle(color, side)
		if int(m.To) != to {
			return Move{}, fmt.Errorf("castle sentinel %d: king destination %d, want %d", from, to, m.To)
		}
		return m, nil
	}
	if from < 0 || from > 63 || to < 0 || to > 63 {
		return Move{}, fmt.Errorf("move (%d, %d) off board", from, to)
	}
	return NewMove(Square(from), Square(to)), nil
}

// String renders coordinate notation, or O-O / O-O-O for castles.
func (m Move) String() string {
	if m.Kind == Castle {
		if m.Side == Queenside {
			return "O-O-O"
		}
		return "O-O"
	}
	return m.From.String() + m.To.String()
}
