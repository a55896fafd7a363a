package position

import (
	"encoding/json"
	"fmt"

	"github.com/magnanimus/magnanimus/internal/board"
)

// State is the persisted form of a position. Moves use the (from, to) pair
// encoding with the castle sentinel.
type State struct {
	Moves          [][2]int     `json:"moves"`
	ToMove         board.Color  `json:"to_move"`
	LegalCastlings Castlings    `json:"legal_castlings"`
	PieceTuples    []PieceTuple `json:"piece_tuples"`
}

// Castlings lists the wings each color may still castle on.
type Castlings struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// PieceTuple is one placement, serialised as ["rook", "white", 63].
type PieceTuple struct {
	Piece  string
	Color  string
	Square int
}

func (t PieceTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Piece, t.Color, t.Square})
}

func (t *PieceTuple) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("piece tuple: want 3 fields, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.Piece); err != nil {
		return fmt.Errorf("piece tuple piece: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.Color); err != nil {
		return fmt.Errorf("piece tuple color: %w", err)
	}
	if err := json.Unmarshal(raw[2], &t.Square); err != nil {
		return fmt.Errorf("piece tuple square: %w", err)
	}
	return nil
}

func castlingNames(r board.CastleRights) []string {
	out := []string{}
	for _, s := range r.Sides() {
		out = append(out, s.String())
	}
	return out
}

func parseCastling(names []string) (board.CastleRights, error) {
	var r board.CastleRights
	for _, n := range names {
		s, err := board.ParseCastleSide(n)
		if err != nil {
			return 0, err
		}
		r = r.With(s)
	}
	return r, nil
}

// Snapshot returns the persisted form of p.
func (p *Position) Snapshot() State {
	st := State{
		Moves:  make([][2]int, 0, len(p.moves)),
		ToMove: p.toMove,
		LegalCastlings: Castlings{
			White: castlingNames(p.castling[board.White]),
			Black: castlingNames(p.castling[board.Black]),
		},
		PieceTuples: make([]PieceTuple, 0, 32),
	}
	for _, m := range p.moves {
		from, to := m.Encode()
		st.Moves = append(st.Moves, [2]int{from, to})
	}
	for _, pc := range p.Pieces() {
		st.PieceTuples = append(st.PieceTuples, PieceTuple{pc.Kind.String(), pc.Color.String(), int(pc.Square)})
	}
	return st
}

// FromState rebuilds a position from its persisted form. The move history is
// restored without being replayed; castles in it contribute their bonus.
func FromState(geo *board.Geometry, st State, coeffs *Coeffs) (*Position, error) {
	s := Setup{ToMove: st.ToMove, Coeffs: coeffs}
	for _, t := range st.PieceTuples {
		k, err := board.ParseKind(t.Piece)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrUnknownPiece)
		}
		c, err := board.ParseColor(t.Color)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrUnknownPiece)
		}
		if t.Square < 0 || t.Square > 63 {
			return nil, fmt.Errorf("%s %s at %d: %w", t.Color, t.Piece, t.Square, ErrBadSquare)
		}
		s.Pieces = append(s.Pieces, Placement{k, c, board.Square(t.Square)})
	}
	var err error
	if s.Castling[board.White], err = parseCastling(st.LegalCastlings.White); err != nil {
		return nil, fmt.Errorf("white castling: %w", err)
	}
	if s.Castling[board.Black], err = parseCastling(st.LegalCastlings.Black); err != nil {
		return nil, fmt.Errorf("black castling: %w", err)
	}
	for i, mv := range st.Moves {
		m, err := board.DecodeMove(mv[0], mv[1])
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}
		s.Moves = append(s.Moves, m)
	}
	return New(geo, s)
}
