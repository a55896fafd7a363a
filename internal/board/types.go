// Package board holds the value types shared by the engine: squares, colors,
// piece kinds, castling rights, moves and the empty-board geometry table.
package board

import (
	"fmt"
	"strings"
)

// Square is a board cell index, rank*8+file. Rank 0 is the top of the board
// (black's back rank), so a8=0, h8=7, a1=56 and h1=63.
type Square int8

// NoSquare marks an absent square.
const NoSquare Square = -1

// SquareAt returns the square on the given rank (0 = top) and file (0 = a).
func SquareAt(rank, file int) Square {
	return Square(rank*8 + file)
}

func (s Square) Rank() int { return int(s) / 8 }
func (s Square) File() int { return int(s) % 8 }

// Valid reports whether s is on the board.
func (s Square) Valid() bool { return s >= 0 && s < 64 }

// String returns the traditional name of the square (e.g. "e4").
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+s.File(), 8-s.Rank())
}

// Color is a side.
type Color uint8

const (
	White Color = iota
	Black
)

// Colors lists both sides in turn order.
var Colors = [2]Color{White, Black}

// Invert returns the other side.
func (c Color) Invert() Color { return c ^ 1 }

// Sign is +1 for white and -1 for black; net scores favour white when positive.
func (c Color) Sign() float64 {
	if c == Black {
		return -1
	}
	return 1
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// ParseColor accepts "white"/"black" and their initials.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("unknown color %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Kind is a piece type.
type Kind uint8

const (
	Pawn Kind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"pawn", "knight", "bishop", "rook", "queen", "king"}
var kindCodes = [...]byte{'p', 'n', 'b', 'r', 'q', 'k'}
var baseValues = [...]float64{1, 3, 3, 5, 9, 0}

// BaseValue is the material value used by the scoring heuristic.
func (k Kind) BaseValue() float64 { return baseValues[k] }

// Code is the single lowercase letter for the kind.
func (k Kind) Code() byte { return kindCodes[k] }

// Slides reports whether the kind moves along rays.
func (k Kind) Slides() bool { return k == Bishop || k == Rook || k == Queen }

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind accepts full names ("knight") and single-letter codes ("n").
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if s == name || (len(s) == 1 && s[0] == kindCodes[i]) {
			return Kind(i), nil
		}
	}
	return Pawn, fmt.Errorf("unknown piece %q", s)
}

// CastleSide is a castling wing.
type CastleSide uint8

const (
	Kingside CastleSide = iota
	Queenside
)

func (s CastleSide) String() string {
	if s == Queenside {
		return "queenside"
	}
	return "kingside"
}

// ParseCastleSide accepts "kingside"/"queenside" and "k"/"q".
func ParseCastleSide(s string) (CastleSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kingside", "k":
		return Kingside, nil
	case "queenside", "q":
		return Queenside, nil
	}
	return Kingside, fmt.Errorf("unknown castling side %q", s)
}

// CastleRights is the set of wings one color may still castle on.
type CastleRights uint8

const (
	NoCastling   CastleRights = 0
	BothSides    CastleRights = 1<<Kingside | 1<<Queenside
	KingsideOnly CastleRights = 1 << Kingside
)

func (r CastleRights) Has(side CastleSide) bool { return r&(1<<side) != 0 }

func (r CastleRights) With(side CastleSide) CastleRights { return r | 1<<side }

func (r CastleRights) Without(side CastleSide) CastleRights { return r &^ (1 << side) }

// Sides lists the wings still available, kingside first.
func (r CastleRights) Sides() []CastleSide {
	var out []CastleSide
	for _, s := range [2]CastleSide{Kingside, Queenside} {
		if r.Has(s) {
			out = append(out, s)
		}
	}
	return out
}
