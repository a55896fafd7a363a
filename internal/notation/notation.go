// Package notation converts between engine positions and moves and the
// notations people and other programs use: traditional square names,
// coordinate and algebraic moves, and FEN.
package notation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/position"
)

var (
	ErrBadSquare = errors.New("bad square")
	ErrBadMove   = errors.New("bad move")
	ErrBadFEN    = errors.New("bad fen")
)

// ParseSquare reads a traditional square name: file a-h is the column and
// rank digit 1-8 is row 8-rank.
func ParseSquare(s string) (board.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return board.NoSquare, fmt.Errorf("%q: %w", s, ErrBadSquare)
	}
	return board.SquareAt(8-int(s[1]-'0'), int(s[0]-'a')), nil
}

// FormatSquare returns the traditional name of sq.
func FormatSquare(sq board.Square) string { return sq.String() }

// external squares count from a1 upward
func toExt(sq board.Square) chess.Square {
	return chess.Square((7-sq.Rank())*8 + sq.File())
}

func fromExt(sq chess.Square) board.Square {
	return board.SquareAt(7-int(sq)/8, int(sq)%8)
}

var pieceTypes = [...]chess.PieceType{
	board.Pawn:   chess.Pawn,
	board.Knight: chess.Knight,
	board.Bishop: chess.Bishop,
	board.Rook:   chess.Rook,
	board.Queen:  chess.Queen,
	board.King:   chess.King,
}

func extColor(c board.Color) chess.Color {
	if c == board.Black {
		return chess.Black
	}
	return chess.White
}

func extPiece(pc *position.Piece) chess.Piece {
	return chess.NewPiece(pieceTypes[pc.Kind], extColor(pc.Color))
}

func fromPieceType(t chess.PieceType) (board.Kind, bool) {
	for k, pt := range pieceTypes {
		if pt == t {
			return board.Kind(k), true
		}
	}
	return board.Pawn, false
}

// FEN renders p in Forsyth-Edwards notation. Castling rights are listed only
// while the king and rook still stand on their home squares; there is never
// an en passant square.
func FEN(p *position.Position) string {
	pieces := make(map[chess.Square]chess.Piece, 32)
	for _, pc := range p.Pieces() {
		pieces[toExt(pc.Square)] = extPiece(pc)
	}
	turn := "w"
	if p.ToMove() == board.Black {
		turn = "b"
	}
	var castling strings.Builder
	for _, c := range board.Colors {
		for _, side := range p.CastleRights(c).Sides() {
			if !homePieces(p, c, side) {
				continue
			}
			letter := byte('k')
			if side == board.Queenside {
				letter = 'q'
			}
			if c == board.White {
				letter -= 'a' - 'A'
			}
			castling.WriteByte(letter)
		}
	}
	rights := castling.String()
	if rights == "" {
		rights = "-"
	}
	return fmt.Sprintf("%s %s %s - 0 %d", chess.NewBoard(pieces).String(), turn, rights, p.Ply()/2+1)
}

func homePieces(p *position.Position, c board.Color, side board.CastleSide) bool {
	king, rook := board.CastleHome(c, side)
	k, r := p.PieceAt(king), p.PieceAt(rook)
	return k != nil && k.Kind == board.King && k.Color == c &&
		r != nil && r.Kind == board.Rook && r.Color == c
}

// FromFEN builds a position from a FEN string. En passant and the move
// counters are ignored.
func FromFEN(geo *board.Geometry, fen string) (*position.Position, error) {
	ext, err := extPosition(fen)
	if err != nil {
		return nil, err
	}
	s := position.Setup{ToMove: board.White}
	if ext.Turn() == chess.Black {
		s.ToMove = board.Black
	}
	for sq, pc := range ext.Board().SquareMap() {
		k, ok := fromPieceType(pc.Type())
		if !ok {
			return nil, fmt.Errorf("%s: %w", sq, position.ErrUnknownPiece)
		}
		c := board.White
		if pc.Color() == chess.Black {
			c = board.Black
		}
		s.Pieces = append(s.Pieces, position.Placement{Kind: k, Color: c, Square: fromExt(sq)})
	}
	cr := ext.CastleRights()
	for _, c := range board.Colors {
		if cr.CanCastle(extColor(c), chess.KingSide) {
			s.Castling[c] = s.Castling[c].With(board.Kingside)
		}
		if cr.CanCastle(extColor(c), chess.QueenSide) {
			s.Castling[c] = s.Castling[c].With(board.Queenside)
		}
	}
	return position.New(geo, s)
}

func extPosition(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrBadFEN)
	}
	return chess.NewGame(opt).Position(), nil
}

// extMove finds m among the fully legal moves of p. Moves the engine allows
// but chess forbids are not found.
func extMove(p *position.Position, m board.Move) (*chess.Position, *chess.Move, bool) {
	ext, err := extPosition(FEN(p))
	if err != nil {
		return nil, nil, false
	}
	from, to := toExt(m.From), toExt(m.To)
	for _, em := range ext.ValidMoves() {
		if em.S1() == from && em.S2() == to {
			return ext, em, true
		}
	}
	return ext, nil, false
}

// SAN renders m in standard algebraic notation, or in coordinate notation
// when m is not a legal chess move in p.
func SAN(p *position.Position, m board.Move) string {
	if san, ok := ChessSAN(p, m); ok {
		return san
	}
	return m.String()
}

// ChessSAN renders m in standard algebraic notation and reports whether m is
// a legal move under full chess rules.
func ChessSAN(p *position.Position, m board.Move) (string, bool) {
	ext, em, ok := extMove(p, m)
	if !ok {
		return "", false
	}
	return chess.AlgebraicNotation{}.Encode(ext, em), true
}

// ParseMove reads a move typed against p: coordinates ("e2e4", "e2-e4"),
// square indices ("52 36"), castling ("O-O", "0-0-0") or algebraic notation
// ("Nf3", "exd5"). The result must be one of p's legal moves.
func ParseMove(p *position.Position, text string) (board.Move, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimRight(s, "+#!?")
	if s == "" {
		return board.Move{}, fmt.Errorf("empty move: %w", ErrBadMove)
	}
	m, err := parseMove(p, s)
	if err != nil {
		return board.Move{}, fmt.Errorf("%q: %w", text, err)
	}
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
		return board.Move{}, fmt.Errorf("%q (%s): %w", text, m, position.ErrIllegalMove)
	}
	return m, nil
}

func parseMove(p *position.Position, s string) (board.Move, error) {
	switch strings.ToUpper(s) {
	case "O-O", "0-0":
		return board.NewCastle(p.ToMove(), board.Kingside), nil
	case "O-O-O", "0-0-0":
		return board.NewCastle(p.ToMove(), board.Queenside), nil
	}
	if m, ok := parseIndices(s); ok {
		return m, nil
	}
	if m, ok := parseCoordinates(s); ok {
		return m, nil
	}
	ext, err := extPosition(FEN(p))
	if err != nil {
		return board.Move{}, err
	}
	em, err := chess.AlgebraicNotation{}.Decode(ext, s)
	if err != nil {
		return board.Move{}, fmt.Errorf("%v: %w", err, ErrBadMove)
	}
	switch {
	case em.HasTag(chess.KingSideCastle):
		return board.NewCastle(p.ToMove(), board.Kingside), nil
	case em.HasTag(chess.QueenSideCastle):
		return board.NewCastle(p.ToMove(), board.Queenside), nil
	}
	return board.NewMove(fromExt(em.S1()), fromExt(em.S2())), nil
}

func parseCoordinates(s string) (board.Move, bool) {
	s = strings.NewReplacer("-", "", " ", "", "x", "").Replace(strings.ToLower(s))
	if len(s) != 4 {
		return board.Move{}, false
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return board.Move{}, false
	}
	to, err := ParseSquare(s[2:])
	if err != nil {
		return board.Move{}, false
	}
	return board.NewMove(from, to), true
}

func parseIndices(s string) (board.Move, bool) {
	f := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '-' })
	if len(f) != 2 {
		return board.Move{}, false
	}
	from, err1 := strconv.Atoi(f[0])
	to, err2 := strconv.Atoi(f[1])
	if err1 != nil || err2 != nil {
		return board.Move{}, false
	}
	m, err := board.DecodeMove(from, to)
	if err != nil {
		return board.Move{}, false
	}
	return m, true
}
