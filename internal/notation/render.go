package notation

import (
	"fmt"
	"strings"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/position"
)

// Render draws p as text, white at the bottom. Ranks and files are labelled
// on the west and south edges; square indices on the north (column) and east
// (row start) edges. Highlighted squares are bracketed.
func Render(p *position.Position, highlights ...board.Square) string {
	var lit [64]bool
	for _, sq := range highlights {
		if sq.Valid() {
			lit[sq] = true
		}
	}
	var b strings.Builder
	b.WriteString("    ")
	for f := 0; f < 8; f++ {
		fmt.Fprintf(&b, " %d ", f)
	}
	b.WriteByte('\n')
	for r := 0; r < 8; r++ {
		fmt.Fprintf(&b, " %d  ", 8-r)
		for f := 0; f < 8; f++ {
			sq := board.SquareAt(r, f)
			glyph := "·"
			if (r+f)%2 == 1 {
				glyph = " "
			}
			if pc := p.PieceAt(sq); pc != nil {
				glyph = extPiece(pc).String()
			}
			if lit[sq] {
				fmt.Fprintf(&b, "[%s]", glyph)
			} else {
				fmt.Fprintf(&b, " %s ", glyph)
			}
		}
		fmt.Fprintf(&b, "  %d\n", r*8)
	}
	b.WriteString("    ")
	for f := 0; f < 8; f++ {
		fmt.Fprintf(&b, " %c ", 'a'+f)
	}
	b.WriteByte('\n')
	return b.String()
}

// Status summarises the side to move, the scores and any check.
func Status(p *position.Position) string {
	s := fmt.Sprintf("%s to move, score %+.2f", p.ToMove(), p.Score())
	if c, ok := p.Checked(); ok {
		s += fmt.Sprintf(", %s in check", c)
	}
	return s
}

// Explain describes how the piece on sq contributes to the score: the squares
// behind each term and the term's value.
func Explain(p *position.Position, sq board.Square) (string, bool) {
	pc, terms, ok := p.Explain(sq)
	if !ok {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s on %s: score %+.2f\n", pc.Color, pc.Kind, pc.Square, terms.Total)
	fmt.Fprintf(&b, "  free      %-24s %+.2f\n", squareList(pc.Free), terms.Free)
	fmt.Fprintf(&b, "  defending %-24s %+.2f\n", squareList(pc.Defending), terms.Defending)
	fmt.Fprintf(&b, "  attacking %-24s %+.2f\n", squareList(pc.Attacking), terms.Attacking)
	if pc.GivesCheck {
		fmt.Fprintf(&b, "  gives check %+.2f\n", terms.Check)
	}
	return b.String(), true
}

func squareList(sqs []board.Square) string {
	if len(sqs) == 0 {
		return "-"
	}
	names := make([]string, len(sqs))
	for i, sq := range sqs {
		names[i] = sq.String()
	}
	return strings.Join(names, " ")
}
