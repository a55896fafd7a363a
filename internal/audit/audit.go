// Package audit measures the engine's partial rule set against a complete
// chess move generator. It reports differences; it does not change what the
// engine plays.
package audit

import (
	"fmt"
	"slices"

	"github.com/dylhunn/dragontoothmg"
	"golang.org/x/exp/maps"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/notation"
	"github.com/magnanimus/magnanimus/internal/position"
)

// Report lists, in coordinate notation, the moves on which the engine and
// full chess rules disagree for the side to move.
type Report struct {
	FEN     string   `json:"fen"`
	Unsound []string `json:"unsound"`           // offered by the engine, forbidden by chess
	Missing []string `json:"missing"`           // allowed by chess, never offered (en passant, promotion, ...)
	Skipped string   `json:"skipped,omitempty"` // why no comparison was made
}

// Clean reports whether the two move sets were compared and agree.
func (r Report) Clean() bool {
	return r.Skipped == "" && len(r.Unsound) == 0 && len(r.Missing) == 0
}

// Audit compares the self-check-filtered moves of p with the full-rules moves
// of the same position. Positions chess cannot have, such as a side without a
// king, are reported as skipped.
func Audit(p *position.Position) Report {
	fen := notation.FEN(p)

	r := Report{FEN: fen, Unsound: []string{}, Missing: []string{}}
	if why := unsupported(p); why != "" {
		r.Skipped = why
		return r
	}
	full, err := fullRules(fen)
	if err != nil {
		r.Skipped = err.Error()
		return r
	}

	ours := make(map[string]bool)
	for _, m := range p.SafeMoves() {
		ours[m.From.String()+m.To.String()] = true
	}
	for _, k := range sortedKeys(ours) {
		if !full[k] {
			r.Unsound = append(r.Unsound, k)
		}
	}
	for _, k := range sortedKeys(full) {
		if !ours[k] {
			r.Missing = append(r.Missing, k)
		}
	}
	return r
}

// unsupported names what keeps p from being a chess position the reference
// generator can read, or returns "".
func unsupported(p *position.Position) string {
	var kings [2]int
	for _, pc := range p.Pieces() {
		switch {
		case pc.Kind == board.King:
			kings[pc.Color]++
		case pc.Kind == board.Pawn && (pc.Square.Rank() == 0 || pc.Square.Rank() == 7):
			return fmt.Sprintf("%s pawn on %s", pc.Color, pc.Square)
		}
	}
	for _, c := range board.Colors {
		if kings[c] != 1 {
			return fmt.Sprintf("%s has %d kings", c, kings[c])
		}
	}
	return ""
}

func fullRules(fen string) (moves map[string]bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reference generator failed: %v", r)
		}
	}()
	moves = make(map[string]bool)
	b := dragontoothmg.ParseFen(fen)
	for _, m := range b.GenerateLegalMoves() {
		moves[m.String()] = true
	}
	return moves, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
