package audit

import (
	"slices"
	"strings"
	"testing"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/notation"
	"github.com/magnanimus/magnanimus/internal/position"
)

var geo = board.NewGeometry()

func TestStartIsClean(t *testing.T) {
	r := Audit(position.Start(geo))
	if !r.Clean() {
		t.Errorf("start position: unsound %v, missing %v", r.Unsound, r.Missing)
	}
}

func TestCastleThroughCheck(t *testing.T) {
	// the f8 rook covers f1, which the king crosses
	p, err := notation.FromFEN(geo, "k4r2/8/8/8/8/8/8/4K2R w K - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	r := Audit(p)
	if !slices.Contains(r.Unsound, "e1g1") {
		t.Errorf("Unsound = %v, want e1g1", r.Unsound)
	}
	if slices.Contains(r.Unsound, "e1f1") {
		t.Error("e1f1 should already be filtered as self-check")
	}
}

func TestPromotionMissing(t *testing.T) {
	p, err := notation.FromFEN(geo, "7k/1P6/8/8/8/8/8/7K w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	r := Audit(p)
	if !slices.Contains(r.Unsound, "b7b8") {
		t.Errorf("Unsound = %v, want b7b8", r.Unsound)
	}
	promos := 0
	for _, m := range r.Missing {
		if strings.HasPrefix(m, "b7b8") && len(m) == 5 {
			promos++
		}
	}
	if promos != 4 {
		t.Errorf("Missing = %v, want four promotions", r.Missing)
	}
	if !slices.IsSorted(r.Missing) {
		t.Errorf("Missing not sorted: %v", r.Missing)
	}
}

func TestSkipsPositionsChessCannotHave(t *testing.T) {
	tests := []struct {
		name   string
		pieces []position.Placement
	}{
		{"no white king", []position.Placement{
			{Kind: board.Rook, Color: board.White, Square: 0},
			{Kind: board.King, Color: board.Black, Square: 7},
		}},
		{"no kings", []position.Placement{
			{Kind: board.Queen, Color: board.White, Square: 27},
		}},
		{"two black kings", []position.Placement{
			{Kind: board.King, Color: board.White, Square: 63},
			{Kind: board.King, Color: board.Black, Square: 7},
			{Kind: board.King, Color: board.Black, Square: 0},
		}},
		{"pawn on the back rank", []position.Placement{
			{Kind: board.King, Color: board.White, Square: 63},
			{Kind: board.King, Color: board.Black, Square: 7},
			{Kind: board.Pawn, Color: board.White, Square: 3},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := position.New(geo, position.Setup{Pieces: tt.pieces})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			r := Audit(p)
			if r.Skipped == "" {
				t.Errorf("Audit() compared an impossible position: %+v", r)
			}
			if r.Clean() {
				t.Error("skipped report is Clean")
			}
			if len(r.Unsound) != 0 || len(r.Missing) != 0 {
				t.Errorf("skipped report lists moves: %+v", r)
			}
		})
	}
}
