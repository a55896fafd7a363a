package board

import (
	"reflect"
	"testing"
)

func TestGeometryDiagonals(t *testing.T) {
	g := NewGeometry()

	tests := []struct {
		name string
		sq   Square
		want [][]Square
	}{
		{"centre", SquareAt(4, 4), [][]Square{
			{45, 54, 63},
			{43, 50, 57},
			{29, 22, 15},
			{27, 18, 9, 0},
		}},
		{"near edge", SquareAt(1, 2), [][]Square{
			{19, 28, 37, 46, 55},
			{17, 24},
			{3},
			{1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Rays(tt.sq, Bishop)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Rays(%d, bishop) = %v, want %v", tt.sq, got, tt.want)
			}
		})
	}
}

func TestGeometryQueenIsRookPlusBishop(t *testing.T) {
	g := NewGeometry()
	for sq := Square(0); sq < 64; sq++ {
		q := g.Rays(sq, Queen)
		if len(q) != len(g.Rays(sq, Rook))+len(g.Rays(sq, Bishop)) {
			t.Fatalf("square %d: queen has %d rays", sq, len(q))
		}
		if len(g.Leaps(sq, King)) != len(q) {
			t.Fatalf("square %d: king has %d targets, queen %d rays", sq, len(g.Leaps(sq, King)), len(q))
		}
	}
}

func TestGeometryLeapers(t *testing.T) {
	g := NewGeometry()

	tests := []struct {
		name string
		sq   Square
		kind Kind
		want []Square
	}{
		{"knight corner", 0, Knight, []Square{17, 10}},
		{"knight centre", SquareAt(4, 4), Knight, []Square{53, 51, 21, 19, 46, 30, 42, 26}},
		{"king h1", 63, King, []Square{55, 62, 54}},
		{"king h8", 7, King, []Square{15, 6, 14}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Leaps(tt.sq, tt.kind)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Leaps(%d, %s) = %v, want %v", tt.sq, tt.kind, got, tt.want)
			}
		})
	}
}

func TestGeometryPawns(t *testing.T) {
	g := NewGeometry()

	tests := []struct {
		name      string
		sq        Square
		color     Color
		ahead     []Square
		diagonals []Square
	}{
		{"white home", 52, White, []Square{44, 36}, []Square{45, 43}},
		{"white moved", 44, White, []Square{36}, []Square{37, 35}},
		{"black home a-file", 8, Black, []Square{16, 24}, []Square{17}},
		{"white last rank", 4, White, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.PawnAhead(tt.sq, tt.color); !reflect.DeepEqual(got, tt.ahead) {
				t.Errorf("PawnAhead = %v, want %v", got, tt.ahead)
			}
			if got := g.PawnDiagonal(tt.sq, tt.color); !reflect.DeepEqual(got, tt.diagonals) {
				t.Errorf("PawnDiagonal = %v, want %v", got, tt.diagonals)
			}
		})
	}
}
