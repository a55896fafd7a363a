package board

// Geometry holds, for every square, the squares each piece kind reaches on an
// empty board. It is built once and only read afterwards, so a single table
// can be shared by every position and goroutine.
type Geometry struct {
	rook     [64][][]Square
	bishop   [64][][]Square
	queen    [64][][]Square
	knight   [64][]Square
	king     [64][]Square
	ahead    [2][64][]Square
	diagonal [2][64][]Square
}

// NewGeometry computes the table for the 8x8 board.
func NewGeometry() *Geometry {
	g := &Geometry{}
	for sq := Square(0); sq < 64; sq++ {
		r, f := sq.Rank(), sq.File()
		g.rook[sq] = rays(r, f, rookDirs)
		g.bishop[sq] = rays(r, f, bishopDirs)
		g.queen[sq] = append(append([][]Square{}, g.rook[sq]...), g.bishop[sq]...)
		for _, ray := range g.queen[sq] {
			g.king[sq] = append(g.king[sq], ray[0])
		}
		g.knight[sq] = leaps(r, f, knightSteps)
		for _, c := range Colors {
			g.ahead[c][sq], g.diagonal[c][sq] = pawnDomain(c, r, f)
		}
	}
	return g
}

type step struct{ dr, df int }

var (
	rookDirs    = []step{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs  = []step{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightSteps = []step{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {-1, 2}, {1, -2}, {-1, -2}}
)

func onBoard(r, f int) bool { return r >= 0 && r < 8 && f >= 0 && f < 8 }

// rays walks outward in each direction; empty rays (edge squares) are dropped.
func rays(r, f int, dirs []step) [][]Square {
	var out [][]Square
	for _, d := range dirs {
		var ray []Square
		for nr, nf := r+d.dr, f+d.df; onBoard(nr, nf); nr, nf = nr+d.dr, nf+d.df {
			ray = append(ray, SquareAt(nr, nf))
		}
		if len(ray) > 0 {
			out = append(out, ray)
		}
	}
	return out
}

func leaps(r, f int, steps []step) []Square {
	var out []Square
	for _, s := range steps {
		if onBoard(r+s.dr, f+s.df) {
			out = append(out, SquareAt(r+s.dr, f+s.df))
		}
	}
	return out
}

// pawnDomain returns the forward (non-capturing) list, including the double
// step from the home rank, and the capture diagonals.
func pawnDomain(c Color, r, f int) (ahead, diagonal []Square) {
	dir, home := 1, 1
	if c == White {
		dir, home = -1, 6
	}
	if onBoard(r+dir, f) {
		ahead = append(ahead, SquareAt(r+dir, f))
		if r == home {
			ahead = append(ahead, SquareAt(r+2*dir, f))
		}
	}
	for _, df := range []int{1, -1} {
		if onBoard(r+dir, f+df) {
			diagonal = append(diagonal, SquareAt(r+dir, f+df))
		}
	}
	return ahead, diagonal
}

// Rays returns the ordered outward rays for a sliding kind, nil otherwise.
func (g *Geometry) Rays(sq Square, k Kind) [][]Square {
	switch k {
	case Rook:
		return g.rook[sq]
	case Bishop:
		return g.bishop[sq]
	case Queen:
		return g.queen[sq]
	}
	return nil
}

// Leaps returns the flat target list for knights and kings, nil otherwise.
func (g *Geometry) Leaps(sq Square, k Kind) []Square {
	switch k {
	case Knight:
		return g.knight[sq]
	case King:
		return g.king[sq]
	}
	return nil
}

// PawnAhead returns the forward squares of a pawn of color c on sq.
func (g *Geometry) PawnAhead(sq Square, c Color) []Square { return g.ahead[c][sq] }

// PawnDiagonal returns the capture squares of a pawn of color c on sq.
func (g *Geometry) PawnDiagonal(sq Square, c Color) []Square { return g.diagonal[c][sq] }
