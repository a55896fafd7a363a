package eco_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/freeeve/pgn/v3"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/eco"
	"github.com/magnanimus/magnanimus/internal/position"
)

const openings = "eco\tname\tpgn\n" +
	"B00\tKing's Pawn Game\t1. e4\n" +
	"C20\tKing's Pawn Game\t1. e4 e5\n" +
	"C50\tItalian Game\t1. e4 e5 2. Nf3 Nc6 3. Bc4\n" +
	"A00\tBroken\t1. e5\n" +
	"short line\n"

func loadDB(t *testing.T) *eco.Database {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "openings.tsv"), []byte(openings), 0o644); err != nil {
		t.Fatal(err)
	}
	db := eco.NewDatabase()
	if err := db.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	return db
}

func TestLoadAndLookup(t *testing.T) {
	db := loadDB(t)
	if db.Count() != 3 {
		t.Errorf("Count() = %d, want 3", db.Count())
	}

	pos := pgn.NewStartingPosition()
	if o := db.LookupGameState(pos); o != nil {
		t.Errorf("starting position named %s", o.ECO)
	}

	mv, err := pgn.ParseSAN(pos, "e4")
	if err != nil {
		t.Fatalf("ParseSAN: %v", err)
	}
	if err := pgn.ApplyMove(pos, mv); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if o := db.LookupGameState(pos); o == nil || o.ECO != "B00" {
		t.Errorf("after 1. e4: %+v, want B00", o)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if err := eco.NewDatabase().LoadDir(t.TempDir()); err == nil {
		t.Error("LoadDir on empty dir succeeded")
	}
}

func TestLoadReader(t *testing.T) {
	db := eco.NewDatabase()
	if err := db.Load(strings.NewReader(openings)); err != nil {
		t.Fatal(err)
	}
	if db.Count() != 3 {
		t.Errorf("Count() = %d, want 3", db.Count())
	}
}

func TestName(t *testing.T) {
	db := loadDB(t)
	geo := board.NewGeometry()
	italian := []board.Move{
		board.NewMove(52, 36), // e4
		board.NewMove(12, 28), // e5
		board.NewMove(62, 45), // Nf3
		board.NewMove(1, 18),  // Nc6
		board.NewMove(61, 34), // Bc4
		board.NewMove(6, 21),  // Nf6
	}
	tests := []struct {
		name  string
		moves []board.Move
		want  string
	}{
		{"none", nil, ""},
		{"king's pawn", italian[:1], "B00"},
		{"italian", italian[:5], "C50"},
		{"past the book", italian, "C50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := eco.Name(db, geo, tt.moves)
			got := ""
			if o != nil {
				got = o.ECO
			}
			if got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrackerStopsOnNonChessMove(t *testing.T) {
	db := loadDB(t)
	geo := board.NewGeometry()
	tr := eco.NewTracker(db)
	p := position.Start(geo)
	moves := []board.Move{
		board.NewMove(53, 45), // f3
		board.NewMove(12, 20), // e6
		board.NewMove(60, 53), // Kf2
		board.NewMove(3, 39),  // Qh4+
	}
	for _, m := range moves {
		tr.Observe(p, m)
		p = p.Apply(m)
	}
	if !tr.Following() {
		t.Fatal("tracker lost a legal game")
	}
	tr.Observe(p, board.NewMove(53, 46)) // Kg3, into the queen
	if tr.Following() {
		t.Error("tracker followed a move into check")
	}
}
