package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/store"
)

const games = `[Event "Casual"]
[White "Alpha"]
[Black "Beta"]
[Result "*"]

1. e4 e5 2. Nf3 Nc6 3. Bc4 Nf6 4. O-O Bc5 *

[Event "Casual"]
[White "Gamma"]
[Black "Delta"]
[Result "*"]

1. e4 a6 2. e5 d5 3. exd6 c6 *

[Event "Casual"]
[White "Eta"]
[Black "Theta"]
[Result "0-1"]

1. d4 0-1
`

func newWorker(t *testing.T) (*Worker, *store.GameStore) {
	t.Helper()
	gs, err := store.NewGameStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { gs.Close() })
	w, err := NewWorker(Config{
		WatchDir: t.TempDir(),
		MinPlies: 2,
		Logger:   zerolog.Nop(),
	}, gs, board.NewGeometry())
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	return w, gs
}

func TestNewWorkerDisabled(t *testing.T) {
	w, err := NewWorker(Config{}, nil, nil)
	if w != nil || err != nil {
		t.Errorf("NewWorker without a watch dir = %v, %v", w, err)
	}
}

func TestImportFile(t *testing.T) {
	w, gs := newWorker(t)
	path := filepath.Join(w.cfg.WatchDir, "club night.pgn")
	if err := os.WriteFile(path, []byte(games), 0644); err != nil {
		t.Fatal(err)
	}

	sum, err := w.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if sum != (Summary{Imported: 1, Truncated: 1, Skipped: 1}) {
		t.Errorf("Summary = %+v", sum)
	}

	st, err := gs.Load("club-night-0001")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Moves) != 8 {
		t.Errorf("first game: %d moves, want 8", len(st.Moves))
	}
	castle, err := board.DecodeMove(st.Moves[6][0], st.Moves[6][1])
	if err != nil || !castle.IsCastle() {
		t.Errorf("move 7 = %v (%v), want a castle", castle, err)
	}

	st, err = gs.Load("club-night-0002")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Moves) != 4 {
		t.Errorf("second game: %d moves, want 4 (stops at en passant)", len(st.Moves))
	}

	if _, err := gs.Load("club-night-0003"); err == nil {
		t.Error("one-ply game was saved")
	}
}

func TestProcessNewFiles(t *testing.T) {
	w, gs := newWorker(t)
	for _, name := range []string{"a.pgn", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(w.cfg.WatchDir, name), []byte(games), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.ProcessNewFiles(context.Background()); err != nil {
		t.Fatalf("ProcessNewFiles: %v", err)
	}
	if _, err := os.Stat(filepath.Join(w.cfg.ProcessedDir, "a.pgn")); err != nil {
		t.Errorf("a.pgn not moved: %v", err)
	}
	if _, err := os.Stat(filepath.Join(w.cfg.WatchDir, "notes.txt")); err != nil {
		t.Errorf("notes.txt touched: %v", err)
	}
	ids, err := gs.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Errorf("List = %v, want two games", ids)
	}
}

func TestIsPGNFile(t *testing.T) {
	tests := map[string]bool{
		"games.pgn":     true,
		"games.pgn.zst": true,
		"games.zst":     false,
		"games.txt":     false,
	}
	for name, want := range tests {
		if got := isPGNFile(name); got != want {
			t.Errorf("isPGNFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestGamePrefix(t *testing.T) {
	tests := map[string]string{
		"/tmp/club night.pgn":  "club-night",
		"lichess_2024.pgn.zst": "lichess_2024",
		"../...pgn":            "game",
	}
	for in, want := range tests {
		if got := gamePrefix(in); got != want {
			t.Errorf("gamePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
