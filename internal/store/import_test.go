package store

import (
	"bytes"
	"strings"
	"testing"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/position"
)

func TestImportCSVRoundTrip(t *testing.T) {
	src := newStore(t)
	p := played(t).Apply(board.NewMove(1, 18)).Apply(board.NewMove(61, 34)).
		Apply(board.NewMove(5, 26)).Apply(board.NewCastle(board.White, board.Kingside))
	if err := src.Save("italian", p.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if err := src.Save("empty", position.Start(geo).Snapshot()); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := src.ExportAll(&buf); err != nil {
		t.Fatal(err)
	}

	dst := newStore(t)
	res, err := dst.ImportCSV(&buf, geo)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res != (ImportResult{Imported: 1}) {
		t.Errorf("result = %+v", res)
	}
	st, err := dst.Load("italian")
	if err != nil {
		t.Fatal(err)
	}
	q, err := position.FromState(geo, st, nil)
	if err != nil {
		t.Fatal(err)
	}
	if q.Score() != p.Score() || len(q.Moves()) != 7 {
		t.Errorf("imported score %v with %d moves, want %v with 7", q.Score(), len(q.Moves()), p.Score())
	}
}

func TestImportCSVRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ImportResult
		err   bool
	}{
		{"empty", "", ImportResult{}, false},
		{"bad header", "a,b,c,d,e,f\n", ImportResult{}, true},
		{"short row", "game,ply,color,from,to,move\ng,1,white,52\n", ImportResult{}, true},
		{
			"illegal move",
			"game,ply,color,from,to,move\ng,1,white,52,28,e2e5\n",
			ImportResult{Failed: 1},
			false,
		},
		{
			"gap in plies",
			"game,ply,color,from,to,move\ng,1,white,52,36,e2e4\ng,3,white,62,45,g1f3\n",
			ImportResult{Failed: 1},
			false,
		},
		{
			"bad id",
			"game,ply,color,from,to,move\nno/slash,1,white,52,36,e2e4\n",
			ImportResult{Failed: 1},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newStore(t).ImportCSV(strings.NewReader(tt.input), geo)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want error %v", err, tt.err)
			}
			if !tt.err && res != tt.want {
				t.Errorf("result = %+v, want %+v", res, tt.want)
			}
		})
	}
}
