package position

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/magnanimus/magnanimus/internal/board"
)

func TestStateRoundTrip(t *testing.T) {
	for i, p := range opening(t) {
		data, err := json.Marshal(p.Snapshot())
		if err != nil {
			t.Fatalf("ply %d: marshal: %v", i, err)
		}
		var st State
		if err := json.Unmarshal(data, &st); err != nil {
			t.Fatalf("ply %d: unmarshal: %v", i, err)
		}
		q, err := FromState(geo, st, nil)
		if err != nil {
			t.Fatalf("ply %d: FromState: %v", i, err)
		}
		if !reflect.DeepEqual(q.Placements(), p.Placements()) {
			t.Errorf("ply %d: placements differ", i)
		}
		if q.ToMove() != p.ToMove() {
			t.Errorf("ply %d: ToMove() = %s, want %s", i, q.ToMove(), p.ToMove())
		}
		for _, c := range board.Colors {
			if q.CastleRights(c) != p.CastleRights(c) {
				t.Errorf("ply %d: %s rights = %v, want %v", i, c, q.CastleRights(c).Sides(), p.CastleRights(c).Sides())
			}
		}
		if !reflect.DeepEqual(q.Moves(), p.Moves()) {
			t.Errorf("ply %d: moves = %v, want %v", i, q.Moves(), p.Moves())
		}
		if q.Score() != p.Score() {
			t.Errorf("ply %d: Score() = %v, want %v", i, q.Score(), p.Score())
		}
	}
}

func TestStateJSONShape(t *testing.T) {
	p := opening(t)[7] // white has castled
	data, err := json.Marshal(p.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{
		`"to_move":"black"`,
		`[163,62]`,
		`"legal_castlings":{"white":[],"black":["kingside","queenside"]}`,
		`["king","white",62]`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("snapshot JSON missing %s\n%s", want, s)
		}
	}
}

func TestFromStateErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"unknown piece", `{"to_move":"white","piece_tuples":[["dragon","white",3]]}`, ErrUnknownPiece},
		{"unknown color", `{"to_move":"white","piece_tuples":[["king","green",3]]}`, ErrUnknownPiece},
		{"square", `{"to_move":"white","piece_tuples":[["king","white",70]]}`, ErrBadSquare},
		{"duplicate", `{"to_move":"white","piece_tuples":[["king","white",3],["queen","black",3]]}`, ErrDuplicateSquare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st State
			if err := json.Unmarshal([]byte(tt.json), &st); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, err := FromState(geo, st, nil); !errors.Is(err, tt.want) {
				t.Errorf("FromState err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFromStateBadMove(t *testing.T) {
	st := State{ToMove: board.White, Moves: [][2]int{{170, 62}}}
	if _, err := FromState(geo, st, nil); err == nil {
		t.Error("FromState accepted sentinel with no rook home")
	}
}
