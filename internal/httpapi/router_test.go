package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/eco"
	"github.com/magnanimus/magnanimus/internal/position"
	"github.com/magnanimus/magnanimus/internal/store"
)

var geo = board.NewGeometry()

func newServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(zerolog.Nop(), geo, opts))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	srv := newServer(t, Options{})
	resp := get(t, srv, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if rid := resp.Header.Get("X-Request-ID"); len(rid) != 8 {
		t.Errorf("X-Request-ID = %q", rid)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "upstream-0123456789")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if rid := resp2.Header.Get("X-Request-ID"); rid != "upstream-0123456789" {
		t.Errorf("X-Request-ID = %q, want the client's id", rid)
	}
}

func TestValidRequestID(t *testing.T) {
	tests := map[string]bool{
		"":                      false,
		"short":                 false,
		"abcd1234":              true,
		"abc-def-123":           true,
		"has space in it":       false,
		strings.Repeat("a", 65): false,
	}
	for in, want := range tests {
		if got := validRequestID(in); got != want {
			t.Errorf("validRequestID(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t, Options{})
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/analyse", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestAnalyse(t *testing.T) {
	srv := newServer(t, Options{})

	t.Run("start", func(t *testing.T) {
		resp := post(t, srv, "/v1/analyse", `{}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		got := decodeBody[PositionResponse](t, resp)
		if len(got.Moves) != 20 || len(got.Pieces) != 32 {
			t.Errorf("moves %d pieces %d, want 20 and 32", len(got.Moves), len(got.Pieces))
		}
		if got.Outcome.String() != "ongoing" || got.ToMove != board.White {
			t.Errorf("outcome %s, %s to move", got.Outcome, got.ToMove)
		}
		if !strings.HasPrefix(got.FEN, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq") {
			t.Errorf("FEN = %q", got.FEN)
		}
	})

	t.Run("checkmate by fen", func(t *testing.T) {
		resp := post(t, srv, "/v1/analyse", `{"fen": "R6k/1R6/8/8/8/8/8/7K b - - 0 1"}`)
		var got map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got["outcome"] != "checkmate" || got["check"] != "black" {
			t.Errorf("outcome %v check %v", got["outcome"], got["check"])
		}
	})

	t.Run("state", func(t *testing.T) {
		resp := post(t, srv, "/v1/analyse", `{"state": {"moves": [], "to_move": "black",
			"legal_castlings": {"white": [], "black": []},
			"piece_tuples": [["king", "white", 63], ["king", "black", 7], ["queen", "white", 22]]}}`)
		var got map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got["outcome"] != "stalemate" {
			t.Errorf("outcome = %v, want stalemate", got["outcome"])
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, body := range []string{`{`, `{"fen": "not a fen"}`, `{"state": {"piece_tuples": [["king", "white", 99]]}}`} {
			if resp := post(t, srv, "/v1/analyse", body); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", body, resp.StatusCode)
			}
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		if resp := get(t, srv, "/v1/analyse"); resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", resp.StatusCode)
		}
	})
}

func TestBestMove(t *testing.T) {
	srv := newServer(t, Options{})
	resp := post(t, srv, "/v1/bestmove", `{"fen": "7k/RR6/8/8/8/8/8/7K w - - 0 1", "plies": 2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decodeBody[map[string]any](t, resp)
	if got["has_move"] != true || got["outcome"] != "checkmate" || got["mated"] != "black" {
		t.Errorf("response = %v", got)
	}
	mv, _ := got["move"].(map[string]any)
	if mv["move"] != "a7a8" && mv["move"] != "b7b8" {
		t.Errorf("move = %v", mv["move"])
	}
}

func TestSearchConfigCaps(t *testing.T) {
	h := newHandler(zerolog.Nop(), geo, Options{MaxPlies: 6, MaxBeam: 500, MaxBudget: 2 * time.Second})
	tests := []struct {
		name   string
		req    BestMoveRequest
		plies  int
		beam   int
		budget time.Duration
	}{
		{"defaults", BestMoveRequest{}, 4, 200, 2 * time.Second},
		{"within caps", BestMoveRequest{Plies: 3, Beam: 50, BudgetMS: 500}, 3, 50, 500 * time.Millisecond},
		{"huge beam", BestMoveRequest{Plies: 8, Beam: 100000000, BudgetMS: 10000}, 6, 500, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := h.searchConfig(tt.req)
			if cfg.Plies != tt.plies || cfg.Beam != tt.beam || cfg.Budget != tt.budget {
				t.Errorf("searchConfig() = plies %d beam %d budget %v, want %d %d %v",
					cfg.Plies, cfg.Beam, cfg.Budget, tt.plies, tt.beam, tt.budget)
			}
		})
	}

	if got := newHandler(zerolog.Nop(), geo, Options{}).opts.MaxBeam; got != 1000 {
		t.Errorf("default MaxBeam = %d, want 1000", got)
	}
}

func TestBestMoveHugeBeam(t *testing.T) {
	srv := newServer(t, Options{MaxBeam: 5})
	resp := post(t, srv, "/v1/bestmove", `{"plies": 3, "beam": 100000000, "budget_ms": 10000}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decodeBody[map[string]any](t, resp)
	if got["has_move"] != true {
		t.Errorf("response = %v", got)
	}
	// plies 2 and 3 each expand at most 5 lines of under 40 replies
	if nodes, _ := got["nodes"].(float64); nodes > 20+2*5*40 {
		t.Errorf("nodes = %v, beam not capped", nodes)
	}
}

func TestApply(t *testing.T) {
	srv := newServer(t, Options{})

	resp := post(t, srv, "/v1/apply", `{"move": "e4"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decodeBody[PositionResponse](t, resp)
	if got.ToMove != board.Black || len(got.State.Moves) != 1 || got.State.Moves[0] != [2]int{52, 36} {
		t.Errorf("to move %s, moves %v", got.ToMove, got.State.Moves)
	}

	// the returned state feeds the next request
	state, _ := json.Marshal(got.State)
	resp = post(t, srv, "/v1/apply", `{"state": `+string(state)+`, "move": "e7e5"}`)
	next := decodeBody[PositionResponse](t, resp)
	if len(next.State.Moves) != 2 {
		t.Errorf("moves = %v", next.State.Moves)
	}

	if resp := post(t, srv, "/v1/apply", `{"move": "e2e5"}`); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("illegal move: status = %d, want 422", resp.StatusCode)
	}
	if resp := post(t, srv, "/v1/apply", `{"move": "zz"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("garbage move: status = %d, want 400", resp.StatusCode)
	}
}

func TestAudit(t *testing.T) {
	srv := newServer(t, Options{})
	resp := post(t, srv, "/v1/audit", `{"fen": "7k/1P6/8/8/8/8/8/7K w - - 0 1"}`)
	got := decodeBody[AuditResponse](t, resp)
	if got.Clean || len(got.Missing) != 4 {
		t.Errorf("audit = %+v", got)
	}

	t.Run("kingless state", func(t *testing.T) {
		body := `{"state": {"moves": [], "to_move": "white",
			"legal_castlings": {"white": [], "black": []},
			"piece_tuples": [["rook", "white", 0], ["king", "black", 7]]}}`
		resp := post(t, srv, "/v1/audit", body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		got := decodeBody[AuditResponse](t, resp)
		if got.Clean || got.Skipped == "" {
			t.Errorf("audit = %+v", got)
		}
	})
}

func TestGames(t *testing.T) {
	gs, err := store.NewGameStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer gs.Close()
	p := position.Start(geo).Apply(board.NewMove(52, 36)).Apply(board.NewMove(12, 28))
	if err := gs.Save("g1", p.Snapshot()); err != nil {
		t.Fatal(err)
	}
	db := eco.NewDatabase()
	if err := db.Load(strings.NewReader("C20\tKing's Pawn Game\t1. e4 e5\n")); err != nil {
		t.Fatal(err)
	}
	srv := newServer(t, Options{Games: gs, Openings: db})

	list := decodeBody[map[string][]string](t, get(t, srv, "/v1/games"))
	if len(list["games"]) != 1 || list["games"][0] != "g1" {
		t.Errorf("games = %v", list)
	}

	game := decodeBody[GameResponse](t, get(t, srv, "/v1/games/g1"))
	if game.ID != "g1" || len(game.Position.State.Moves) != 2 {
		t.Errorf("game = %s with %d moves", game.ID, len(game.Position.State.Moves))
	}
	if game.Position.Opening == nil || game.Position.Opening.ECO != "C20" {
		t.Errorf("opening = %+v", game.Position.Opening)
	}

	resp := get(t, srv, "/v1/games/g1/csv")
	var b strings.Builder
	buf := make([]byte, 512)
	for {
		n, err := resp.Body.Read(buf)
		b.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if !strings.Contains(b.String(), "g1,2,black,12,28,e7e5") {
		t.Errorf("csv:\n%s", b.String())
	}

	if resp := get(t, srv, "/v1/games/missing"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing game: status = %d", resp.StatusCode)
	}
	if resp := get(t, srv, "/v1/games/missing/csv"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing csv: status = %d", resp.StatusCode)
	}
}

func TestGamesDisabledWithoutStore(t *testing.T) {
	srv := newServer(t, Options{})
	if resp := get(t, srv, "/v1/games"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
