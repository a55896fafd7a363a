package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/magnanimus/magnanimus/internal/audit"
	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/eco"
	"github.com/magnanimus/magnanimus/internal/notation"
	"github.com/magnanimus/magnanimus/internal/position"
	"github.com/magnanimus/magnanimus/internal/search"
	"github.com/magnanimus/magnanimus/internal/store"
)

const maxBodyBytes = 1 << 20

// Options wires the optional parts of the API.
type Options struct {
	Games     *store.GameStore // enables /v1/games
	Openings  *eco.Database    // adds opening names to game responses
	Search    search.Config    // defaults for /v1/bestmove
	MaxPlies  int              // cap on requested plies; default 8
	MaxBeam   int              // cap on requested beam widths; default 1000
	MaxBudget time.Duration    // cap on requested budgets; default 10s
}

// Handler serves position analysis and search.
type Handler struct {
	geo  *board.Geometry
	opts Options
	log  zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(log zerolog.Logger, geo *board.Geometry, opts Options) http.Handler {
	h := newHandler(log, geo, opts)
	opts = h.opts

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(h.health))
	mux.Handle("/readyz", http.HandlerFunc(h.health))
	mux.Handle("POST /v1/analyse", http.HandlerFunc(h.analyse))
	mux.Handle("POST /v1/bestmove", http.HandlerFunc(h.bestMove))
	mux.Handle("POST /v1/apply", http.HandlerFunc(h.apply))
	mux.Handle("POST /v1/audit", http.HandlerFunc(h.audit))
	if opts.Games != nil {
		mux.Handle("GET /v1/games", http.HandlerFunc(h.listGames))
		mux.Handle("GET /v1/games/{id}", http.HandlerFunc(h.game))
		mux.Handle("GET /v1/games/{id}/csv", http.HandlerFunc(h.gameCSV))
		log.Info().Str("dir", opts.Games.Dir()).Msg("game endpoints enabled")
	}

	// pprof endpoints
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	handler := CORS(RequestID(AccessLog(log, mux)))
	return handler
}

// newHandler applies the option defaults.
func newHandler(log zerolog.Logger, geo *board.Geometry, opts Options) *Handler {
	if opts.MaxPlies <= 0 {
		opts.MaxPlies = 8
	}
	if opts.MaxBeam <= 0 {
		opts.MaxBeam = 1000
	}
	if opts.MaxBudget <= 0 {
		opts.MaxBudget = 10 * time.Second
	}
	opts.Search.Logger = log
	return &Handler{geo: geo, opts: opts, log: log}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// position builds the requested position; the start layout when neither
// state nor FEN is given.
func (h *Handler) position(req PositionRequest) (*position.Position, error) {
	switch {
	case req.State != nil:
		return position.FromState(h.geo, *req.State, nil)
	case req.FEN != "":
		return notation.FromFEN(h.geo, req.FEN)
	}
	return position.Start(h.geo), nil
}

func (h *Handler) analyse(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.position(req)
	if err != nil {
		http.Error(w, "invalid position: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, ToPositionResponse(p, nil))
}

func (h *Handler) bestMove(w http.ResponseWriter, r *http.Request) {
	var req BestMoveRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.position(req.PositionRequest)
	if err != nil {
		http.Error(w, "invalid position: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg := h.searchConfig(req)
	cfg.Logger = h.log.With().Str("rid", GetRequestID(r.Context())).Logger()
	s := search.NewSearcher(cfg)

	res, err := s.BestMove(r.Context(), p)
	if err != nil {
		h.log.Warn().Err(err).Str("rid", GetRequestID(r.Context())).Msg("search abandoned")
		http.Error(w, "search cancelled", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, ToBestMoveResponse(p, res))
}

// searchConfig merges the request into the default search settings and
// holds every value within the configured caps.
func (h *Handler) searchConfig(req BestMoveRequest) search.Config {
	cfg := h.opts.Search
	if req.Plies > 0 {
		cfg.Plies = req.Plies
	}
	if req.Beam > 0 {
		cfg.Beam = req.Beam
	}
	if req.BudgetMS > 0 {
		cfg.Budget = time.Duration(req.BudgetMS) * time.Millisecond
	}
	cfg = search.NewSearcher(cfg).Config()
	cfg.Plies = min(cfg.Plies, h.opts.MaxPlies)
	cfg.Beam = min(cfg.Beam, h.opts.MaxBeam)
	cfg.Budget = min(cfg.Budget, h.opts.MaxBudget)
	return cfg
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.position(req.PositionRequest)
	if err != nil {
		http.Error(w, "invalid position: "+err.Error(), http.StatusBadRequest)
		return
	}
	m, err := notation.ParseMove(p, req.Move)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, position.ErrIllegalMove) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, ToPositionResponse(p.Apply(m), nil))
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.position(req)
	if err != nil {
		http.Error(w, "invalid position: "+err.Error(), http.StatusBadRequest)
		return
	}
	rep := audit.Audit(p)
	writeJSON(w, AuditResponse{Report: rep, Clean: rep.Clean()})
}

func (h *Handler) listGames(w http.ResponseWriter, r *http.Request) {
	ids, err := h.opts.Games.List()
	if err != nil {
		h.log.Error().Err(err).Str("rid", GetRequestID(r.Context())).Msg("list games")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"games": ids})
}

func (h *Handler) loadGame(w http.ResponseWriter, r *http.Request) (string, *position.Position, bool) {
	id := r.PathValue("id")
	st, err := h.opts.Games.Load(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "game not found", http.StatusNotFound)
		return id, nil, false
	case errors.Is(err, store.ErrBadID):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return id, nil, false
	case err != nil:
		h.log.Error().Err(err).Str("rid", GetRequestID(r.Context())).Str("id", id).Msg("load game")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return id, nil, false
	}
	p, err := position.FromState(h.geo, st, nil)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("restore game")
		http.Error(w, "stored game is invalid", http.StatusInternalServerError)
		return id, nil, false
	}
	return id, p, true
}

func (h *Handler) game(w http.ResponseWriter, r *http.Request) {
	id, p, ok := h.loadGame(w, r)
	if !ok {
		return
	}
	var opening *eco.Opening
	if h.opts.Openings != nil {
		opening = eco.Name(h.opts.Openings, h.geo, p.Moves())
	}
	writeJSON(w, GameResponse{ID: id, Position: *ToPositionResponse(p, opening)})
}

func (h *Handler) gameCSV(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	w.Header().Set("Content-Type", "text/csv")
	if err := h.opts.Games.ExportCSV(w, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "game not found", http.StatusNotFound)
		case errors.Is(err, store.ErrBadID):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.log.Error().Err(err).Str("id", id).Msg("export game")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
	// Don't call http.Error after setting headers - it causes "superfluous WriteHeader"
}
