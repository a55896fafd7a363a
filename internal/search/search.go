// Package search picks a move by beam search: each ply expands every live
// line by one move, drops lines that leave the mover in check, marks lines
// with no replies as checkmate or stalemate, and keeps only the best lines
// for the side that just moved.
package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/position"
)

const (
	MateScore      = 999.0
	StalemateScore = 0.0
)

// Outcome tags how a line ends.
type Outcome uint8

const (
	Ongoing Outcome = iota
	Checkmate
	Stalemate
)

func (o Outcome) String() string {
	switch o {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return "ongoing"
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ongoing":
		*o = Ongoing
	case "checkmate":
		*o = Checkmate
	case "stalemate":
		*o = Stalemate
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Config controls a Searcher.
type Config struct {
	Logger  zerolog.Logger
	Plies   int           // maximum depth; default 4
	Beam    int           // lines kept per ply; default 200
	Budget  time.Duration // wall clock, checked between plies; default 5s
	Workers int           // parallel expansion; default 1
}

// Searcher runs searches with a fixed configuration. It holds no per-search
// state and is safe for concurrent use.
type Searcher struct {
	cfg Config
	log zerolog.Logger
}

// NewSearcher applies defaults to cfg.
func NewSearcher(cfg Config) *Searcher {
	if cfg.Plies <= 0 {
		cfg.Plies = 4
	}
	if cfg.Beam <= 0 {
		cfg.Beam = 200
	}
	if cfg.Budget <= 0 {
		cfg.Budget = 5 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Searcher{cfg: cfg, log: cfg.Logger.With().Str("component", "search").Logger()}
}

// Config returns the effective configuration.
func (s *Searcher) Config() Config { return s.cfg }

// Result is the outcome of one search.
//
// When HasMove is false the root itself is terminal and Outcome says how.
// Otherwise Outcome, Mated and Score describe the end of the chosen line.
type Result struct {
	Move    board.Move
	HasMove bool
	Outcome Outcome
	Mated   board.Color // valid when Outcome is Checkmate
	Score   float64
	Line    []board.Move
	Plies   int // plies completed
	Nodes   int // positions generated
	Elapsed time.Duration
}

type node struct {
	pos     *position.Position
	line    []board.Move
	outcome Outcome
	mated   board.Color
	score   float64
}

// BestMove searches from root. It returns an error only when ctx is already
// done before the first ply; running out of time afterwards ends the search
// with the best line found so far.
func (s *Searcher) BestMove(ctx context.Context, root *position.Position) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	deadline := start.Add(s.cfg.Budget)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	mover := root.ToMove()

	live := []*node{{pos: root, score: root.Score()}}
	var terminal []*node
	var nodes int64
	plies := 0

	for plies < s.cfg.Plies && len(live) > 0 {
		if plies > 0 && (ctx.Err() != nil || !time.Now().Before(deadline)) {
			s.log.Debug().Int("ply", plies).Msg("budget exhausted")
			break
		}
		children, ended := s.expand(live, &nodes)
		plies++

		if plies == 1 && len(ended) == 1 {
			// the root has no replies
			res := s.result(ended[0], plies, nodes, start)
			res.HasMove = false
			res.Line = nil
			return res, nil
		}
		for _, n := range ended {
			if n.outcome == Checkmate && n.mated != mover {
				s.log.Debug().Int("ply", plies).Str("line", lineString(n.line)).Msg("forced mate found")
				return s.result(n, plies, nodes, start), nil
			}
		}
		terminal = append(terminal, ended...)
		live = trim(children, s.cfg.Beam)

		s.log.Debug().
			Int("ply", plies).
			Int64("nodes", nodes).
			Int("live", len(live)).
			Int("terminal", len(terminal)).
			Dur("elapsed", time.Since(start)).
			Msg("ply expanded")
	}

	best := selectBest(mover, live, terminal)
	if best == nil {
		// nothing survived
		return Result{Outcome: Checkmate, Mated: mover, Score: -MateScore * mover.Sign(), Plies: plies, Nodes: int(nodes), Elapsed: time.Since(start)}, nil
	}
	res := s.result(best, plies, nodes, start)
	s.log.Info().
		Str("move", res.Move.String()).
		Float64("score", res.Score).
		Int("plies", res.Plies).
		Int("nodes", res.Nodes).
		Dur("elapsed", res.Elapsed).
		Msg("best move")
	return res, nil
}

func (s *Searcher) result(n *node, plies int, nodes int64, start time.Time) Result {
	res := Result{
		Outcome: n.outcome,
		Mated:   n.mated,
		Score:   n.score,
		Line:    n.line,
		Plies:   plies,
		Nodes:   int(nodes),
		Elapsed: time.Since(start),
	}
	if len(n.line) > 0 {
		res.Move = n.line[0]
		res.HasMove = true
	}
	return res
}

// expand generates the surviving children of every live node, in parent
// order, and returns the parents that turned out to have none, marked.
func (s *Searcher) expand(live []*node, nodes *int64) (children, ended []*node) {
	out := make([][]*node, len(live))
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, n := range live {
		g.Go(func() error {
			out[i] = successors(n)
			atomic.AddInt64(nodes, int64(len(out[i])))
			return nil
		})
	}
	_ = g.Wait()

	for i, n := range live {
		if len(out[i]) == 0 {
			ended = append(ended, markTerminal(n))
			continue
		}
		children = append(children, out[i]...)
	}
	return children, ended
}

// successors applies every legal move of n and keeps those that do not leave
// the mover in check.
func successors(n *node) []*node {
	mover := n.pos.ToMove()
	var out []*node
	for _, m := range n.pos.LegalMoves() {
		next := n.pos.Apply(m)
		if next.InCheck(mover) {
			continue
		}
		line := make([]board.Move, len(n.line)+1)
		copy(line, n.line)
		line[len(n.line)] = m
		out = append(out, &node{pos: next, line: line, score: next.Score()})
	}
	return out
}

// markTerminal returns a copy of n scored as checkmate if its side to move is
// in check, stalemate otherwise.
func markTerminal(n *node) *node {
	t := *n
	side := n.pos.ToMove()
	if n.pos.InCheck(side) {
		t.outcome, t.mated = Checkmate, side
		t.score = -MateScore * side.Sign()
	} else {
		t.outcome = Stalemate
		t.score = StalemateScore
	}
	return &t
}

// trim keeps the beam best children for the side that just moved into them.
func trim(children []*node, beam int) []*node {
	if len(children) == 0 {
		return nil
	}
	sign := children[0].pos.ToMove().Invert().Sign()
	slices.SortStableFunc(children, func(a, b *node) int {
		return cmp.Compare(b.score*sign, a.score*sign)
	})
	if len(children) > beam {
		children = children[:beam]
	}
	return children
}

// selectBest picks the line the root mover prefers among the live leaves and
// the terminal lines: the maximum score for white, the minimum for black.
func selectBest(mover board.Color, live, terminal []*node) *node {
	sign := mover.Sign()
	var best *node
	consider := func(n *node) {
		if len(n.line) == 0 {
			return
		}
		if best == nil || n.score*sign > best.score*sign {
			best = n
		}
	}
	for _, n := range live {
		consider(n)
	}
	for _, n := range terminal {
		consider(n)
	}
	return best
}

func lineString(line []board.Move) string {
	b := make([]byte, 0, len(line)*6)
	for i, m := range line {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, m.String()...)
	}
	return string(b)
}
