package httpapi

import (
	"github.com/magnanimus/magnanimus/internal/audit"
	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/eco"
	"github.com/magnanimus/magnanimus/internal/notation"
	"github.com/magnanimus/magnanimus/internal/position"
	"github.com/magnanimus/magnanimus/internal/search"
)

// PositionRequest names a position either by its persisted state or by FEN.
// State wins when both are given.
type PositionRequest struct {
	State *position.State `json:"state,omitempty"`
	FEN   string          `json:"fen,omitempty"`
}

// BestMoveRequest asks for a search from a position.
type BestMoveRequest struct {
	PositionRequest
	Plies    int `json:"plies,omitempty"`
	Beam     int `json:"beam,omitempty"`
	BudgetMS int `json:"budget_ms,omitempty"`
}

// ApplyRequest plays a move, written in any notation the parser accepts.
type ApplyRequest struct {
	PositionRequest
	Move string `json:"move"`
}

// PositionResponse is the JSON-friendly analysis of a position.
type PositionResponse struct {
	FEN     string             `json:"fen"`
	ToMove  board.Color        `json:"to_move"`
	Score   float64            `json:"score"` // white's point of view
	Scores  map[string]float64 `json:"scores"`
	Check   string             `json:"check,omitempty"` // color in check
	Outcome search.Outcome     `json:"outcome"`
	Opening *eco.Opening       `json:"opening,omitempty"`
	Pieces  []PieceResponse    `json:"pieces"`
	Moves   []MoveResponse     `json:"moves"`
	Board   string             `json:"board"`
	State   position.State     `json:"state"`
}

type PieceResponse struct {
	Kind       string  `json:"kind"`
	Color      string  `json:"color"`
	Square     int     `json:"square"`
	Name       string  `json:"name"` // traditional square name
	Free       []int   `json:"free"`
	Attacking  []int   `json:"attacking"`
	Defending  []int   `json:"defending"`
	GivesCheck bool    `json:"gives_check,omitempty"`
	Score      float64 `json:"score"`
}

type MoveResponse struct {
	Move string `json:"move"` // coordinates, or O-O / O-O-O
	SAN  string `json:"san"`
	From int    `json:"from"` // persisted pair, castle sentinel included
	To   int    `json:"to"`
	Safe bool   `json:"safe"` // does not leave the mover in check
}

type BestMoveResponse struct {
	HasMove   bool           `json:"has_move"`
	Move      *MoveResponse  `json:"move,omitempty"`
	Outcome   search.Outcome `json:"outcome"`
	Mated     string         `json:"mated,omitempty"`
	Score     float64        `json:"score"`
	Line      []string       `json:"line"`
	Plies     int            `json:"plies"`
	Nodes     int            `json:"nodes"`
	ElapsedMS int64          `json:"elapsed_ms"`
}

type GameResponse struct {
	ID       string           `json:"id"`
	Position PositionResponse `json:"position"`
}

type AuditResponse struct {
	audit.Report
	Clean bool `json:"clean"`
}

func squareInts(sqs []board.Square) []int {
	out := make([]int, len(sqs))
	for i, sq := range sqs {
		out[i] = int(sq)
	}
	return out
}

func toMoveResponse(p *position.Position, m board.Move, safe bool) MoveResponse {
	from, to := m.Encode()
	return MoveResponse{
		Move: m.String(),
		SAN:  notation.SAN(p, m),
		From: from,
		To:   to,
		Safe: safe,
	}
}

// outcome classifies p from the side to move's point of view.
func outcome(p *position.Position, safe []board.Move) search.Outcome {
	if len(safe) > 0 {
		return search.Ongoing
	}
	if p.InCheck(p.ToMove()) {
		return search.Checkmate
	}
	return search.Stalemate
}

// ToPositionResponse converts a position to a JSON-friendly response.
func ToPositionResponse(p *position.Position, opening *eco.Opening) *PositionResponse {
	scores := p.Scores()
	safe := p.SafeMoves()
	isSafe := make(map[board.Move]bool, len(safe))
	for _, m := range safe {
		isSafe[m] = true
	}

	resp := &PositionResponse{
		FEN:    notation.FEN(p),
		ToMove: p.ToMove(),
		Score:  p.Score(),
		Scores: map[string]float64{
			"white": scores[board.White],
			"black": scores[board.Black],
		},
		Outcome: outcome(p, safe),
		Opening: opening,
		Pieces:  make([]PieceResponse, 0, 32),
		Board:   notation.Render(p),
		State:   p.Snapshot(),
	}
	if c, ok := p.Checked(); ok {
		resp.Check = c.String()
	}
	for _, pc := range p.Pieces() {
		resp.Pieces = append(resp.Pieces, PieceResponse{
			Kind:       pc.Kind.String(),
			Color:      pc.Color.String(),
			Square:     int(pc.Square),
			Name:       pc.Square.String(),
			Free:       squareInts(pc.Free),
			Attacking:  squareInts(pc.Attacking),
			Defending:  squareInts(pc.Defending),
			GivesCheck: pc.GivesCheck,
			Score:      pc.Score,
		})
	}
	legal := p.LegalMoves()
	resp.Moves = make([]MoveResponse, 0, len(legal))
	for _, m := range legal {
		resp.Moves = append(resp.Moves, toMoveResponse(p, m, isSafe[m]))
	}
	return resp
}

// ToBestMoveResponse converts a search result.
func ToBestMoveResponse(p *position.Position, res search.Result) *BestMoveResponse {
	resp := &BestMoveResponse{
		HasMove:   res.HasMove,
		Outcome:   res.Outcome,
		Score:     res.Score,
		Line:      make([]string, 0, len(res.Line)),
		Plies:     res.Plies,
		Nodes:     res.Nodes,
		ElapsedMS: res.Elapsed.Milliseconds(),
	}
	if res.Outcome == search.Checkmate {
		resp.Mated = res.Mated.String()
	}
	if res.HasMove {
		mr := toMoveResponse(p, res.Move, true)
		resp.Move = &mr
	}
	q := p
	for _, m := range res.Line {
		resp.Line = append(resp.Line, notation.SAN(q, m))
		q = q.Apply(m)
	}
	return resp
}
