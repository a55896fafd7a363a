package eco

import (
	"github.com/freeeve/pgn/v3"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/notation"
	"github.com/magnanimus/magnanimus/internal/position"
)

// Tracker follows a game move by move on a full-rules shadow board and
// remembers the last named opening it passed through. It goes quiet for good
// once a move is not expressible in chess notation, since the shadow board
// can no longer follow.
type Tracker struct {
	db      *Database
	shadow  *pgn.GameState
	opening *Opening
	lost    bool
}

// NewTracker starts tracking from the standard initial position.
func NewTracker(db *Database) *Tracker {
	return &Tracker{db: db, shadow: pgn.NewStartingPosition()}
}

// Observe records that m is about to be played in p.
func (t *Tracker) Observe(p *position.Position, m board.Move) {
	if t.lost || t.db == nil {
		return
	}
	san, ok := notation.ChessSAN(p, m)
	if !ok {
		t.lost = true
		return
	}
	if err := applySAN(t.shadow, san); err != nil {
		t.lost = true
		return
	}
	if o := t.db.LookupGameState(t.shadow); o != nil {
		t.opening = o
	}
}

// Opening returns the deepest named opening reached, or nil.
func (t *Tracker) Opening() *Opening { return t.opening }

// Following reports whether the shadow board is still in step with the game.
func (t *Tracker) Following() bool { return !t.lost }

// Name returns the opening reached by playing moves from the standard start.
func Name(db *Database, geo *board.Geometry, moves []board.Move) *Opening {
	t := NewTracker(db)
	p := position.Start(geo)
	for _, m := range moves {
		t.Observe(p, m)
		if !t.Following() {
			break
		}
		p = p.Apply(m)
	}
	return t.Opening()
}
