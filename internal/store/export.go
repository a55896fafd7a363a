package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/position"
)

var exportHeader = []string{"game", "ply", "color", "from", "to", "move"}

// WriteCSV writes the move list of st as CSV rows under game id. The header
// is written only when header is true.
func WriteCSV(w *csv.Writer, id string, st position.State, header bool) error {
	if header {
		if err := w.Write(exportHeader); err != nil {
			return err
		}
	}
	first := st.ToMove
	if len(st.Moves)%2 == 1 {
		first = first.Invert()
	}
	for i, mv := range st.Moves {
		m, err := board.DecodeMove(mv[0], mv[1])
		if err != nil {
			return fmt.Errorf("game %s move %d: %w", id, i, err)
		}
		color := first
		if i%2 == 1 {
			color = first.Invert()
		}
		row := []string{
			id,
			strconv.Itoa(i + 1),
			color.String(),
			strconv.Itoa(mv[0]),
			strconv.Itoa(mv[1]),
			m.String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// ExportCSV writes the moves of the game saved under id.
func (s *GameStore) ExportCSV(w io.Writer, id string) error {
	st, err := s.Load(id)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := WriteCSV(cw, id, st, true); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// ExportAll writes the moves of every saved game, one header for all, and
// returns the number of games written.
func (s *GameStore) ExportAll(w io.Writer) (int, error) {
	ids, err := s.List()
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		st, err := s.Load(id)
		if err != nil {
			s.log("skip game %s: %v", id, err)
			continue
		}
		if err := WriteCSV(cw, id, st, false); err != nil {
			return n, err
		}
		n++
	}
	cw.Flush()
	return n, cw.Error()
}
