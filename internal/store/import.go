package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/position"
)

// ImportResult counts the games read by ImportCSV.
type ImportResult struct {
	Imported int
	Failed   int
}

// ImportCSV reads move lists in the export format and saves each game,
// replayed from the standard layout. Games that do not replay, such as those
// begun from a seeded position, are counted as failed and not saved.
func (s *GameStore) ImportCSV(r io.Reader, geo *board.Geometry) (ImportResult, error) {
	var res ImportResult
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(exportHeader)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return res, nil
		}
		return res, fmt.Errorf("read header: %w", err)
	}
	if header[0] != exportHeader[0] || header[1] != exportHeader[1] {
		return res, fmt.Errorf("invalid header: expected %v, got %v", exportHeader, header)
	}

	var order []string
	games := make(map[string][]board.Move)
	bad := make(map[string]bool)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		id := row[0]
		if _, seen := games[id]; !seen && !bad[id] {
			order = append(order, id)
			games[id] = nil
		}
		m, err := parseRow(row)
		if err != nil || len(games[id])+1 != mustAtoi(row[1]) {
			if !bad[id] {
				s.log("game %s: bad row %v: %v", id, row, err)
			}
			bad[id] = true
			continue
		}
		games[id] = append(games[id], m)
	}

	for _, id := range order {
		if bad[id] {
			res.Failed++
			continue
		}
		p, err := replay(geo, games[id])
		if err != nil {
			s.log("game %s: %v", id, err)
			res.Failed++
			continue
		}
		if err := s.Save(id, p.Snapshot()); err != nil {
			if errors.Is(err, ErrBadID) {
				res.Failed++
				continue
			}
			return res, err
		}
		res.Imported++
	}
	return res, nil
}

func parseRow(row []string) (board.Move, error) {
	from, err := strconv.Atoi(row[3])
	if err != nil {
		return board.Move{}, err
	}
	to, err := strconv.Atoi(row[4])
	if err != nil {
		return board.Move{}, err
	}
	return board.DecodeMove(from, to)
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func replay(geo *board.Geometry, moves []board.Move) (*position.Position, error) {
	p := position.Start(geo)
	for i, m := range moves {
		next, err := p.Play(m)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		p = next
	}
	return p, nil
}
