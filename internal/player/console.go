package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/magnanimus/magnanimus/internal/board"
	"github.com/magnanimus/magnanimus/internal/notation"
	"github.com/magnanimus/magnanimus/internal/position"
)

// ConsolePlayer reads moves typed by a person. "x" quits, "u" takes back the
// last move pair, "?" lists the available moves and "? e4" explains the
// piece on e4. Unreadable or illegal input is reported and asked for again.
type ConsolePlayer struct {
	name string
	in   *bufio.Scanner
	out  io.Writer
}

// NewConsolePlayer reads from r and prompts on w.
func NewConsolePlayer(name string, r io.Reader, w io.Writer) *ConsolePlayer {
	if name == "" {
		name = "you"
	}
	return &ConsolePlayer{name: name, in: bufio.NewScanner(r), out: w}
}

func (c *ConsolePlayer) Name() string { return c.name }

// Move prompts until a legal move, a command, or the end of input.
func (c *ConsolePlayer) Move(ctx context.Context, p *position.Position) (board.Move, error) {
	for {
		if err := ctx.Err(); err != nil {
			return board.Move{}, err
		}
		fmt.Fprintf(c.out, "%s (%s)> ", c.name, p.ToMove())
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return board.Move{}, fmt.Errorf("read move: %w", err)
			}
			return board.Move{}, ErrQuit
		}
		line := strings.TrimSpace(c.in.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "x", "quit", "exit":
			return board.Move{}, ErrQuit
		case "u", "undo":
			return board.Move{}, ErrUndo
		case "?", "moves":
			c.listMoves(p)
			continue
		}
		if rest, ok := strings.CutPrefix(line, "? "); ok {
			c.explain(p, strings.TrimSpace(rest))
			continue
		}
		m, err := notation.ParseMove(p, line)
		if err != nil {
			fmt.Fprintf(c.out, "cannot play %s: %v\n", line, err)
			continue
		}
		if p.Apply(m).InCheck(p.ToMove()) {
			fmt.Fprintf(c.out, "cannot play %s: leaves your king in check\n", line)
			continue
		}
		return m, nil
	}
}

func (c *ConsolePlayer) listMoves(p *position.Position) {
	moves := p.SafeMoves()
	names := make([]string, 0, len(moves))
	for _, m := range moves {
		names = append(names, notation.SAN(p, m))
	}
	fmt.Fprintf(c.out, "%d moves: %s\n", len(names), strings.Join(names, " "))
}

func (c *ConsolePlayer) explain(p *position.Position, name string) {
	sq, err := notation.ParseSquare(name)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	text, ok := notation.Explain(p, sq)
	if !ok {
		fmt.Fprintf(c.out, "no piece on %s\n", sq)
		return
	}
	fmt.Fprint(c.out, text)
}
