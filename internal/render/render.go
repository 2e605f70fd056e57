// Package render draws boards and arena results for a terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jaminalder/tictactoe-ai/internal/arena"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

type Renderer struct {
	out *termenv.Output
}

// New renders for w, detecting its colour support.
func New(w io.Writer, opts ...termenv.OutputOption) *Renderer {
	return &Renderer{out: termenv.NewOutput(w, opts...)}
}

// Plain renders without any escape sequences.
func Plain(w io.Writer) *Renderer {
	return New(w, termenv.WithProfile(termenv.Ascii))
}

func (r *Renderer) symbol(s domain.State, win bool) string {
	st := r.out.String(s.String())
	switch s {
	case domain.X:
		st = st.Foreground(termenv.ANSIBrightRed).Bold()
	case domain.O:
		st = st.Foreground(termenv.ANSIBrightBlue).Bold()
	}
	if win {
		st = st.Background(termenv.ANSIGreen).Underline()
	}
	return st.String()
}

// Board draws b with coordinates, marking the highlighted cells.
func (r *Renderer) Board(b *domain.Board, highlight []domain.Index) string {
	hl := make(map[domain.Index]bool, len(highlight))
	for _, idx := range highlight {
		hl[idx] = true
	}
	var sb strings.Builder
	sb.WriteString("  ")
	for c := 0; c < b.Size(); c++ {
		fmt.Fprintf(&sb, " %d  ", c)
	}
	sb.WriteString("\n")
	sep := "  " + strings.TrimSuffix(strings.Repeat("---+", b.Size()), "+") + "\n"
	for i, row := range b.Rows() {
		if i > 0 {
			sb.WriteString(sep)
		}
		fmt.Fprintf(&sb, "%d ", i)
		for j, f := range row {
			if j > 0 {
				sb.WriteString("|")
			}
			sb.WriteString(" " + r.symbol(f.State, hl[f.Index]) + " ")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Game draws the board of g with its winning line highlighted.
func (r *Renderer) Game(g *domain.Game) string {
	var hl []domain.Index
	for _, m := range g.WinningMoves() {
		hl = append(hl, m.Index)
	}
	return r.Board(g.Board(), hl)
}

// Status describes where g stands.
func (r *Renderer) Status(g *domain.Game) string {
	switch g.Status() {
	case domain.StatusWon:
		w := g.WinningPlayer()
		return r.symbol(w, false) + r.out.String(" has won!").Bold().String()
	case domain.StatusStalemate:
		return r.out.String("Stalemate").Faint().String()
	}
	return r.symbol(g.CurrentPlayer(), false) + " to move"
}

// Summary formats arena totals.
func (r *Renderer) Summary(s arena.Summary) string {
	pct := func(n int) float64 {
		if s.Games == 0 {
			return 0
		}
		return 100 * float64(n) / float64(s.Games)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d games on %d workers in %v\n",
		r.out.String("Arena").Bold(), s.Games, s.Workers, s.Elapsed.Round(1e6))
	fmt.Fprintf(&sb, "  %s %4d (%5.1f%%)\n", r.out.String("p1 wins").Foreground(termenv.ANSIGreen), s.P1Wins, pct(s.P1Wins))
	fmt.Fprintf(&sb, "  %s %4d (%5.1f%%)\n", r.out.String("p2 wins").Foreground(termenv.ANSIRed), s.P2Wins, pct(s.P2Wins))
	fmt.Fprintf(&sb, "  %s   %4d (%5.1f%%)\n", r.out.String("draws").Faint(), s.Draws, pct(s.Draws))
	return sb.String()
}
