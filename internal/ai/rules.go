package ai

import "github.com/jaminalder/tictactoe-ai/internal/domain"

// RuleBased picks moves from a fixed list of priorities evaluated against
// the live board on every call.
type RuleBased struct {
	Base
}

func NewRuleBased(opts ...Option) *RuleBased {
	return &RuleBased{Base: newBase(collect(opts))}
}

// NextMove tries, in order: a random corner on an empty board, an
// immediate win, blocking an immediate loss, the center, the first free
// cell of a line the opponent has not touched, and finally any free cell.
func (r *RuleBased) NextMove(b *domain.Board) (domain.Move, error) {
	if b.IsEmpty() {
		return r.openingMove(b), nil
	}

	lines := b.WinConditions()
	need := b.Size() - 1

	for _, line := range lines {
		own, opp, free := tally(line, r.player)
		if opp == 0 && own >= need && free >= 0 {
			return r.at(line[free].Index), nil
		}
	}

	for _, line := range lines {
		_, opp, free := tally(line, r.player)
		if free >= 0 && opp >= need {
			return r.at(line[free].Index), nil
		}
	}

	c := b.Size() / 2
	if center := (domain.Index{Row: c, Col: c}); b.At(center) == domain.Empty {
		return r.at(center), nil
	}

	for _, line := range lines {
		_, opp, free := tally(line, r.player)
		if opp == 0 && free >= 0 {
			return r.at(line[free].Index), nil
		}
	}

	// Lost or drawn already; any free cell will do.
	for _, line := range lines {
		if _, _, free := tally(line, r.player); free >= 0 {
			return r.at(line[free].Index), nil
		}
	}

	return domain.Move{}, ErrCannotComputeMove
}

func (r *RuleBased) openingMove(b *domain.Board) domain.Move {
	ends := [2]int{0, b.Size() - 1}
	return r.at(domain.Index{Row: ends[r.rng.Intn(2)], Col: ends[r.rng.Intn(2)]})
}

func (r *RuleBased) at(idx domain.Index) domain.Move {
	return domain.Move{Index: idx, Player: r.player}
}

// tally counts own and opponent marks on a line and returns the position
// of its first free cell, or -1.
func tally(line []domain.Field, me domain.State) (own, opp, free int) {
	free = -1
	for i, f := range line {
		switch f.State {
		case domain.Empty:
			if free < 0 {
				free = i
			}
		case me:
			own++
		default:
			opp++
		}
	}
	return own, opp, free
}
