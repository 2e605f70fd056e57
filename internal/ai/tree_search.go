package ai

import (
	"fmt"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

const (
	scoreWin       = 1100
	scoreLoss      = -1000
	scoreStalemate = -100
	scoreCap       = 1000
)

// TreeSearch walks a precomputed game tree. Its cursor follows the moves
// actually played, so it must be told about every one of them.
type TreeSearch struct {
	Base
	tree   *Tree
	cursor NodeID
}

func NewTreeSearch(tree *Tree, opts ...Option) *TreeSearch {
	return &TreeSearch{
		Base:   newBase(collect(opts)),
		tree:   tree,
		cursor: tree.Root(),
	}
}

func (s *TreeSearch) Tree() *Tree { return s.tree }

func (s *TreeSearch) Cursor() NodeID { return s.cursor }

// History returns the moves from the root to the cursor.
func (s *TreeSearch) History() []domain.Move { return s.tree.Path(s.cursor) }

// Score rates n from this player's point of view. It recurses over the
// whole subtree on every call.
func (s *TreeSearch) Score(n NodeID) int {
	switch s.tree.Winner(n) {
	case s.player:
		return scoreWin
	case s.opponent:
		return scoreLoss
	}
	lo, hi := s.tree.span(n)
	if lo == hi {
		return scoreStalemate
	}
	sum := 0
	for c := lo; c < hi; c++ {
		sum += s.Score(c)
	}
	return min(scoreCap, floorDiv(sum, 2)) - 1
}

// NextMove returns the best scored child of the cursor. The board is not
// consulted; ties go to the first child.
func (s *TreeSearch) NextMove(_ *domain.Board) (domain.Move, error) {
	lo, hi := s.tree.span(s.cursor)
	if lo == hi {
		return domain.Move{}, ErrCannotComputeMove
	}
	best, bestScore := lo, s.Score(lo)
	for c := lo + 1; c < hi; c++ {
		if sc := s.Score(c); sc > bestScore {
			best, bestScore = c, sc
		}
	}
	return s.tree.Move(best), nil
}

// MoveCallback advances the cursor along m.
func (s *TreeSearch) MoveCallback(m domain.Move) error {
	next, ok := s.tree.Child(s.cursor, m)
	if !ok {
		return fmt.Errorf("%w: %v is not a continuation of %v", ErrCannotComputeMove, m, s.History())
	}
	s.cursor = next
	return nil
}

// NewGame moves the cursor back to the root. The tree is kept.
func (s *TreeSearch) NewGame() {
	s.Base.NewGame()
	s.cursor = s.tree.Root()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
