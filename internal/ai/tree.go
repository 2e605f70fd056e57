package ai

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

// MaxTreeSize is the largest board edge a full game tree is built for.
// A 4x4 board already has more than 10^13 move sequences.
const MaxTreeSize = 3

var ErrBoardTooLarge = errors.New("board too large for a full game tree")

// NodeID addresses a node inside a Tree.
type NodeID int32

const noNode NodeID = -1

type node struct {
	move   domain.Move
	winner domain.State
	parent NodeID
	first  NodeID
	count  uint8
}

// Tree is every possible continuation of a game from an empty board.
// Nodes live in a single slice; the children of a node are contiguous.
// A Tree is immutable once built and safe to share.
type Tree struct {
	size  int
	first domain.State
	nodes []node

	mu    sync.Mutex
	paths map[NodeID][]domain.Move
}

// BuildTree enumerates the full game tree for a size x size board where
// first opens. Branches stop at a win or a full board.
func BuildTree(size int, first domain.State) (*Tree, error) {
	if size <= 0 {
		size = domain.DefaultSize
	}
	if size > MaxTreeSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrBoardTooLarge, size, size)
	}
	if !first.IsPlayer() {
		first = domain.X
	}
	t := &Tree{
		size:  size,
		first: first,
		nodes: []node{{parent: noNode, first: noNode}},
		paths: make(map[NodeID][]domain.Move),
	}
	g := domain.NewGame(domain.WithSize(size), domain.WithInitialPlayer(first))
	if err := t.expand(g, t.Root(), first); err != nil {
		return nil, err
	}
	return t, nil
}

// expand adds a child for every free cell of g, then recurses into each
// child that does not end the game. g is restored before returning.
func (t *Tree) expand(g *domain.Game, id NodeID, turn domain.State) error {
	free := g.Board().EmptyFields()
	if len(free) == 0 {
		return nil
	}

	start := NodeID(len(t.nodes))
	for _, idx := range free {
		t.nodes = append(t.nodes, node{
			move:   domain.Move{Index: idx, Player: turn},
			parent: id,
			first:  noNode,
		})
	}
	t.nodes[id].first = start
	t.nodes[id].count = uint8(len(free))

	for i := range free {
		child := start + NodeID(i)
		m := t.nodes[child].move
		if err := g.ApplyMove(m); err != nil {
			return err
		}
		if g.HasWon(turn) {
			t.nodes[child].winner = turn
		} else if err := t.expand(g, child, turn.Next()); err != nil {
			return err
		}
		if err := g.UndoMove(m); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) Root() NodeID { return 0 }

// Len is the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Size() int { return t.size }

// FirstPlayer is the side that opens every game in the tree.
func (t *Tree) FirstPlayer() domain.State { return t.first }

func (t *Tree) Move(n NodeID) domain.Move { return t.nodes[n].move }

// Winner is the player who won with n's move, or Empty.
func (t *Tree) Winner(n NodeID) domain.State { return t.nodes[n].winner }

// Parent returns the parent of n; the root has none.
func (t *Tree) Parent(n NodeID) (NodeID, bool) {
	p := t.nodes[n].parent
	return p, p != noNode
}

func (t *Tree) span(n NodeID) (NodeID, NodeID) {
	nd := t.nodes[n]
	if nd.count == 0 {
		return 0, 0
	}
	return nd.first, nd.first + NodeID(nd.count)
}

func (t *Tree) Children(n NodeID) []NodeID {
	lo, hi := t.span(n)
	out := make([]NodeID, 0, hi-lo)
	for c := lo; c < hi; c++ {
		out = append(out, c)
	}
	return out
}

// Child finds the child of n reached by m, matching index and player.
func (t *Tree) Child(n NodeID, m domain.Move) (NodeID, bool) {
	lo, hi := t.span(n)
	for c := lo; c < hi; c++ {
		if t.nodes[c].move == m {
			return c, true
		}
	}
	return noNode, false
}

// Path returns the moves leading from the root to n. Results are cached
// per node on first access.
func (t *Tree) Path(n NodeID) []domain.Move {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Move(nil), t.pathLocked(n)...)
}

func (t *Tree) pathLocked(n NodeID) []domain.Move {
	if n == t.Root() {
		return nil
	}
	if p, ok := t.paths[n]; ok {
		return p
	}
	parent := t.pathLocked(t.nodes[n].parent)
	p := make([]domain.Move, len(parent), len(parent)+1)
	copy(p, parent)
	p = append(p, t.nodes[n].move)
	t.paths[n] = p
	return p
}
