package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

var (
	sharedTrees     = NewTrees()
	sharedTreeOnce  sync.Once
	sharedTreeValue *Tree
)

func fullTree(t *testing.T) *Tree {
	t.Helper()
	sharedTreeOnce.Do(func() {
		tree, err := sharedTrees.Get(3, domain.X)
		require.NoError(t, err)
		sharedTreeValue = tree
	})
	require.NotNil(t, sharedTreeValue)
	return sharedTreeValue
}

func TestTreeEnumeratesEveryGame(t *testing.T) {
	tree := fullTree(t)

	var leaves, xWins, oWins, draws int
	var walk func(n NodeID)
	walk = func(n NodeID) {
		children := tree.Children(n)
		if len(children) == 0 {
			leaves++
			switch tree.Winner(n) {
			case domain.X:
				xWins++
			case domain.O:
				oWins++
			default:
				draws++
			}
			return
		}
		for _, c := range children {
			walk(c)
		}
	}
	walk(tree.Root())

	assert.Equal(t, 255168, leaves)
	assert.Equal(t, 131184, xWins)
	assert.Equal(t, 77904, oWins)
	assert.Equal(t, 46080, draws)
	assert.Len(t, tree.Children(tree.Root()), 9)
}

func TestTreeParentAndPath(t *testing.T) {
	tree := fullTree(t)
	first, ok := tree.Child(tree.Root(), domain.At(1, 1, domain.X))
	require.True(t, ok)
	second, ok := tree.Child(first, domain.At(0, 0, domain.O))
	require.True(t, ok)

	parent, ok := tree.Parent(second)
	require.True(t, ok)
	assert.Equal(t, first, parent)
	_, ok = tree.Parent(tree.Root())
	assert.False(t, ok)

	want := []domain.Move{domain.At(1, 1, domain.X), domain.At(0, 0, domain.O)}
	assert.Equal(t, want, tree.Path(second))
	assert.Equal(t, want, tree.Path(second), "cached path must be stable")
	assert.Empty(t, tree.Path(tree.Root()))

	_, ok = tree.Child(first, domain.At(1, 1, domain.O))
	assert.False(t, ok, "occupied cell cannot be a child")
	_, ok = tree.Child(tree.Root(), domain.At(0, 0, domain.O))
	assert.False(t, ok, "player must match")
}

func TestTreeRejectsLargeBoards(t *testing.T) {
	_, err := BuildTree(4, domain.X)
	assert.ErrorIs(t, err, ErrBoardTooLarge)

	_, err = New(KindTree, WithSize(4), WithTrees(NewTrees()))
	assert.ErrorIs(t, err, ErrBoardTooLarge)
}

func TestTreeSmallBoards(t *testing.T) {
	tree, err := BuildTree(1, domain.O)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, domain.O, tree.Winner(1))

	tree, err = BuildTree(2, domain.X)
	require.NoError(t, err)
	// every 2x2 game ends on the third move with a win for the opener
	for _, a := range tree.Children(tree.Root()) {
		for _, b := range tree.Children(a) {
			for _, c := range tree.Children(b) {
				assert.Equal(t, domain.X, tree.Winner(c))
				assert.Empty(t, tree.Children(c))
			}
		}
	}
}

func TestTreesCacheBuildsOnce(t *testing.T) {
	trees := NewTrees()
	a, err := trees.Get(2, domain.X)
	require.NoError(t, err)
	b, err := trees.Get(2, domain.X)
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := trees.Get(2, domain.O)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, domain.O, c.FirstPlayer())
}

func TestTreesWarm(t *testing.T) {
	trees := NewTrees()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case err := <-trees.Warm(ctx, 2, domain.X):
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("warm did not finish")
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	err := <-trees.Warm(cancelled, 4, domain.X)
	assert.Error(t, err)
}

func TestTreeSearchStartsAtRoot(t *testing.T) {
	tree := fullTree(t)
	s := NewTreeSearch(tree, WithPlayer(domain.X))
	assert.Equal(t, tree.Root(), s.Cursor())

	m, err := s.NextMove(nil)
	require.NoError(t, err)
	_, ok := tree.Child(tree.Root(), m)
	assert.True(t, ok, "suggested %v is not in the tree", m)

	require.NoError(t, s.MoveCallback(m))
	assert.NotEqual(t, tree.Root(), s.Cursor())
	assert.Equal(t, []domain.Move{m}, s.History())

	s.NewGame()
	assert.Equal(t, tree.Root(), s.Cursor())
	assert.Same(t, tree, s.Tree())
}

func TestTreeSearchTakesImmediateWin(t *testing.T) {
	s := NewTreeSearch(fullTree(t), WithPlayer(domain.X))
	for _, m := range []domain.Move{
		domain.At(0, 0, domain.X), domain.At(1, 0, domain.O),
		domain.At(0, 1, domain.X), domain.At(1, 1, domain.O),
	} {
		require.NoError(t, s.MoveCallback(m))
	}
	m, err := s.NextMove(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.At(0, 2, domain.X), m)

	child, _ := s.tree.Child(s.Cursor(), m)
	assert.Equal(t, scoreWin, s.Score(child))
}

func TestTreeSearchScores(t *testing.T) {
	tree := fullTree(t)
	x := NewTreeSearch(tree, WithPlayer(domain.X))
	o := NewTreeSearch(tree, WithPlayer(domain.O))

	// X wins on the descending diagonal at the fifth move.
	path := []domain.Move{
		domain.At(0, 0, domain.X), domain.At(0, 1, domain.O),
		domain.At(1, 1, domain.X), domain.At(0, 2, domain.O),
		domain.At(2, 2, domain.X),
	}
	n := tree.Root()
	for _, m := range path {
		var ok bool
		n, ok = tree.Child(n, m)
		require.True(t, ok)
	}
	assert.Equal(t, scoreWin, x.Score(n))
	assert.Equal(t, scoreLoss, o.Score(n))

	// A drawn final position has no children and no winner.
	draw := []domain.Move{
		domain.At(0, 0, domain.X), domain.At(0, 1, domain.O), domain.At(0, 2, domain.X),
		domain.At(1, 1, domain.O), domain.At(1, 0, domain.X), domain.At(1, 2, domain.O),
		domain.At(2, 1, domain.X), domain.At(2, 0, domain.O), domain.At(2, 2, domain.X),
	}
	n = tree.Root()
	for _, m := range draw {
		var ok bool
		n, ok = tree.Child(n, m)
		require.True(t, ok)
	}
	assert.Equal(t, scoreStalemate, x.Score(n))

	// One step up the only continuation is the draw: min(1000, -100/2) - 1.
	parent, _ := tree.Parent(n)
	assert.Equal(t, -51, x.Score(parent))

	assert.LessOrEqual(t, x.Score(tree.Root()), scoreCap-1)
}

func TestTreeSearchRejectsUnknownMove(t *testing.T) {
	s := NewTreeSearch(fullTree(t), WithPlayer(domain.O))
	require.NoError(t, s.MoveCallback(domain.At(1, 1, domain.X)))
	err := s.MoveCallback(domain.At(1, 1, domain.O))
	assert.ErrorIs(t, err, ErrCannotComputeMove)
	assert.Len(t, s.History(), 1, "failed callback must not move the cursor")
}

func TestTreeSearchFinishedGame(t *testing.T) {
	s := NewTreeSearch(fullTree(t), WithPlayer(domain.O))
	for _, m := range []domain.Move{
		domain.At(0, 0, domain.X), domain.At(1, 0, domain.O),
		domain.At(0, 1, domain.X), domain.At(1, 1, domain.O),
		domain.At(0, 2, domain.X),
	} {
		require.NoError(t, s.MoveCallback(m))
	}
	_, err := s.NextMove(nil)
	assert.ErrorIs(t, err, ErrCannotComputeMove)
}

func TestTreeSearchFollowsLiveGame(t *testing.T) {
	tree := fullTree(t)
	for _, treeSide := range []domain.State{domain.X, domain.O} {
		g := domain.New()
		ts := NewTreeSearch(tree, WithPlayer(treeSide))
		rb := NewRuleBased(WithPlayer(treeSide.Next()), WithRand(seeded()))
		players := map[domain.State]AI{treeSide: ts, treeSide.Next(): rb}
		for !g.GameOver() {
			m, err := players[g.CurrentPlayer()].NextMove(g.Board())
			require.NoError(t, err)
			require.NoError(t, g.Play(m))
			require.NoError(t, ts.MoveCallback(m))
			require.NoError(t, rb.MoveCallback(m))
			assert.Equal(t, g.History(), ts.History())
		}
		_, err := ts.NextMove(g.Board())
		assert.ErrorIs(t, err, ErrCannotComputeMove)
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 2, floorDiv(5, 2))
	assert.Equal(t, -3, floorDiv(-5, 2))
	assert.Equal(t, -50, floorDiv(-100, 2))
	assert.Equal(t, 0, floorDiv(0, 2))
}

func TestNewFactory(t *testing.T) {
	a, err := New(KindRules, WithPlayer(domain.O))
	require.NoError(t, err)
	assert.IsType(t, &RuleBased{}, a)
	assert.Equal(t, domain.O, a.Player())

	a, err = New(KindTree, WithPlayer(domain.X), WithTrees(sharedTrees))
	require.NoError(t, err)
	assert.IsType(t, &TreeSearch{}, a)

	_, err = New(KindNone)
	assert.Error(t, err)
}

func TestTreePositionsAreConsistent(t *testing.T) {
	tree := fullTree(t)
	g := domain.NewGame(domain.WithSize(tree.Size()), domain.WithInitialPlayer(tree.FirstPlayer()))

	var positions, mismatches, badCells, badWinner int
	var walk func(n NodeID)
	walk = func(n NodeID) {
		positions++
		for _, p := range []domain.State{domain.X, domain.O} {
			moves := g.WinningMoves(p)
			if (len(moves) > 0) != g.HasWon(p) {
				mismatches++
			}
			for _, m := range moves {
				if m.Player != p {
					mismatches++
				}
			}
		}
		for _, row := range g.Board().Rows() {
			for _, f := range row {
				if !f.State.Valid() {
					badCells++
				}
			}
		}
		if tree.Winner(n) != g.WinningPlayer() {
			badWinner++
		}
		for _, c := range tree.Children(n) {
			m := tree.Move(c)
			require.NoError(t, g.ApplyMove(m))
			walk(c)
			require.NoError(t, g.UndoMove(m))
		}
	}
	walk(tree.Root())

	assert.Equal(t, tree.Len(), positions)
	assert.Zero(t, mismatches, "winning moves disagree with HasWon")
	assert.Zero(t, badCells, "invalid cell state")
	assert.Zero(t, badWinner, "node winner disagrees with board")
	assert.True(t, g.IsEmpty())
}
