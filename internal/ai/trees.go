package ai

import (
	"context"
	"sync"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

var defaultTrees = NewTrees()

type treeKey struct {
	size  int
	first domain.State
}

type treeEntry struct {
	once sync.Once
	tree *Tree
	err  error
}

// Trees builds each game tree at most once and hands out the shared copy.
type Trees struct {
	mu      sync.Mutex
	entries map[treeKey]*treeEntry
}

func NewTrees() *Trees {
	return &Trees{entries: make(map[treeKey]*treeEntry)}
}

func (t *Trees) entry(k treeKey) *treeEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[k]
	if !ok {
		e = &treeEntry{}
		t.entries[k] = e
	}
	return e
}

// Get returns the tree for the given size and opening player, building it
// on first use. Concurrent callers wait for the same build.
func (t *Trees) Get(size int, first domain.State) (*Tree, error) {
	if size <= 0 {
		size = domain.DefaultSize
	}
	if !first.IsPlayer() {
		first = domain.X
	}
	e := t.entry(treeKey{size, first})
	e.once.Do(func() { e.tree, e.err = BuildTree(size, first) })
	return e.tree, e.err
}

// Warm builds a tree in the background. The returned channel yields the
// build error (nil on success), or ctx.Err() if ctx ends first, and is
// then closed.
func (t *Trees) Warm(ctx context.Context, size int, first domain.State) <-chan error {
	out := make(chan error, 1)
	built := make(chan error, 1)
	go func() {
		_, err := t.Get(size, first)
		built <- err
	}()
	go func() {
		defer close(out)
		select {
		case err := <-built:
			out <- err
		case <-ctx.Done():
			out <- ctx.Err()
		}
	}()
	return out
}
