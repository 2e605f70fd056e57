// Package ai implements computer opponents for the tic-tac-toe domain.
//
// Every strategy answers NextMove queries against a board, is told about
// each accepted move through MoveCallback and can be reset with NewGame.
// Strategies never mutate the game they are playing.
package ai

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

// ErrCannotComputeMove is returned when a strategy has no move to offer,
// which only happens on a full or finished board.
var ErrCannotComputeMove = errors.New("cannot compute move")

// AI is a computer player.
type AI interface {
	// Player is the side the AI plays.
	Player() domain.State
	NextMove(b *domain.Board) (domain.Move, error)
	MoveCallback(m domain.Move) error
	NewGame()
}

// Kind names a strategy.
type Kind string

const (
	KindNone  Kind = "none"
	KindRules Kind = "rules"
	KindTree  Kind = "tree"
)

// ParseKind accepts a strategy name, case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "human":
		return KindNone, nil
	case "rules", "rule", "explicit":
		return KindRules, nil
	case "tree", "treesearch", "tree-search":
		return KindTree, nil
	}
	return KindNone, fmt.Errorf("unknown ai kind %q", s)
}

func (k Kind) String() string { return string(k) }

type options struct {
	player domain.State
	rng    *rand.Rand
	size   int
	first  domain.State
	trees  *Trees
}

// Option configures a strategy.
type Option func(*options)

// WithPlayer fixes the side. Without it the side is drawn at random and
// re-drawn on every NewGame.
func WithPlayer(p domain.State) Option {
	return func(o *options) { o.player = p }
}

// WithRand sets the random source used for side selection and openings.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithSize sets the board size the strategy will play on.
func WithSize(n int) Option {
	return func(o *options) { o.size = n }
}

// WithFirstPlayer sets who opens the games the strategy will play.
func WithFirstPlayer(p domain.State) Option {
	return func(o *options) { o.first = p }
}

// WithTrees shares a tree cache between tree-search players.
func WithTrees(t *Trees) Option {
	return func(o *options) { o.trees = t }
}

func collect(opts []Option) options {
	o := options{size: domain.DefaultSize, first: domain.X}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if !o.first.IsPlayer() {
		o.first = domain.X
	}
	return o
}

// New builds a strategy of the given kind.
func New(kind Kind, opts ...Option) (AI, error) {
	o := collect(opts)
	switch kind {
	case KindRules:
		return NewRuleBased(opts...), nil
	case KindTree:
		trees := o.trees
		if trees == nil {
			trees = defaultTrees
		}
		tree, err := trees.Get(o.size, o.first)
		if err != nil {
			return nil, err
		}
		return NewTreeSearch(tree, opts...), nil
	}
	return nil, fmt.Errorf("no strategy for ai kind %q", kind)
}

// Base keeps the side bookkeeping shared by all strategies.
type Base struct {
	player   domain.State
	opponent domain.State
	random   bool
	rng      *rand.Rand
}

func newBase(o options) Base {
	b := Base{rng: o.rng}
	if o.player.IsPlayer() {
		b.setPlayer(o.player)
	} else {
		b.random = true
		b.setPlayer(b.pickSide())
	}
	return b
}

func (b *Base) pickSide() domain.State {
	if b.rng.Intn(2) == 0 {
		return domain.X
	}
	return domain.O
}

func (b *Base) setPlayer(p domain.State) {
	b.player = p
	b.opponent = p.Next()
}

func (b *Base) Player() domain.State { return b.player }

func (b *Base) Opponent() domain.State { return b.opponent }

// MoveCallback ignores notifications.
func (b *Base) MoveCallback(domain.Move) error { return nil }

// NewGame re-draws the side when it was not fixed at construction.
func (b *Base) NewGame() {
	if b.random {
		b.setPlayer(b.pickSide())
	}
}
