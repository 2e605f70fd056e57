package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaminalder/tictactoe-ai/internal/ai"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

// Errors exposed by the service layer.
var (
	ErrNotFound      = errors.New("game not found")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNotAPlayer    = errors.New("not a player")
	ErrGameOver      = errors.New("game over")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// AISeat is the seat owner recorded for the computer player.
const AISeat = "ai"

// Options configure a new game.
type Options struct {
	Size          int
	InitialPlayer domain.State
	AI            ai.Kind
	AISide        domain.State
}

// DefaultOptions is a 3x3 game, X opens, tree search plays O.
func DefaultOptions() Options {
	return Options{Size: domain.DefaultSize, InitialPlayer: domain.X, AI: ai.KindTree, AISide: domain.O}
}

func (o Options) normalize() Options {
	if o.Size <= 0 {
		o.Size = domain.DefaultSize
	}
	if !o.InitialPlayer.IsPlayer() {
		o.InitialPlayer = domain.X
	}
	if o.AI == "" {
		o.AI = ai.KindNone
	}
	if o.AI != ai.KindNone && !o.AISide.IsPlayer() {
		o.AISide = domain.O
	}
	return o
}

// GameState is a snapshot of a game and its seats.
type GameState struct {
	ID      string
	Game    *domain.Game
	X       string
	O       string
	AI      ai.Kind
	AISide  domain.State
	Created time.Time
	Updated time.Time
}

// Seat returns who holds side p.
func (gs GameState) Seat(p domain.State) string {
	switch p {
	case domain.X:
		return gs.X
	case domain.O:
		return gs.O
	}
	return ""
}

// session is the live state tracked per game. mu guards everything but id;
// it is taken before Service.mu when both are needed.
type session struct {
	mu      sync.Mutex
	id      string
	game    *domain.Game
	x, o    string
	kind    ai.Kind
	bot     ai.AI
	created time.Time
	updated time.Time
}

func (s *session) snapshot() GameState {
	gs := GameState{
		ID:      s.id,
		Game:    s.game.Clone(),
		X:       s.x,
		O:       s.o,
		AI:      s.kind,
		Created: s.created,
		Updated: s.updated,
	}
	if s.bot != nil {
		gs.AISide = s.bot.Player()
	}
	return gs
}

func (s *session) seatOf(playerID string) domain.State {
	switch playerID {
	case "", AISeat:
		return domain.Empty
	case s.x:
		return domain.X
	case s.o:
		return domain.O
	}
	return domain.Empty
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games, their computer opponents and subscribers. Its mutex
// guards the maps and the renderer; each session has its own lock so a slow
// computer turn only holds up its own game.
type Service struct {
	mu       sync.Mutex
	games    map[string]*session
	subs     map[string]map[*subscriber]struct{}
	render   func(GameState) []byte
	trees    *ai.Trees
	seed     func() int64
	log      *log.Logger
	defaults Options
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRenderer sets the broadcast payload renderer.
func WithRenderer(renderer func(GameState) []byte) ServiceOption {
	return func(s *Service) { s.setRenderer(renderer) }
}

// WithTrees shares a game tree cache with the service.
func WithTrees(t *ai.Trees) ServiceOption {
	return func(s *Service) { s.trees = t }
}

// WithSeed makes computer openings reproducible.
func WithSeed(seed func() int64) ServiceOption {
	return func(s *Service) { s.seed = seed }
}

// WithDefaults sets the options new games start from.
func WithDefaults(o Options) ServiceOption {
	return func(s *Service) { s.defaults = o.normalize() }
}

// WithLogger sets where the service reports AI activity.
func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// NewService creates a service.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		games:    make(map[string]*session),
		subs:     make(map[string]map[*subscriber]struct{}),
		trees:    ai.NewTrees(),
		seed:     func() int64 { return time.Now().UnixNano() },
		log:      log.New(io.Discard, "", 0),
		defaults: DefaultOptions(),
	}
	s.setRenderer(nil)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(renderer func(GameState) []byte) *Service {
	return NewService(WithRenderer(renderer))
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRenderer(renderer)
}

func (s *Service) setRenderer(renderer func(GameState) []byte) {
	if renderer == nil {
		renderer = func(GameState) []byte { return nil }
	}
	s.render = renderer
}

// CreateGame creates and registers a new game. When the computer owns the
// opening side it moves before CreateGame returns.
func (s *Service) CreateGame(ctx context.Context, opts Options) (*GameState, error) {
	opts = opts.normalize()
	if err := domain.CheckSize(opts.Size); err != nil {
		return nil, err
	}
	bot, err := s.newBot(opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &session{
		id:      uuid.NewString(),
		game:    domain.NewGame(domain.WithSize(opts.Size), domain.WithInitialPlayer(opts.InitialPlayer)),
		kind:    opts.AI,
		bot:     bot,
		created: now,
		updated: now,
	}
	if bot != nil {
		switch bot.Player() {
		case domain.X:
			sess.x = AISeat
		case domain.O:
			sess.o = AISeat
		}
	}
	if err := s.botTurn(sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[sess.id] = sess
	cp := sess.snapshot()
	return &cp, nil
}

// newBot builds the computer player. Tree construction may take a while, so
// it runs before the service lock is taken.
func (s *Service) newBot(opts Options) (ai.AI, error) {
	if opts.AI == ai.KindNone {
		return nil, nil
	}
	start := time.Now()
	bot, err := ai.New(opts.AI,
		ai.WithPlayer(opts.AISide),
		ai.WithSize(opts.Size),
		ai.WithFirstPlayer(opts.InitialPlayer),
		ai.WithTrees(s.trees),
		ai.WithRand(rand.New(rand.NewSource(s.seed()))),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s ai: %w", opts.AI, err)
	}
	s.log.Printf("ai %s ready as %v in %v", opts.AI, bot.Player(), time.Since(start))
	return bot, nil
}

// Defaults returns the options new games start from.
func (s *Service) Defaults() Options { return s.defaults }

func (s *Service) lookup(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	return sess, ok
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	sess, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	cp := sess.snapshot()
	return &cp, true
}

// Join assigns a seat to the player if available; returns Empty for spectators.
func (s *Service) Join(id, playerID string) (domain.State, *GameState, error) {
	sess, ok := s.lookup(id)
	if !ok {
		return domain.Empty, nil, ErrNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	side := domain.Empty
	if playerID != "" && playerID != AISeat {
		if sess.x == "" || sess.x == playerID {
			sess.x = playerID
			side = domain.X
		} else if sess.o == "" || sess.o == playerID {
			sess.o = playerID
			side = domain.O
		}
	}
	sess.updated = time.Now()
	cp := sess.snapshot()
	return side, &cp, nil
}

// Play validates seat and turn, applies a move, lets the computer answer
// and broadcasts the result.
func (s *Service) Play(id, playerID string, r, c int) (*GameState, error) {
	return s.mutate(id, func(sess *session) error {
		seat := sess.seatOf(playerID)
		if seat == domain.Empty {
			return ErrNotAPlayer
		}
		if sess.game.GameOver() {
			return ErrGameOver
		}
		if seat != sess.game.CurrentPlayer() {
			return ErrNotYourTurn
		}
		m := domain.At(r, c, seat)
		if err := sess.game.Play(m); err != nil {
			return err
		}
		if err := s.notify(sess, m); err != nil {
			return err
		}
		return s.botTurn(sess)
	})
}

// Undo takes back moves until it is the caller's turn again: their own
// last move and, against the computer, its reply.
func (s *Service) Undo(id, playerID string) (*GameState, error) {
	return s.mutate(id, func(sess *session) error {
		seat := sess.seatOf(playerID)
		if seat == domain.Empty {
			return ErrNotAPlayer
		}
		history := sess.game.History()
		n := 0
		for i := len(history) - 1; i >= 0; i-- {
			n++
			if history[i].Player == seat {
				break
			}
		}
		if n == 0 || history[len(history)-n].Player != seat {
			return ErrNothingToUndo
		}
		for i := 0; i < n; i++ {
			if err := sess.game.Undo(); err != nil {
				return err
			}
		}
		return s.resync(sess)
	})
}

// Reset restarts the game with the same seats.
func (s *Service) Reset(id, playerID string) (*GameState, error) {
	return s.mutate(id, func(sess *session) error {
		if sess.seatOf(playerID) == domain.Empty {
			return ErrNotAPlayer
		}
		sess.game.Clear()
		if sess.bot != nil {
			sess.bot.NewGame()
		}
		return s.botTurn(sess)
	})
}

// mutate runs fn under the session lock, then broadcasts the new state.
// The session stays locked through the fan-out so updates of one game reach
// subscribers in order. On error the current state is still returned.
func (s *Service) mutate(id string, fn func(*session) error) (*GameState, error) {
	var toDrop []*subscriber

	sess, ok := s.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess); err != nil {
		cp := sess.snapshot()
		return &cp, err
	}
	sess.updated = time.Now()

	// Snapshot state and subscribers
	cp := sess.snapshot()
	s.mu.Lock()
	subs := s.copySubsLocked(id)
	render := s.render
	s.mu.Unlock()
	payload := render(cp)

	// Fan-out; drop slow subscribers by closing and marking for deletion
	for sub := range subs {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) > 0 {
		s.mu.Lock()
		for _, sub := range toDrop {
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
		}
		s.mu.Unlock()
	}
	return &cp, nil
}

// botTurn lets the computer move while it holds the turn.
func (s *Service) botTurn(sess *session) error {
	if sess.bot == nil {
		return nil
	}
	for !sess.game.GameOver() && sess.game.CurrentPlayer() == sess.bot.Player() {
		m, err := sess.bot.NextMove(sess.game.Board())
		if err != nil {
			s.log.Printf("game %s: ai failed to compute move: %v", sess.id, err)
			return fmt.Errorf("ai move: %w", err)
		}
		if err := sess.game.Play(m); err != nil {
			return fmt.Errorf("ai move: %w", err)
		}
		if err := s.notify(sess, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) notify(sess *session, m domain.Move) error {
	if sess.bot == nil {
		return nil
	}
	if err := sess.bot.MoveCallback(m); err != nil {
		return fmt.Errorf("ai callback: %w", err)
	}
	return nil
}

// resync replays the history into a freshly reset computer player.
func (s *Service) resync(sess *session) error {
	if sess.bot == nil {
		return nil
	}
	side := sess.bot.Player()
	sess.bot.NewGame()
	if sess.bot.Player() != side {
		return fmt.Errorf("ai changed side from %v to %v", side, sess.bot.Player())
	}
	for _, m := range sess.game.History() {
		if err := s.notify(sess, m); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}
