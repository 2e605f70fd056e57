// Package arena plays series of games between two computer players.
package arena

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaminalder/tictactoe-ai/internal/ai"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

type Result int

const (
	P1Win Result = 1
	P2Win Result = -1
	Draw  Result = 0
)

func (r Result) String() string {
	switch r {
	case P1Win:
		return "p1"
	case P2Win:
		return "p2"
	}
	return "draw"
}

// Factory creates a player for one game on the given side.
type Factory func(side domain.State) (ai.AI, error)

// KindFactory builds players of one strategy on a board of the given size.
func KindFactory(kind ai.Kind, size int, trees *ai.Trees) Factory {
	return func(side domain.State) (ai.AI, error) {
		return ai.New(kind, ai.WithPlayer(side), ai.WithSize(size), ai.WithTrees(trees))
	}
}

// GameRecord describes one finished game.
type GameRecord struct {
	Worker int
	Game   int
	P1Side domain.State
	Moves  []domain.Move
	Winner domain.State
	Result Result
}

type Summary struct {
	Games   int
	P1Wins  int
	P2Wins  int
	Draws   int
	Workers int
	Elapsed time.Duration
}

// Listener is told about every finished game. Workers call it concurrently.
type Listener interface {
	OnGameFinished(GameRecord)
}

type ListenerFunc func(GameRecord)

func (f ListenerFunc) OnGameFinished(r GameRecord) { f(r) }

type nopListener struct{}

func (nopListener) OnGameFinished(GameRecord) {}

type stats struct {
	p1Wins uint32
	p2Wins uint32
	draws  uint32
}

func (s *stats) add(r Result) {
	switch r {
	case P1Win:
		atomic.AddUint32(&s.p1Wins, 1)
	case P2Win:
		atomic.AddUint32(&s.p2Wins, 1)
	default:
		atomic.AddUint32(&s.draws, 1)
	}
}

// Arena pits Player1 against Player2. The opener, playing X, is drawn at
// random for every game.
type Arena struct {
	Player1 Factory
	Player2 Factory
	Games   int
	Workers int
	Size    int
	Seed    int64
}

func (a *Arena) defaults() {
	if a.Games <= 0 {
		a.Games = 100
	}
	if a.Workers <= 0 {
		a.Workers = 2
	}
	if a.Workers > a.Games {
		a.Workers = a.Games
	}
	if a.Size <= 0 {
		a.Size = domain.DefaultSize
	}
	if a.Seed == 0 {
		a.Seed = time.Now().UnixNano()
	}
}

// Run plays all games and returns the totals. The first player error stops
// every worker and is returned; cancelling ctx stops between moves.
func (a *Arena) Run(ctx context.Context, l Listener) (Summary, error) {
	a.defaults()
	if err := domain.CheckSize(a.Size); err != nil {
		return Summary{}, err
	}
	if l == nil {
		l = nopListener{}
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	var (
		st       stats
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	// Equally distribute work between workers
	per, rest := a.Games/a.Workers, a.Games%a.Workers
	for i := 0; i < a.Workers; i++ {
		n := per
		if i < rest {
			n++
		}
		wg.Add(1)
		go func(id, n int) {
			defer wg.Done()
			if err := a.worker(ctx, id, n, &st, l); err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(i, n)
	}
	wg.Wait()

	sum := Summary{
		P1Wins:  int(atomic.LoadUint32(&st.p1Wins)),
		P2Wins:  int(atomic.LoadUint32(&st.p2Wins)),
		Draws:   int(atomic.LoadUint32(&st.draws)),
		Workers: a.Workers,
		Elapsed: time.Since(start),
	}
	sum.Games = sum.P1Wins + sum.P2Wins + sum.Draws
	if firstErr != nil {
		return sum, firstErr
	}
	return sum, ctx.Err()
}

func (a *Arena) worker(ctx context.Context, id, n int, st *stats, l Listener) error {
	r := rand.New(rand.NewSource(a.Seed + int64(id)))
	for i := 0; i < n; i++ {
		p1Side := domain.X
		if r.Int()%2 == 1 {
			p1Side = domain.O
		}
		rec, err := a.play(ctx, p1Side)
		if err != nil {
			return fmt.Errorf("worker %d game %d: %w", id, i, err)
		}
		rec.Worker, rec.Game = id, i
		st.add(rec.Result)
		l.OnGameFinished(rec)
	}
	return nil
}

func (a *Arena) play(ctx context.Context, p1Side domain.State) (GameRecord, error) {
	p1, err := a.Player1(p1Side)
	if err != nil {
		return GameRecord{}, fmt.Errorf("player 1: %w", err)
	}
	p2, err := a.Player2(p1Side.Next())
	if err != nil {
		return GameRecord{}, fmt.Errorf("player 2: %w", err)
	}
	players := map[domain.State]ai.AI{p1Side: p1, p1Side.Next(): p2}

	g := domain.NewGame(domain.WithSize(a.Size))
	for !g.GameOver() {
		if err := ctx.Err(); err != nil {
			return GameRecord{}, err
		}
		m, err := players[g.CurrentPlayer()].NextMove(g.Board())
		if err != nil {
			return GameRecord{}, fmt.Errorf("%v to move: %w", g.CurrentPlayer(), err)
		}
		if err := g.Play(m); err != nil {
			return GameRecord{}, fmt.Errorf("%v played %v: %w", g.CurrentPlayer(), m, err)
		}
		for _, p := range []ai.AI{p1, p2} {
			if err := p.MoveCallback(m); err != nil {
				return GameRecord{}, err
			}
		}
	}

	rec := GameRecord{P1Side: p1Side, Moves: g.History(), Winner: g.WinningPlayer()}
	switch rec.Winner {
	case domain.Empty:
		rec.Result = Draw
	case p1Side:
		rec.Result = P1Win
	default:
		rec.Result = P2Win
	}
	return rec, nil
}
