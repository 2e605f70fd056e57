package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/jaminalder/tictactoe-ai/internal/ai"
	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/arena"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
	"github.com/jaminalder/tictactoe-ai/internal/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ttt",
		Usage: "tic-tac-toe against a rule-based or game-tree computer player",
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "play in the terminal; enter \"row col\", u to undo, n for a new game, q to quit",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "size", Value: domain.DefaultSize, EnvVars: []string{"BOARD_SIZE"}},
					&cli.StringFlag{Name: "ai", Value: "tree", Usage: "none, rules or tree", EnvVars: []string{"AI"}},
					&cli.StringFlag{Name: "side", Value: "O", Usage: "side of the computer", EnvVars: []string{"AI_SIDE"}},
					&cli.StringFlag{Name: "first", Value: "X", Usage: "player that opens", EnvVars: []string{"INITIAL_PLAYER"}},
					&cli.BoolFlag{Name: "plain", Usage: "no colours"},
				},
				Action: playAction,
			},
			{
				Name:  "arena",
				Usage: "play two computer players against each other",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "p1", Value: "tree"},
					&cli.StringFlag{Name: "p2", Value: "rules"},
					&cli.IntFlag{Name: "games", Value: 100},
					&cli.IntFlag{Name: "workers", Value: 2},
					&cli.IntFlag{Name: "size", Value: domain.DefaultSize},
					&cli.Int64Flag{Name: "seed", Usage: "0 picks a time based seed"},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print every game"},
					&cli.BoolFlag{Name: "plain", Usage: "no colours"},
				},
				Action: arenaAction,
			},
		},
	}
}

func renderer(c *cli.Context) *render.Renderer {
	if c.Bool("plain") {
		return render.Plain(c.App.Writer)
	}
	return render.New(c.App.Writer)
}

func parseSide(name, v string) (domain.State, error) {
	p, err := domain.ParseState(v)
	if err != nil || !p.IsPlayer() {
		return domain.Empty, fmt.Errorf("--%s must be X or O, got %q", name, v)
	}
	return p, nil
}

func playAction(c *cli.Context) error {
	kind, err := ai.ParseKind(c.String("ai"))
	if err != nil {
		return err
	}
	side, err := parseSide("side", c.String("side"))
	if err != nil {
		return err
	}
	first, err := parseSide("first", c.String("first"))
	if err != nil {
		return err
	}
	if err := domain.CheckSize(c.Int("size")); err != nil {
		return err
	}

	svc := app.NewService()
	gs, err := svc.CreateGame(c.Context, app.Options{Size: c.Int("size"), InitialPlayer: first, AI: kind, AISide: side})
	if err != nil {
		return err
	}
	// Against the computer there is one human seat; otherwise both seats
	// are played from this terminal.
	players := map[domain.State]string{}
	for _, id := range []string{"player-1", "player-2"} {
		if p, _, err := svc.Join(gs.ID, id); err == nil && p.IsPlayer() {
			players[p] = id
		}
	}
	human := players[side.Next()]
	if kind == ai.KindNone {
		human = players[domain.X]
	}
	return playLoop(c.Context, svc, gs.ID, players, human, renderer(c), c.App.Reader, c.App.Writer)
}

func playLoop(ctx context.Context, svc *app.Service, id string, players map[domain.State]string, human string,
	out *render.Renderer, in io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(in)
	for ctx.Err() == nil {
		gs, ok := svc.Get(id)
		if !ok {
			return app.ErrNotFound
		}
		fmt.Fprint(w, out.Game(gs.Game))
		fmt.Fprintln(w, out.Status(gs.Game))
		fmt.Fprint(w, "> ")
		if !sc.Scan() {
			fmt.Fprintln(w)
			return sc.Err()
		}

		pid := players[gs.Game.CurrentPlayer()]
		if pid == "" {
			pid = human
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "q", "quit":
			return nil
		case "u", "undo":
			_, err := svc.Undo(id, pid)
			report(w, err)
		case "n", "new":
			_, err := svc.Reset(id, pid)
			report(w, err)
		case "":
		default:
			r, col, err := parseCell(line)
			if err == nil {
				_, err = svc.Play(id, pid, r, col)
			}
			report(w, err)
		}
	}
	return ctx.Err()
}

func parseCell(s string) (int, int, error) {
	f := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(f) != 2 {
		return 0, 0, fmt.Errorf("enter a move as \"row col\", got %q", s)
	}
	r, err := strconv.Atoi(f[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad row %q", f[0])
	}
	c, err := strconv.Atoi(f[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad column %q", f[1])
	}
	return r, c, nil
}

func report(w io.Writer, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, app.ErrGameOver):
		fmt.Fprintln(w, "game over, n starts a new one")
	case errors.Is(err, app.ErrNothingToUndo):
		fmt.Fprintln(w, "nothing to undo")
	default:
		fmt.Fprintln(w, err)
	}
}

func arenaAction(c *cli.Context) error {
	size := c.Int("size")
	if err := domain.CheckSize(size); err != nil {
		return err
	}
	trees := ai.NewTrees()
	factory := func(flag string) (arena.Factory, error) {
		kind, err := ai.ParseKind(c.String(flag))
		if err != nil {
			return nil, err
		}
		if kind == ai.KindNone {
			return nil, fmt.Errorf("--%s needs a computer player", flag)
		}
		return arena.KindFactory(kind, size, trees), nil
	}
	p1, err := factory("p1")
	if err != nil {
		return err
	}
	p2, err := factory("p2")
	if err != nil {
		return err
	}

	out := renderer(c)
	a := &arena.Arena{
		Player1: p1,
		Player2: p2,
		Games:   c.Int("games"),
		Workers: c.Int("workers"),
		Size:    size,
		Seed:    c.Int64("seed"),
	}
	var (
		l     arena.Listener
		games chan arena.GameRecord
		done  = make(chan struct{})
	)
	if c.Bool("verbose") {
		// one printer so lines from different workers do not interleave
		games = make(chan arena.GameRecord)
		go func() {
			defer close(done)
			for r := range games {
				fmt.Fprintf(c.App.Writer, "worker %d game %d: p1 as %v, %s in %d moves\n",
					r.Worker, r.Game, r.P1Side, r.Result, len(r.Moves))
			}
		}()
		l = arena.ListenerFunc(func(r arena.GameRecord) { games <- r })
	}
	sum, err := a.Run(c.Context, l)
	if games != nil {
		close(games)
		<-done
	}
	fmt.Fprint(c.App.Writer, out.Summary(sum))
	return err
}
