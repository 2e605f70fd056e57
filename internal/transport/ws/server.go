package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jaminalder/tictactoe-ai/internal/ai"
	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

const writeTimeout = 5 * time.Second

// PlayerID reads the caller identity: the player_id cookie, else ?player=.
func PlayerID(r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("player")
}

// Handler upgrades to a WebSocket bound to the game that gameID extracts
// from the request. The connection joins the game, receives a state message
// after every change and may send moves, undo, reset and ping.
func Handler(svc *app.Service, gameID func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := gameID(r)
		if _, ok := svc.Get(id); !ok {
			http.NotFound(w, r)
			return
		}
		pid := PlayerID(r)
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		s := &session{svc: svc, conn: c, id: id, player: pid}
		if err := s.run(r.Context()); websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
			c.Close(websocket.StatusInternalError, "internal error")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

type session struct {
	svc    *app.Service
	conn   *websocket.Conn
	id     string
	player string
	side   domain.State
}

func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	side, gs, err := s.svc.Join(s.id, s.player)
	if err != nil {
		return err
	}
	s.side = side
	updates, unsub := s.svc.Subscribe(ctx, s.id)
	defer func() { unsub() }()
	if err := s.send(ctx, NewState(*gs, s.side)); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.readLoop(ctx) }()
	for {
		select {
		case err := <-done:
			return err
		case _, ok := <-updates:
			if !ok {
				// dropped as a slow subscriber; catch up from the latest state
				unsub()
				updates, unsub = s.svc.Subscribe(ctx, s.id)
			}
			gs, ok := s.svc.Get(s.id)
			if !ok {
				return app.ErrNotFound
			}
			if err := s.send(ctx, NewState(*gs, s.side)); err != nil {
				return err
			}
		}
	}
}

func (s *session) readLoop(ctx context.Context) error {
	for {
		var msg ClientMsg
		if err := wsjson.Read(ctx, s.conn, &msg); err != nil {
			return err
		}
		if err := s.handle(ctx, msg); err != nil {
			if err := s.send(ctx, newError(err)); err != nil {
				return err
			}
		}
	}
}

func (s *session) handle(ctx context.Context, msg ClientMsg) error {
	var err error
	switch msg.Type {
	case "move":
		if msg.Row == nil || msg.Col == nil {
			return errBadRequest
		}
		_, err = s.svc.Play(s.id, s.player, *msg.Row, *msg.Col)
	case "undo":
		_, err = s.svc.Undo(s.id, s.player)
	case "reset":
		_, err = s.svc.Reset(s.id, s.player)
	case "ping":
		return s.send(ctx, Pong{Type: "pong"})
	default:
		return errUnknownType
	}
	return err
}

func (s *session) send(ctx context.Context, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, s.conn, v)
}

var (
	errBadRequest  = errors.New("move needs row and col")
	errUnknownType = errors.New("unknown message type")
)

func newError(err error) Error {
	return Error{Type: "error", Code: errorCode(err), Detail: err.Error()}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, errUnknownType):
		return "bad_request"
	case errors.Is(err, app.ErrNotFound):
		return "not_found"
	case errors.Is(err, app.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, app.ErrNotAPlayer):
		return "not_a_player"
	case errors.Is(err, app.ErrGameOver):
		return "game_over"
	case errors.Is(err, app.ErrNothingToUndo):
		return "nothing_to_undo"
	case errors.Is(err, domain.ErrOccupied):
		return "occupied"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ai.ErrCannotComputeMove):
		return "ai_failed"
	default:
		return "illegal_move"
	}
}
