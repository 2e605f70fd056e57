package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jaminalder/tictactoe-ai/internal/ai"
	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

// helper to make ws:// URL from httptest server
func wsURLFromHTTP(u string) string {
	return "ws" + strings.TrimPrefix(u, "http")
}

func newTestServer(t *testing.T, opts app.Options) (*app.Service, string, string) {
	t.Helper()
	svc := app.NewService()
	gs, err := svc.CreateGame(context.Background(), opts)
	require.NoError(t, err)
	ts := httptest.NewServer(Handler(svc, func(r *http.Request) string { return r.URL.Query().Get("game") }))
	t.Cleanup(ts.Close)
	return svc, wsURLFromHTTP(ts.URL), gs.ID
}

func dial(ctx context.Context, t *testing.T, base, game, player string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.Dial(ctx, base+"?game="+game+"&player="+player, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "bye") })
	return c
}

func readState(ctx context.Context, t *testing.T, c *websocket.Conn) State {
	t.Helper()
	var st State
	require.NoError(t, wsjson.Read(ctx, c, &st))
	require.Equal(t, "state", st.Type)
	return st
}

func intPtr(i int) *int { return &i }

func TestWSJoinMoveAndBroadcast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, base, id := newTestServer(t, app.Options{AI: ai.KindNone})

	cx := dial(ctx, t, base, id, "p1")
	sx := readState(ctx, t, cx)
	assert.Equal(t, "X", sx.You)
	assert.Equal(t, 3, sx.Size)
	assert.Len(t, sx.Board, 9)
	assert.Equal(t, "X", sx.Turn)

	co := dial(ctx, t, base, id, "p2")
	so := readState(ctx, t, co)
	assert.Equal(t, "O", so.You)

	require.NoError(t, wsjson.Write(ctx, cx, ClientMsg{Type: "move", Row: intPtr(1), Col: intPtr(2)}))
	for _, c := range []*websocket.Conn{cx, co} {
		st := readState(ctx, t, c)
		assert.Equal(t, "X", st.Board[5])
		assert.Equal(t, "O", st.Turn)
		assert.Equal(t, []MoveInfo{{Cell: Cell{Row: 1, Col: 2}, By: "X"}}, st.History)
	}
}

func TestWSErrorsGoToSenderOnly(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, base, id := newTestServer(t, app.Options{AI: ai.KindNone})

	cx := dial(ctx, t, base, id, "p1")
	readState(ctx, t, cx)
	co := dial(ctx, t, base, id, "p2")
	readState(ctx, t, co)

	require.NoError(t, wsjson.Write(ctx, co, ClientMsg{Type: "move", Row: intPtr(0), Col: intPtr(0)}))
	var e Error
	require.NoError(t, wsjson.Read(ctx, co, &e))
	assert.Equal(t, "error", e.Type)
	assert.Equal(t, "not_your_turn", e.Code)

	require.NoError(t, wsjson.Write(ctx, co, ClientMsg{Type: "move"}))
	require.NoError(t, wsjson.Read(ctx, co, &e))
	assert.Equal(t, "bad_request", e.Code)

	require.NoError(t, wsjson.Write(ctx, co, ClientMsg{Type: "ping"}))
	var p Pong
	require.NoError(t, wsjson.Read(ctx, co, &p))
	assert.Equal(t, "pong", p.Type)
}

func TestWSComputerReplyArrivesInOneState(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, base, id := newTestServer(t, app.Options{AI: ai.KindRules, AISide: domain.O})

	c := dial(ctx, t, base, id, "p1")
	st := readState(ctx, t, c)
	require.Equal(t, "X", st.You)

	require.NoError(t, wsjson.Write(ctx, c, ClientMsg{Type: "move", Row: intPtr(1), Col: intPtr(1)}))
	st = readState(ctx, t, c)
	require.Len(t, st.History, 2)
	assert.Equal(t, "O", st.History[1].By)
	assert.Equal(t, "X", st.Turn)

	require.NoError(t, wsjson.Write(ctx, c, ClientMsg{Type: "undo"}))
	st = readState(ctx, t, c)
	assert.Empty(t, st.History)
}

func TestWSUnknownGame(t *testing.T) {
	_, base, _ := newTestServer(t, app.Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, base+"?game=missing", nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}

func TestNewStateWinningCells(t *testing.T) {
	g := domain.New()
	for _, rc := range [][2]int{{0, 0}, {1, 0}, {1, 1}, {2, 0}, {2, 2}} {
		require.NoError(t, g.PlayAt(rc[0], rc[1]))
	}
	st := NewState(app.GameState{ID: "g", Game: g}, domain.Empty)
	assert.Equal(t, "X", st.Winner)
	assert.Equal(t, "won", st.Status)
	assert.Equal(t, []Cell{{0, 0}, {1, 1}, {2, 2}}, st.Winning)
	assert.Empty(t, st.You)
}
