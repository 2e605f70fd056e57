package ws

import (
	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

// ---- Client -> Server ----
type ClientMsg struct {
	Type string `json:"type"`          // "move" | "undo" | "reset" | "ping"
	Row  *int   `json:"row,omitempty"` // for "move"
	Col  *int   `json:"col,omitempty"` // for "move"
}

// ---- Server -> Client ----
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type MoveInfo struct {
	Cell
	By string `json:"by"`
}

type State struct {
	Type    string     `json:"type"` // "state"
	ID      string     `json:"id"`
	Size    int        `json:"size"`
	Board   []string   `json:"board"` // row-major, "" for free cells
	Turn    string     `json:"turn"`
	Status  string     `json:"status"`
	Winner  string     `json:"winner,omitempty"`
	Winning []Cell     `json:"winning,omitempty"`
	History []MoveInfo `json:"history"`
	You     string     `json:"you,omitempty"`
}

type Error struct {
	Type   string `json:"type"` // "error"
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

type Pong struct {
	Type string `json:"type"` // "pong"
}

func symbol(s domain.State) string {
	if s.IsPlayer() {
		return s.String()
	}
	return ""
}

// NewState converts a game snapshot for the player sitting on you.
func NewState(gs app.GameState, you domain.State) State {
	g := gs.Game
	b := g.Board()
	st := State{
		Type:    "state",
		ID:      gs.ID,
		Size:    b.Size(),
		Board:   make([]string, 0, b.Size()*b.Size()),
		Turn:    symbol(g.CurrentPlayer()),
		Status:  g.Status().String(),
		Winner:  symbol(g.WinningPlayer()),
		History: []MoveInfo{},
		You:     symbol(you),
	}
	for _, row := range b.Rows() {
		for _, f := range row {
			st.Board = append(st.Board, symbol(f.State))
		}
	}
	for _, m := range g.WinningMoves() {
		st.Winning = append(st.Winning, Cell{Row: m.Index.Row, Col: m.Index.Col})
	}
	for _, m := range g.History() {
		st.History = append(st.History, MoveInfo{Cell: Cell{Row: m.Index.Row, Col: m.Index.Col}, By: symbol(m.Player)})
	}
	return st
}
