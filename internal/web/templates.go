package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"cellSymbol": func(s domain.State) string {
			if s.IsPlayer() {
				return s.String()
			}
			return ""
		},
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>TicTacToe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}.row form{margin:0}
.row button{width:3em;height:3em;font-size:1.5em}
.row button.win{background:#9c9}
.alert{color:#c00}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="board" hx-sse="swap:board">{{template "board" .}}</div>
</div>
<p><a href="/">New game</a></p>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const indexTemplate = `<h1>TicTacToe</h1>
<form action="/game" method="post">
  <label>Size <input type="number" name="size" min="1" max="9" value="{{.Size}}"></label>
  <label>Opponent
    <select name="ai">
      <option value="tree"{{if eq .AI "tree"}} selected{{end}}>Game tree</option>
      <option value="rules"{{if eq .AI "rules"}} selected{{end}}>Rules</option>
      <option value="none"{{if eq .AI "none"}} selected{{end}}>Human</option>
    </select>
  </label>
  <label>Computer plays
    <select name="side">
      <option value="O"{{if eq .AISide.String "O"}} selected{{end}}>O</option>
      <option value="X"{{if eq .AISide.String "X"}} selected{{end}}>X</option>
    </select>
  </label>
  <button>Create</button>
</form>`

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <p class="status">{{.Status}}</p>
  {{range .Rows}}
  <div class="row">
    {{range .}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{.Row}}">
        <input type="hidden" name="c" value="{{.Col}}">
        <button type="submit"{{if .Win}} class="win"{{end}}>{{cellSymbol .State}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
  <div class="controls">
    <form hx-post="/game/{{.ID}}/undo" hx-target="#board" hx-swap="outerHTML" method="post"><button>Undo</button></form>
    <form hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML" method="post"><button>Reset</button></form>
  </div>
</div>
`

type cellView struct {
	Row, Col int
	State    domain.State
	Win      bool
}

// boardView is what the board template renders.
type boardView struct {
	ID     string
	Size   int
	Rows   [][]cellView
	Status string
	Error  string
}

func newBoardView(gs app.GameState, errMsg string) boardView {
	g := gs.Game
	win := make(map[domain.Index]bool)
	for _, m := range g.WinningMoves() {
		win[m.Index] = true
	}
	b := g.Board()
	v := boardView{ID: gs.ID, Size: b.Size(), Status: statusLine(gs), Error: errMsg}
	for _, row := range b.Rows() {
		cells := make([]cellView, 0, len(row))
		for _, f := range row {
			cells = append(cells, cellView{Row: f.Index.Row, Col: f.Index.Col, State: f.State, Win: win[f.Index]})
		}
		v.Rows = append(v.Rows, cells)
	}
	return v
}

func statusLine(gs app.GameState) string {
	g := gs.Game
	switch g.Status() {
	case domain.StatusWon:
		return g.WinningPlayer().String() + " has won!"
	case domain.StatusStalemate:
		return "Stalemate"
	}
	return g.CurrentPlayer().String() + " to move"
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
	return v
}
