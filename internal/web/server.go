package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/transport/ws"
)

// NewServer wires routes and returns an http.Handler. It installs the board
// fragment as the service's broadcast payload.
func NewServer(s *app.Service) http.Handler {
	r := chi.NewRouter()
	h := &handlers{svc: s, tpl: loadTemplates()}
	s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })
	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/join", h.join)
		r.Post("/play", h.play)
		r.Post("/undo", h.undo)
		r.Post("/reset", h.reset)
		r.Get("/events", h.events)
		r.Get("/ws", ws.Handler(s, func(r *http.Request) string { return chi.URLParam(r, "id") }))
	})
	return r
}
