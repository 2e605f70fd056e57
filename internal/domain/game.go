package domain

// Status is the lifecycle stage of a game.
type Status uint8

const (
	StatusEmpty Status = iota
	StatusInProgress
	StatusWon
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusInProgress:
		return "in progress"
	case StatusWon:
		return "won"
	case StatusStalemate:
		return "stalemate"
	}
	return "unknown"
}

// Terminal reports whether no further moves are expected.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusStalemate }

// Game holds a board, whose turn it is and the moves played so far.
type Game struct {
	board   *Board
	current State
	initial State
	history []Move
}

// Option configures a new game.
type Option func(*Game)

// WithSize sets the board edge length.
func WithSize(n int) Option {
	return func(g *Game) { g.board = NewBoard(n) }
}

// WithInitialPlayer sets who opens. Non-players are ignored.
func WithInitialPlayer(p State) Option {
	return func(g *Game) {
		if p.IsPlayer() {
			g.initial = p
		}
	}
}

// NewGame returns an empty game.
func NewGame(opts ...Option) *Game {
	g := &Game{initial: X}
	for _, opt := range opts {
		opt(g)
	}
	if g.board == nil {
		g.board = NewBoard(DefaultSize)
	}
	g.current = g.initial
	return g
}

// New returns a new 3x3 game with X to move.
func New() *Game { return NewGame() }

// Board exposes the live board for read access.
func (g *Game) Board() *Board { return g.board }

func (g *Game) Size() int { return g.board.size }

func (g *Game) CurrentPlayer() State { return g.current }

func (g *Game) NextPlayer() State { return g.current.Next() }

func (g *Game) InitialPlayer() State { return g.initial }

// History returns a copy of the accepted moves in play order.
func (g *Game) History() []Move { return append([]Move(nil), g.history...) }

func (g *Game) LastMove() (Move, bool) {
	if len(g.history) == 0 {
		return Move{}, false
	}
	return g.history[len(g.history)-1], true
}

// FindMove returns the historical move played at idx.
func (g *Game) FindMove(idx Index) (Move, bool) {
	for _, m := range g.history {
		if m.Index == idx {
			return m, true
		}
	}
	return Move{}, false
}

// ApplyMove places m on the board without checking whose turn it is.
// The current player becomes m.Player.
func (g *Game) ApplyMove(m Move) error {
	if !m.Player.IsPlayer() {
		return illegal(m, ErrNotAPlayer)
	}
	if !g.board.InBounds(m.Index) {
		return illegal(m, ErrOutOfBounds)
	}
	if occ := g.board.At(m.Index); occ != Empty {
		return &IllegalMoveError{Move: m, Err: ErrOccupied, Occupant: occ}
	}

	g.current = m.Player
	g.board.put(m.Index, m.Player)
	g.history = append(g.history, m)
	return nil
}

// Play applies m as the normal turn entry point: an unset player defaults
// to the current one and the turn passes to the other side afterwards.
func (g *Game) Play(m Move) error {
	if m.Player == Empty {
		m.Player = g.current
	}
	if err := g.ApplyMove(m); err != nil {
		return err
	}
	g.current = g.current.Next()
	return nil
}

// PlayAt plays at row r, column c, optionally as an explicit player.
func (g *Game) PlayAt(r, c int, player ...State) error {
	p := Empty
	if len(player) > 0 {
		p = player[0]
	}
	return g.Play(At(r, c, p))
}

// UndoMove removes m from the history and frees its cell. When m is the
// latest move, the turn goes back to m.Player.
func (g *Game) UndoMove(m Move) error {
	pos := -1
	for i, h := range g.history {
		if h == m {
			pos = i
			break
		}
	}
	if pos < 0 {
		return illegal(m, ErrNotInHistory)
	}

	// history only holds moves that passed ApplyMove, so m.Index is in bounds
	g.board.put(m.Index, Empty)
	if pos == len(g.history)-1 {
		g.current = m.Player
	}
	g.history = append(g.history[:pos], g.history[pos+1:]...)
	return nil
}

// Undo reverts the most recent move.
func (g *Game) Undo() error {
	last, ok := g.LastMove()
	if !ok {
		return illegal(Move{}, ErrEmptyHistory)
	}
	return g.UndoMove(last)
}

// Clear restarts the game with the same size and opening player.
func (g *Game) Clear() {
	g.board.Clear()
	g.history = nil
	g.current = g.initial
}

func (g *Game) WinningPlayer() State { return g.board.Winner() }

func (g *Game) HasWon(p State) bool { return g.board.HasWon(p) }

func (g *Game) IsFull() bool { return g.board.IsFull() }

func (g *Game) IsEmpty() bool { return g.board.IsEmpty() }

func (g *Game) Stalemate() bool { return g.IsFull() && g.WinningPlayer() == Empty }

func (g *Game) GameOver() bool { return g.IsFull() || g.WinningPlayer() != Empty }

func (g *Game) Status() Status {
	switch {
	case g.WinningPlayer() != Empty:
		return StatusWon
	case g.IsFull():
		return StatusStalemate
	case len(g.history) == 0 && g.IsEmpty():
		return StatusEmpty
	}
	return StatusInProgress
}

// WinningMoves returns the historical moves on every line held by player
// (the winner when omitted). Lines are visited in WinConditions order and
// moves are not deduplicated.
func (g *Game) WinningMoves(player ...State) []Move {
	p := Empty
	if len(player) > 0 {
		p = player[0]
	}
	if p == Empty {
		p = g.WinningPlayer()
	}
	out := []Move{}
	if !p.IsPlayer() {
		return out
	}
	for _, line := range g.board.WinConditions() {
		if !lineHeldBy(line, p) {
			continue
		}
		for _, f := range line {
			if m, ok := g.FindMove(f.Index); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (g *Game) Clone() *Game {
	return &Game{
		board:   g.board.Clone(),
		current: g.current,
		initial: g.initial,
		history: append([]Move(nil), g.history...),
	}
}
