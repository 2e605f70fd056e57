package domain

import (
	"errors"
	"fmt"
)

// Move is a single mark placed on the board. A Move with an Empty player
// is completed with the current player when played.
type Move struct {
	Index  Index
	Player State
}

// At builds a move for player at (r, c).
func At(r, c int, player State) Move {
	return Move{Index: Index{Row: r, Col: c}, Player: player}
}

func (m Move) String() string {
	if m.Player == Empty {
		return "?@" + m.Index.String()
	}
	return m.Player.String() + "@" + m.Index.String()
}

// Errors returned by domain operations. Each illegal move is reported as an
// *IllegalMoveError wrapping one of the reasons below.
var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrNotAPlayer   = errors.New("not a valid player")
	ErrOutOfBounds  = errors.New("out of bounds")
	ErrOccupied     = errors.New("field already occupied")
	ErrNotInHistory = errors.New("not in game history")
	ErrEmptyHistory = errors.New("no moves to undo")
)

// IllegalMoveError carries the offending move and why it was rejected.
type IllegalMoveError struct {
	Move Move
	Err  error

	// Occupant is set when Err is ErrOccupied.
	Occupant State
}

func (e *IllegalMoveError) Error() string {
	if errors.Is(e.Err, ErrOccupied) {
		return fmt.Sprintf("illegal move %v: %v by %q", e.Move, e.Err, e.Occupant.String())
	}
	return fmt.Sprintf("illegal move %v: %v", e.Move, e.Err)
}

func (e *IllegalMoveError) Unwrap() error { return e.Err }

func (e *IllegalMoveError) Is(target error) bool { return target == ErrIllegalMove }

func illegal(m Move, reason error) error {
	return &IllegalMoveError{Move: m, Err: reason}
}
