package domain

import (
	"fmt"
	"strings"
)

// State represents what a board cell holds: a player mark or nothing.
type State uint8

const (
	Empty State = iota
	X
	O
)

// Valid reports whether s is one of Empty, X or O.
func (s State) Valid() bool { return s <= O }

// IsPlayer reports whether s is X or O.
func (s State) IsPlayer() bool { return s == X || s == O }

// Next returns the player who moves after s. Empty has no successor.
func (s State) Next() State {
	switch s {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

func (s State) String() string {
	switch s {
	case X:
		return "X"
	case O:
		return "O"
	case Empty:
		return " "
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// ParseState parses "x", "o" (any case) and "", " ", "-" for Empty.
func ParseState(s string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	case "", "-":
		return Empty, nil
	}
	return Empty, fmt.Errorf("unknown state %q", s)
}
