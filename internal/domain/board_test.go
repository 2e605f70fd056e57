package domain

import (
	"errors"
	"testing"
)

func TestWinConditionOrder(t *testing.T) {
	b := NewBoard(3)
	lines := b.WinConditions()
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d", len(lines))
	}
	want := [][3]Index{
		{{0, 0}, {0, 1}, {0, 2}},
		{{1, 0}, {1, 1}, {1, 2}},
		{{2, 0}, {2, 1}, {2, 2}},
		{{0, 0}, {1, 0}, {2, 0}},
		{{0, 1}, {1, 1}, {2, 1}},
		{{0, 2}, {1, 2}, {2, 2}},
		{{0, 0}, {1, 1}, {2, 2}},
		{{2, 0}, {1, 1}, {0, 2}},
	}
	for i, line := range lines {
		for j, f := range line {
			if f.Index != want[i][j] {
				t.Fatalf("line %d cell %d = %v, want %v", i, j, f.Index, want[i][j])
			}
		}
	}
}

func TestBoardSizes(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		b := NewBoard(n)
		if got := len(b.WinConditions()); got != 2*n+2 {
			t.Fatalf("size %d: expected %d lines, got %d", n, 2*n+2, got)
		}
		if len(b.EmptyFields()) != n*n {
			t.Fatalf("size %d: expected all cells empty", n)
		}
	}
	if NewBoard(0).Size() != DefaultSize {
		t.Fatalf("size 0 should fall back to default")
	}
}

func TestEmptyBoardHasNoWinner(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4} {
		b := NewBoard(n)
		if !b.IsEmpty() || b.Winner() != Empty {
			t.Fatalf("size %d: empty board must have no winner", n)
		}
	}
}

func TestBoardClearAndString(t *testing.T) {
	b := NewBoard(3)
	_ = b.Set(Index{0, 0}, X)
	_ = b.Set(Index{1, 1}, O)
	want := " X |   |   \n---+---+---\n   | O |   \n---+---+---\n   |   |   \n"
	if b.String() != want {
		t.Fatalf("unexpected rendering:\n%q\nwant\n%q", b.String(), want)
	}
	b.Clear()
	if !b.IsEmpty() {
		t.Fatalf("clear left marks on the board")
	}
}

func TestParseState(t *testing.T) {
	cases := map[string]State{"x": X, "O": O, "": Empty, " - ": Empty}
	for in, want := range cases {
		got, err := ParseState(in)
		if err != nil || got != want {
			t.Fatalf("ParseState(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseState("z"); err == nil {
		t.Fatalf("expected error for unknown state")
	}
	if X.Next() != O || O.Next() != X || Empty.Next() != Empty {
		t.Fatalf("unexpected alternation")
	}
}

func TestCheckSize(t *testing.T) {
	for _, n := range []int{1, DefaultSize, MaxSize} {
		if err := CheckSize(n); err != nil {
			t.Fatalf("CheckSize(%d) = %v", n, err)
		}
	}
	for _, n := range []int{0, -1, MaxSize + 1, 2000000} {
		if err := CheckSize(n); !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("CheckSize(%d) = %v, want ErrInvalidSize", n, err)
		}
	}
}

func TestNewBoardCapsSize(t *testing.T) {
	if got := NewBoard(2000000).Size(); got != MaxSize {
		t.Fatalf("expected size capped at %d, got %d", MaxSize, got)
	}
	if got := NewGame(WithSize(MaxSize + 1)).Size(); got != MaxSize {
		t.Fatalf("expected game size capped at %d, got %d", MaxSize, got)
	}
}

func TestBoardSetValidates(t *testing.T) {
	b := NewBoard(3)
	if err := b.Set(Index{Row: 3, Col: 0}, X); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if err := b.Set(Index{Row: 0, Col: 0}, State(7)); err == nil {
		t.Fatalf("expected invalid state error")
	}
	if !b.IsEmpty() {
		t.Fatalf("rejected writes must not touch the board")
	}
	if err := b.Set(Index{Row: 1, Col: 2}, O); err != nil || b.At(Index{Row: 1, Col: 2}) != O {
		t.Fatalf("valid write failed: %v", err)
	}
}
