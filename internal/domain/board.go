package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultSize is the edge length of a standard board.
const DefaultSize = 3

// MaxSize is the largest supported edge length.
const MaxSize = 16

var ErrInvalidSize = errors.New("invalid board size")

// CheckSize reports whether n is a usable edge length.
func CheckSize(n int) error {
	if n < 1 || n > MaxSize {
		return fmt.Errorf("%w: %d, want 1..%d", ErrInvalidSize, n, MaxSize)
	}
	return nil
}

// Index addresses a cell by row and column.
type Index struct {
	Row, Col int
}

func (i Index) String() string { return fmt.Sprintf("(%d,%d)", i.Row, i.Col) }

// Field is a snapshot of a single cell.
type Field struct {
	Index Index
	State State
}

// Board is an NxN grid stored row-major.
type Board struct {
	size   int
	fields []Field
}

// NewBoard returns an empty board. Sizes below 1 fall back to DefaultSize,
// sizes above MaxSize are capped; callers taking sizes from input should
// validate them with CheckSize first.
func NewBoard(size int) *Board {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	b := &Board{size: size, fields: make([]Field, size*size)}
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			b.fields[r*size+c].Index = Index{r, c}
		}
	}
	return b
}

func (b *Board) Size() int { return b.size }

// InBounds reports whether idx addresses a cell of b.
func (b *Board) InBounds(idx Index) bool {
	return idx.Row >= 0 && idx.Row < b.size && idx.Col >= 0 && idx.Col < b.size
}

// At returns the state at idx. Out of range indices read as Empty.
func (b *Board) At(idx Index) State {
	if !b.InBounds(idx) {
		return Empty
	}
	return b.fields[idx.Row*b.size+idx.Col].State
}

// Field returns the cell at idx.
func (b *Board) Field(idx Index) Field {
	if !b.InBounds(idx) {
		return Field{Index: idx}
	}
	return b.fields[idx.Row*b.size+idx.Col]
}

// Set writes s at idx.
func (b *Board) Set(idx Index, s State) error {
	if !b.InBounds(idx) {
		return ErrOutOfBounds
	}
	if !s.Valid() {
		return fmt.Errorf("invalid state %d", uint8(s))
	}
	b.put(idx, s)
	return nil
}

// put writes s at idx; idx must be in bounds and s valid.
func (b *Board) put(idx Index, s State) {
	b.fields[idx.Row*b.size+idx.Col].State = s
}

func (b *Board) Rows() [][]Field {
	out := make([][]Field, b.size)
	for r := range out {
		out[r] = append([]Field(nil), b.fields[r*b.size:(r+1)*b.size]...)
	}
	return out
}

func (b *Board) Columns() [][]Field {
	out := make([][]Field, b.size)
	for c := range out {
		col := make([]Field, b.size)
		for r := 0; r < b.size; r++ {
			col[r] = b.fields[r*b.size+c]
		}
		out[c] = col
	}
	return out
}

// Diagonals returns the descending (i,i) line followed by the ascending
// (N-1-i,i) line.
func (b *Board) Diagonals() [][]Field {
	desc := make([]Field, b.size)
	asc := make([]Field, b.size)
	for i := 0; i < b.size; i++ {
		desc[i] = b.fields[i*b.size+i]
		asc[i] = b.fields[(b.size-1-i)*b.size+i]
	}
	return [][]Field{desc, asc}
}

// WinConditions returns every line that wins when held by one player:
// rows, then columns, then both diagonals (2N+2 lines).
func (b *Board) WinConditions() [][]Field {
	lines := make([][]Field, 0, 2*b.size+2)
	lines = append(lines, b.Rows()...)
	lines = append(lines, b.Columns()...)
	lines = append(lines, b.Diagonals()...)
	return lines
}

func (b *Board) Clear() {
	for i := range b.fields {
		b.fields[i].State = Empty
	}
}

func (b *Board) IsEmpty() bool {
	for _, f := range b.fields {
		if f.State != Empty {
			return false
		}
	}
	return true
}

func (b *Board) IsFull() bool {
	for _, f := range b.fields {
		if f.State == Empty {
			return false
		}
	}
	return true
}

// HasWon reports whether p holds every cell of at least one line.
func (b *Board) HasWon(p State) bool {
	if !p.IsPlayer() {
		return false
	}
	for _, line := range b.WinConditions() {
		if lineHeldBy(line, p) {
			return true
		}
	}
	return false
}

// Winner returns the player holding a complete line, or Empty.
func (b *Board) Winner() State {
	for _, p := range [...]State{X, O} {
		if b.HasWon(p) {
			return p
		}
	}
	return Empty
}

// EmptyFields lists free cells in row-major order.
func (b *Board) EmptyFields() []Index {
	var out []Index
	for _, f := range b.fields {
		if f.State == Empty {
			out = append(out, f.Index)
		}
	}
	return out
}

func (b *Board) Clone() *Board {
	return &Board{size: b.size, fields: append([]Field(nil), b.fields...)}
}

func (b *Board) String() string {
	var sb strings.Builder
	sep := strings.Repeat("-", 3)
	hsep := strings.TrimSuffix(strings.Repeat(sep+"+", b.size), "+") + "\n"
	for r := 0; r < b.size; r++ {
		if r > 0 {
			sb.WriteString(hsep)
		}
		for c := 0; c < b.size; c++ {
			if c > 0 {
				sb.WriteByte('|')
			}
			fmt.Fprintf(&sb, " %s ", b.fields[r*b.size+c].State)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func lineHeldBy(line []Field, p State) bool {
	for _, f := range line {
		if f.State != p {
			return false
		}
	}
	return len(line) > 0
}
