package engine

import (
	"errors"
	"fmt"
	"sort"
)

// Card geometry and number range. The card is a fixed array, so these are
// constants rather than tunables.
const (
	Rows      = 3
	Cols      = 9
	PerRow    = 5
	PerCard   = Rows * PerRow
	MaxPerCol = 2 // cap used when distributing the extra numbers
	PoolSize  = 90
	MinNumber = 1
	MaxNumber = PoolSize
)

// Card is a 3x9 Tombala card. 0 marks an empty cell.
type Card [Rows][Cols]int

// Numbers returns the card's non-zero values in row-major order.
func (c Card) Numbers() []int {
	out := make([]int, 0, PerCard)
	for r := 0; r < Rows; r++ {
		for col := 0; col < Cols; col++ {
			if n := c[r][col]; n != 0 {
				out = append(out, n)
			}
		}
	}
	return out
}

// Row returns the non-zero values of row r, left to right.
func (c Card) Row(r int) []int {
	out := make([]int, 0, PerRow)
	for _, n := range c[r] {
		if n != 0 {
			out = append(out, n)
		}
	}
	return out
}

// Contains reports whether n is printed on the card.
func (c Card) Contains(n int) bool {
	if n < MinNumber || n > MaxNumber {
		return false
	}
	col := ColumnOf(n)
	for r := 0; r < Rows; r++ {
		if c[r][col] == n {
			return true
		}
	}
	return false
}

// ColumnRange returns the inclusive decade range for column col:
// 1-9, 10-19, ..., 70-79, 80-90.
func ColumnRange(col int) (lo, hi int) {
	switch col {
	case 0:
		return 1, 9
	case Cols - 1:
		return 80, 90
	default:
		return col * 10, col*10 + 9
	}
}

// ColumnOf is the column a number belongs to.
func ColumnOf(n int) int {
	if n >= 90 {
		return Cols - 1
	}
	return n / 10
}

var (
	ErrCardCount    = errors.New("card must hold 15 numbers")
	ErrRowCount     = errors.New("card row must hold 5 numbers")
	ErrColumnRange  = errors.New("number outside its column range")
	ErrColumnOrder  = errors.New("column values must increase top to bottom")
	ErrDuplicate    = errors.New("number appears twice on card")
	ErrNumberBounds = errors.New("number outside 1..90")
)

// Validate checks every structural invariant of a card.
func (c Card) Validate() error {
	seen := make(map[int]bool, PerCard)
	total := 0
	for r := 0; r < Rows; r++ {
		inRow := 0
		for col := 0; col < Cols; col++ {
			n := c[r][col]
			if n == 0 {
				continue
			}
			if n < MinNumber || n > MaxNumber {
				return fmt.Errorf("%w: %d at row %d col %d", ErrNumberBounds, n, r, col)
			}
			lo, hi := ColumnRange(col)
			if n < lo || n > hi {
				return fmt.Errorf("%w: %d in col %d (want %d-%d)", ErrColumnRange, n, col, lo, hi)
			}
			if seen[n] {
				return fmt.Errorf("%w: %d", ErrDuplicate, n)
			}
			seen[n] = true
			inRow++
			total++
		}
		if inRow != PerRow {
			return fmt.Errorf("%w: row %d has %d", ErrRowCount, r, inRow)
		}
	}
	if total != PerCard {
		return fmt.Errorf("%w: got %d", ErrCardCount, total)
	}
	for col := 0; col < Cols; col++ {
		prev := 0
		for r := 0; r < Rows; r++ {
			n := c[r][col]
			if n == 0 {
				continue
			}
			if n <= prev {
				return fmt.Errorf("%w: col %d", ErrColumnOrder, col)
			}
			prev = n
		}
	}
	return nil
}

// Strategy biases card generation toward early or late numbers.
type Strategy string

const (
	Balanced  Strategy = "balanced"
	EarlyGame Strategy = "early-game"
	LateGame  Strategy = "late-game"
)

var ErrUnknownStrategy = errors.New("unknown card strategy")

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case Balanced, EarlyGame, LateGame:
		return st, nil
	case "":
		return Balanced, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Outcome classifies a card after a draw.
type Outcome int

const (
	Ongoing Outcome = iota
	Win
	Knockout
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "WIN"
	case Knockout:
		return "KNOCKOUT"
	default:
		return "ongoing"
	}
}

// Status is the row-completion milestone used for progress display.
type Status int

const (
	NoStatus Status = iota
	FirstCinko
	SecondCinko
	Tombala
)

func (s Status) String() string {
	switch s {
	case FirstCinko:
		return "1. ÇINKO"
	case SecondCinko:
		return "2. ÇINKO"
	case Tombala:
		return "TOMBALA"
	default:
		return ""
	}
}

// NumberSet is a set of drawn numbers.
type NumberSet map[int]struct{}

func NewNumberSet(nums ...int) NumberSet {
	s := make(NumberSet, len(nums))
	for _, n := range nums {
		s[n] = struct{}{}
	}
	return s
}

func (s NumberSet) Has(n int) bool {
	_, ok := s[n]
	return ok
}

// MineSet is the immutable set of mined numbers on one card.
type MineSet struct{ m map[int]struct{} }

func NewMineSet(nums ...int) MineSet {
	m := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		m[n] = struct{}{}
	}
	return MineSet{m: m}
}

func (s MineSet) Has(n int) bool {
	_, ok := s.m[n]
	return ok
}

func (s MineSet) Len() int { return len(s.m) }

// Values returns the mines in ascending order.
func (s MineSet) Values() []int {
	out := make([]int, 0, len(s.m))
	for n := range s.m {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
