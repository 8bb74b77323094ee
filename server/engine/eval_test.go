package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// denseCard breaks the row rule on purpose: evaluation only looks at
// membership, so a 27-number grid keeps the scenarios readable.
var denseCard = Card{
	{1, 10, 20, 30, 40, 50, 60, 70, 80},
	{2, 11, 21, 31, 41, 51, 61, 71, 81},
	{3, 12, 22, 32, 42, 52, 62, 72, 82},
}

var rowCard = Card{
	{1, 0, 20, 0, 40, 0, 60, 0, 80},
	{0, 10, 0, 30, 0, 50, 0, 70, 81},
	{2, 0, 21, 0, 41, 0, 61, 0, 90},
}

func TestEvaluate(t *testing.T) {
	e := newTestEngine(1)
	mines := NewMineSet(1, 2, 3)

	tests := []struct {
		name  string
		mines MineSet
		drawn []int
		want  Outcome
	}{
		{name: "nothing drawn", mines: mines, drawn: nil, want: Ongoing},
		{name: "two mines", mines: mines, drawn: []int{1, 2}, want: Ongoing},
		{name: "three mines", mines: mines, drawn: []int{1, 2, 3}, want: Knockout},
		{name: "four mines", mines: NewMineSet(1, 2, 3, 10), drawn: []int{1, 2, 3, 10}, want: Knockout},
		{
			name:  "twelve safe",
			mines: mines,
			drawn: []int{10, 20, 30, 40, 50, 60, 70, 80, 11, 21, 31, 41},
			want:  Win,
		},
		{
			name:  "eleven safe",
			mines: mines,
			drawn: []int{10, 20, 30, 40, 50, 60, 70, 80, 11, 21, 31},
			want:  Ongoing,
		},
		{
			name:  "numbers off the card are ignored",
			mines: mines,
			drawn: []int{4, 5, 6, 7, 8, 9, 13, 14, 15, 16, 17, 18, 19, 23},
			want:  Ongoing,
		},
		{
			name:  "knockout beats win",
			mines: mines,
			drawn: []int{10, 20, 30, 40, 50, 60, 70, 80, 11, 21, 31, 41, 1, 2, 3},
			want:  Knockout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Evaluate(denseCard, tt.mines, tt.drawn))
		})
	}
}

func TestTallyCard(t *testing.T) {
	e := newTestEngine(1)
	mines := NewMineSet(1, 20, 90)
	tally := TallyCard(rowCard, mines, []int{1, 10, 30, 33, 90})

	assert.Equal(t, Tally{SafeHits: 2, MineHits: 2, SafeUndrawn: 10, MinesUndrawn: 1}, tally)
	assert.Equal(t, 4, tally.Marked())
	assert.Equal(t, 11, tally.Undrawn())
	assert.Equal(t, 1, e.MineLives(tally))
	assert.Equal(t, 10, e.SafeToGo(tally))

	spent := Tally{MineHits: 5, SafeHits: 14}
	assert.Zero(t, e.MineLives(spent))
	assert.Zero(t, e.SafeToGo(spent))
}

func TestEvaluateUsesRules(t *testing.T) {
	rules := DefaultRules()
	rules.KnockoutThreshold = 1
	rules.WinThreshold = 2
	e := New(rules, nil)

	assert.Equal(t, Knockout, e.Evaluate(rowCard, NewMineSet(1), []int{1}))
	assert.Equal(t, Win, e.Evaluate(rowCard, NewMineSet(1), []int{10, 20}))
}

func TestCheckCardStatus(t *testing.T) {
	row0 := []int{1, 20, 40, 60, 80}
	row1 := []int{10, 30, 50, 70, 81}
	row2 := []int{2, 21, 41, 61, 90}

	cat := func(parts ...[]int) []int {
		var out []int
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	tests := []struct {
		name  string
		drawn []int
		want  Status
		rows  int
	}{
		{name: "nothing", drawn: nil, want: NoStatus},
		{name: "partial rows", drawn: []int{1, 20, 40, 60, 10, 30, 2}, want: NoStatus},
		{name: "first row", drawn: row0, want: FirstCinko, rows: 1},
		{name: "middle row only", drawn: row1, want: FirstCinko, rows: 1},
		{name: "two rows", drawn: cat(row0, row1), want: SecondCinko, rows: 2},
		{name: "full card", drawn: cat(row0, row1, row2), want: Tombala, rows: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewNumberSet(tt.drawn...)
			assert.Equal(t, tt.want, CheckCardStatus(rowCard, set))
			assert.Equal(t, tt.rows, RowsCompleted(rowCard, set))
		})
	}
}

func TestStatusIsIndependentOfOutcome(t *testing.T) {
	e := newTestEngine(2)
	mines := NewMineSet(1, 20, 40)
	drawn := []int{1, 20, 40, 60, 80}

	require.Equal(t, Knockout, e.Evaluate(rowCard, mines, drawn))
	assert.Equal(t, FirstCinko, CheckCardStatus(rowCard, NewNumberSet(drawn...)))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "KNOCKOUT", Knockout.String())
	assert.Equal(t, "WIN", Win.String())
	assert.Equal(t, "ongoing", Ongoing.String())
	assert.Equal(t, "TOMBALA", Tombala.String())
	assert.Equal(t, "2. ÇINKO", SecondCinko.String())
	assert.Equal(t, "1. ÇINKO", FirstCinko.String())
	assert.Empty(t, NoStatus.String())
}
