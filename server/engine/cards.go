package engine

import (
	"sort"

	"tombala-cup/server/rng"
)

// GenerateCard builds a card column first:
//
//  1. every column gets one number, then six more are spread at random
//     with at most two per column (15 total);
//  2. each column draws its values without replacement from its decade
//     and sorts them;
//  3. columns are placed most-constrained first, each value going to a
//     random row that still has room, top to bottom in ascending order.
//
// A layout whose rows do not end at exactly five numbers is thrown away
// and retried. After Rules.GenerateAttempts failures the rows are packed
// largest-room-first, which always succeeds, so the call terminates.
func (e *Engine) GenerateCard() Card {
	for attempt := 0; attempt < e.rules.GenerateAttempts; attempt++ {
		if card, ok := e.layout(false); ok {
			return card
		}
	}
	card, _ := e.layout(true)
	return card
}

// GenerateCardWithStrategy biases the card toward early (<= EarlyMax) or
// late (>= LateMin) numbers. Best effort: after StrategyAttempts misses it
// returns an unbiased card.
func (e *Engine) GenerateCardWithStrategy(s Strategy) Card {
	if s != EarlyGame && s != LateGame {
		return e.GenerateCard()
	}
	for attempt := 0; attempt < e.rules.StrategyAttempts; attempt++ {
		card := e.GenerateCard()
		if e.Fits(card, s) {
			return card
		}
	}
	return e.GenerateCard()
}

// Fits reports whether card satisfies strategy s. Balanced fits anything.
func (e *Engine) Fits(card Card, s Strategy) bool {
	count := 0
	for _, n := range card.Numbers() {
		switch {
		case s == EarlyGame && n <= e.rules.EarlyMax:
			count++
		case s == LateGame && n >= e.rules.LateMin:
			count++
		}
	}
	switch s {
	case EarlyGame, LateGame:
		return count >= e.rules.StrategyMinNumbers
	default:
		return true
	}
}

func (e *Engine) layout(packed bool) (Card, bool) {
	counts := e.columnCounts()

	var values [Cols][]int
	for col := range values {
		values[col] = e.columnValues(col, counts[col])
	}

	order := make([]int, Cols)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(e.rng, order)
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	var card Card
	var filled [Rows]int
	for _, col := range order {
		rows := e.pickRows(&filled, counts[col], packed)
		if rows == nil {
			return Card{}, false
		}
		for i, r := range rows {
			card[r][col] = values[col][i]
			filled[r]++
		}
	}
	for _, f := range filled {
		if f != PerRow {
			return Card{}, false
		}
	}
	return card, true
}

// columnCounts gives every column one number and spreads the rest.
func (e *Engine) columnCounts() [Cols]int {
	var counts [Cols]int
	for i := range counts {
		counts[i] = 1
	}
	for extra := PerCard - Cols; extra > 0; {
		col := rng.Pick(e.rng, Cols)
		if counts[col] < MaxPerCol {
			counts[col]++
			extra--
		}
	}
	return counts
}

// columnValues draws k distinct numbers from col's decade, ascending.
func (e *Engine) columnValues(col, k int) []int {
	lo, hi := ColumnRange(col)
	pool := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		pool = append(pool, n)
	}
	out := append([]int(nil), rng.Shuffle(e.rng, pool)[:k]...)
	sort.Ints(out)
	return out
}

// pickRows chooses k distinct rows that still have room, returned in
// ascending order so sorted column values read top to bottom. nil means
// the layout hit a dead end.
func (e *Engine) pickRows(filled *[Rows]int, k int, packed bool) []int {
	open := make([]int, 0, Rows)
	for r := 0; r < Rows; r++ {
		if filled[r] < PerRow {
			open = append(open, r)
		}
	}
	if len(open) < k {
		return nil
	}
	if packed {
		sort.SliceStable(open, func(i, j int) bool { return filled[open[i]] < filled[open[j]] })
	} else {
		rng.Shuffle(e.rng, open)
	}
	rows := append([]int(nil), open[:k]...)
	sort.Ints(rows)
	return rows
}
