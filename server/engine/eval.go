package engine

// Tally counts a card's numbers against the draw history.
type Tally struct {
	SafeHits     int
	MineHits     int
	SafeUndrawn  int
	MinesUndrawn int
}

// Marked is every drawn number on the card, mined or not.
func (t Tally) Marked() int { return t.SafeHits + t.MineHits }

// Undrawn is every number still waiting to be called.
func (t Tally) Undrawn() int { return t.SafeUndrawn + t.MinesUndrawn }

func TallyCard(card Card, mines MineSet, drawn []int) Tally {
	set := NewNumberSet(drawn...)
	var t Tally
	for _, n := range card.Numbers() {
		hit := set.Has(n)
		switch {
		case hit && mines.Has(n):
			t.MineHits++
		case hit:
			t.SafeHits++
		case mines.Has(n):
			t.MinesUndrawn++
		default:
			t.SafeUndrawn++
		}
	}
	return t
}

// Evaluate classifies card after the draws so far. Knockout is checked
// before Win: a draw that satisfies both thresholds is a knockout.
func (e *Engine) Evaluate(card Card, mines MineSet, drawn []int) Outcome {
	return e.outcome(TallyCard(card, mines, drawn))
}

func (e *Engine) outcome(t Tally) Outcome {
	if t.MineHits >= e.rules.KnockoutThreshold {
		return Knockout
	}
	if t.SafeHits >= e.rules.WinThreshold {
		return Win
	}
	return Ongoing
}

// MineLives is how many more mines the card can absorb before a knockout.
func (e *Engine) MineLives(t Tally) int {
	lives := e.rules.KnockoutThreshold - t.MineHits
	if lives < 0 {
		return 0
	}
	return lives
}

// SafeToGo is how many safe hits are still needed to win.
func (e *Engine) SafeToGo(t Tally) int {
	left := e.rules.WinThreshold - t.SafeHits
	if left < 0 {
		return 0
	}
	return left
}

// RowsCompleted counts rows whose numbers have all been drawn.
func RowsCompleted(card Card, drawn NumberSet) int {
	done := 0
	for r := 0; r < Rows; r++ {
		row := card.Row(r)
		if len(row) == 0 {
			continue
		}
		marked := 0
		for _, n := range row {
			if drawn.Has(n) {
				marked++
			}
		}
		if marked == len(row) {
			done++
		}
	}
	return done
}

// CheckCardStatus maps completed rows to the çinko/tombala milestone. It is
// display-only and independent of Evaluate.
func CheckCardStatus(card Card, drawn NumberSet) Status {
	switch RowsCompleted(card, drawn) {
	case 3:
		return Tombala
	case 2:
		return SecondCinko
	case 1:
		return FirstCinko
	default:
		return NoStatus
	}
}
