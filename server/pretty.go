package main

import (
	"fmt"
	"io"
	"strings"

	"tombala-cup/server/engine"
	"tombala-cup/server/match"
	"tombala-cup/server/tournament"
)

//
// ===== pretty printing =====
//

var useColor bool

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colCyan   = "\033[36m"
)

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}

func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func warn(s string) string { return c(colYellow, s) }
func bad(s string) string  { return c(colRed, s) }
func cyan(s string) string { return c(colCyan, s) }

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s %s %s\n", dim("──"), bold(title), dim("──"))
}

func reasonTag(r match.Reason) string {
	switch r {
	case match.MineKnockout:
		return bad(string(r))
	case match.SafeWin:
		return good(string(r))
	default:
		return warn(string(r))
	}
}

func entrantLabel(e *tournament.Entrant) string {
	if e == nil {
		return dim("TBD")
	}
	if e.Name != "" && e.Name != e.ID {
		return fmt.Sprintf("%s %s", bold(e.ID), dim(e.Name))
	}
	return bold(e.ID)
}

// renderCard draws the 3x9 grid. Mines are starred; drawn numbers are
// bracketed when drawn is non-nil.
func renderCard(w io.Writer, card engine.Card, mines engine.MineSet, drawn engine.NumberSet) {
	border := "+" + strings.Repeat("----+", engine.Cols)
	fmt.Fprintln(w, dim(border))
	for r := 0; r < engine.Rows; r++ {
		var b strings.Builder
		b.WriteString(dim("|"))
		for col := 0; col < engine.Cols; col++ {
			n := card[r][col]
			cell := "    "
			if n != 0 {
				mark := " "
				if mines.Has(n) {
					mark = "*"
				}
				cell = fmt.Sprintf("%2d%s ", n, mark)
				switch {
				case drawn != nil && drawn.Has(n) && mines.Has(n):
					cell = bad(fmt.Sprintf("[%2d]", n))
				case drawn != nil && drawn.Has(n):
					cell = good(fmt.Sprintf("[%2d]", n))
				}
			}
			b.WriteString(cell)
			b.WriteString(dim("|"))
		}
		fmt.Fprintln(w, b.String())
	}
	fmt.Fprintln(w, dim(border))
}

func renderTally(w io.Writer, label string, e *engine.Engine, s match.SideResult) {
	status := s.Status.String()
	if status == "" {
		status = "-"
	}
	fmt.Fprintf(w, "  %-10s safe=%d/%d mines=%d (lives %d) undrawn=%d status=%s outcome=%s\n",
		label, s.Tally.SafeHits, e.Rules().WinThreshold, s.Tally.MineHits, e.MineLives(s.Tally),
		s.Tally.Undrawn(), cyan(status), s.Outcome)
}
