// Package tournament runs a 32-entrant single-elimination bracket as a
// cursor over 31 matches. Results are recorded strictly in match order;
// each recorded winner is copied into the next round's slot.
package tournament

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"tombala-cup/server/rng"
)

const (
	EntrantCount = 32
	RoundCount   = 5
	MatchCount   = EntrantCount - 1
)

var roundNames = [RoundCount]string{"Round of 32", "Round of 16", "Quarter-final", "Semi-final", "Final"}

var (
	ErrEntrantCount         = errors.New("tournament needs exactly 32 entrants")
	ErrDuplicateEntrant     = errors.New("duplicate entrant id")
	ErrUnknownEntrant       = errors.New("entrant not in tournament")
	ErrTournamentComplete   = errors.New("tournament already complete")
	ErrTournamentIncomplete = errors.New("tournament not complete")
	ErrTournamentStarted    = errors.New("tournament already started")
	ErrWinnerNotInMatch     = errors.New("winner is not playing this match")
)

// Entrant is a participant token. Only ID matters to the bracket.
type Entrant struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	Continent string `yaml:"continent" json:"continent"`
}

func (e Entrant) String() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

type Match struct {
	Team1  *Entrant `json:"team1"`
	Team2  *Entrant `json:"team2"`
	Winner *Entrant `json:"winner"`
}

// Loser is the slot that did not win; nil while undecided.
func (m Match) Loser() *Entrant {
	if m.Winner == nil {
		return nil
	}
	if m.Team1 != nil && m.Team1.ID == m.Winner.ID {
		return m.Team2
	}
	return m.Team1
}

func (m Match) has(id string) bool {
	return (m.Team1 != nil && m.Team1.ID == id) || (m.Team2 != nil && m.Team2.ID == id)
}

type Round struct {
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}

// Bracket is a snapshot of the rounds plus the cursor. CurrentRound ==
// RoundCount means the tournament is over.
type Bracket struct {
	Rounds       []Round `json:"rounds"`
	CurrentRound int     `json:"current_round"`
	CurrentMatch int     `json:"current_match"`
}

// MatchInfo describes the match under the cursor.
type MatchInfo struct {
	Round               string
	RoundIndex          int
	MatchIndex          int
	TotalMatches        int
	Team1, Team2        *Entrant
	IsPlayerMatch       bool
	NeedsAutoSimulation bool
}

// Medals are the podium once the final is played. Both semi-final losers
// share bronze.
type Medals struct {
	Gold   Entrant
	Silver Entrant
	Bronze []Entrant
}

// Tournament owns one bracket. It is not safe for concurrent use.
type Tournament struct {
	entrants []Entrant
	player   *Entrant
	rounds   []Round
	round    int
	match    int
	recorded int
	skipped  int
	rng      *rand.Rand
	log      *slog.Logger
}

type Option func(*Tournament)

// WithPlayer designates the human entrant; it is seated in round-1 match 0.
func WithPlayer(e Entrant) Option { return func(t *Tournament) { t.player = &e } }

// WithRand sets the coin used by AutoSimulate.
func WithRand(r *rand.Rand) Option { return func(t *Tournament) { t.rng = r } }

func WithLogger(l *slog.Logger) Option { return func(t *Tournament) { t.log = l } }

// New validates entrants and builds the bracket. Round 1 pairs entrants in
// input order; later rounds start empty.
func New(entrants []Entrant, opts ...Option) (*Tournament, error) {
	if len(entrants) != EntrantCount {
		return nil, fmt.Errorf("%w: got %d", ErrEntrantCount, len(entrants))
	}
	seen := make(map[string]bool, len(entrants))
	for _, e := range entrants {
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntrant, e.ID)
		}
		seen[e.ID] = true
	}

	t := &Tournament{entrants: append([]Entrant(nil), entrants...)}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng = rng.New(0)
	}
	if t.log == nil {
		t.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if t.player != nil && !seen[t.player.ID] {
		return nil, fmt.Errorf("%w: player %q", ErrUnknownEntrant, t.player.ID)
	}
	t.rounds = buildRounds(t.entrants, t.player)
	return t, nil
}

func buildRounds(entrants []Entrant, player *Entrant) []Round {
	ordered := append([]Entrant(nil), entrants...)
	if player != nil {
		for i := range ordered {
			if ordered[i].ID == player.ID {
				if i >= 2 {
					ordered[0], ordered[i] = ordered[i], ordered[0]
				}
				break
			}
		}
	}

	rounds := make([]Round, RoundCount)
	size := EntrantCount / 2
	for r := range rounds {
		rounds[r] = Round{Name: roundNames[r], Matches: make([]Match, size)}
		size /= 2
	}
	for i := range rounds[0].Matches {
		a, b := ordered[2*i], ordered[2*i+1]
		rounds[0].Matches[i] = Match{Team1: &a, Team2: &b}
	}
	return rounds
}

// SetPlayer designates the player. Before any match is played the bracket
// is rebuilt so the player opens round 1; afterwards the designation can no
// longer change.
func (t *Tournament) SetPlayer(e Entrant) error {
	if t.started() {
		return ErrTournamentStarted
	}
	if !t.isEntrant(e.ID) {
		return fmt.Errorf("%w: player %q", ErrUnknownEntrant, e.ID)
	}
	t.player = &e
	t.rounds = buildRounds(t.entrants, t.player)
	return nil
}

func (t *Tournament) Player() (Entrant, bool) {
	if t.player == nil {
		return Entrant{}, false
	}
	return *t.player, true
}

func (t *Tournament) started() bool { return t.recorded > 0 || t.skipped > 0 }

func (t *Tournament) isEntrant(id string) bool {
	for _, e := range t.entrants {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (t *Tournament) isPlayerIn(m Match) bool {
	return t.player != nil && m.has(t.player.ID)
}

// IsComplete is true once the cursor has moved past the final.
func (t *Tournament) IsComplete() bool { return t.round >= RoundCount }

// Cursor returns (round, match) of the next match to play.
func (t *Tournament) Cursor() (round, match int) { return t.round, t.match }

// Recorded counts results recorded so far; Skipped counts broken matches
// AutoSimulate stepped over.
func (t *Tournament) Recorded() int { return t.recorded }
func (t *Tournament) Skipped() int  { return t.skipped }

// CurrentMatch returns the match under the cursor.
func (t *Tournament) CurrentMatch() (MatchInfo, error) {
	if t.IsComplete() {
		return MatchInfo{}, ErrTournamentComplete
	}
	round := t.rounds[t.round]
	m := round.Matches[t.match]
	isPlayer := t.isPlayerIn(m)
	return MatchInfo{
		Round:               round.Name,
		RoundIndex:          t.round,
		MatchIndex:          t.match,
		TotalMatches:        len(round.Matches),
		Team1:               clone(m.Team1),
		Team2:               clone(m.Team2),
		IsPlayerMatch:       isPlayer,
		NeedsAutoSimulation: !isPlayer,
	}, nil
}

// NextMatch is CurrentMatch without the error: ok is false once the
// tournament is over.
func (t *Tournament) NextMatch() (MatchInfo, bool) {
	info, err := t.CurrentMatch()
	return info, err == nil
}

// IsPlayerEliminated reports whether the player has lost a recorded match.
// With no designated player there is nobody left to play, so it is true.
func (t *Tournament) IsPlayerEliminated() bool {
	if t.player == nil {
		return true
	}
	for _, r := range t.rounds {
		for _, m := range r.Matches {
			if l := m.Loser(); l != nil && l.ID == t.player.ID {
				return true
			}
		}
	}
	return false
}

// PlayerNextMatch finds the player's first undecided match. The opponent
// is nil while the other slot is still waiting on an earlier result.
func (t *Tournament) PlayerNextMatch() (info MatchInfo, opponent *Entrant, ok bool) {
	if t.player == nil || t.IsPlayerEliminated() || t.IsComplete() {
		return MatchInfo{}, nil, false
	}
	id := t.player.ID
	for ri, r := range t.rounds {
		for mi, m := range r.Matches {
			if m.Winner != nil || !m.has(id) {
				continue
			}
			info = MatchInfo{
				Round:         r.Name,
				RoundIndex:    ri,
				MatchIndex:    mi,
				TotalMatches:  len(r.Matches),
				Team1:         clone(m.Team1),
				Team2:         clone(m.Team2),
				IsPlayerMatch: true,
			}
			if m.Team1 != nil && m.Team1.ID == id {
				return info, clone(m.Team2), true
			}
			return info, clone(m.Team1), true
		}
	}
	return MatchInfo{}, nil, false
}

// RecordResult sets the winner of the cursor match, seats it in the next
// round (even match index -> Team1, odd -> Team2) and advances the cursor.
// It is the only way the cursor moves forward with a result.
func (t *Tournament) RecordResult(winner Entrant) error {
	if t.IsComplete() {
		return ErrTournamentComplete
	}
	m := &t.rounds[t.round].Matches[t.match]
	if !m.has(winner.ID) {
		return fmt.Errorf("%w: %q in %s match %d", ErrWinnerNotInMatch, winner.ID, t.rounds[t.round].Name, t.match)
	}
	w := winner
	m.Winner = &w

	if t.round < RoundCount-1 {
		next := &t.rounds[t.round+1].Matches[t.match/2]
		seat := w
		if t.match%2 == 0 {
			next.Team1 = &seat
		} else {
			next.Team2 = &seat
		}
	}
	t.recorded++
	t.advance()
	return nil
}

func (t *Tournament) advance() {
	t.match++
	if t.match >= len(t.rounds[t.round].Matches) {
		t.round++
		t.match = 0
	}
}

// AutoSimulate settles the cursor match with a coin flip. If a slot is
// empty the bracket was advanced incorrectly: the fault is logged, the
// cursor skips the match and the returned winner is nil.
func (t *Tournament) AutoSimulate() (*Entrant, error) {
	if t.IsComplete() {
		return nil, ErrTournamentComplete
	}
	m := t.rounds[t.round].Matches[t.match]
	if m.Team1 == nil || m.Team2 == nil {
		t.log.Warn("auto-simulate skipped match with missing entrant",
			slog.String("round", t.rounds[t.round].Name),
			slog.Int("round_index", t.round),
			slog.Int("match_index", t.match),
			slog.Bool("team1_missing", m.Team1 == nil),
			slog.Bool("team2_missing", m.Team2 == nil),
		)
		t.skipped++
		t.advance()
		return nil, nil
	}
	winner := *m.Team2
	if rng.Coin(t.rng) {
		winner = *m.Team1
	}
	if err := t.RecordResult(winner); err != nil {
		return nil, err
	}
	return &winner, nil
}

// SimulateUntilPlayerMatch auto-simulates until the player's match is under
// the cursor or the tournament ends. It returns the number of matches
// stepped over.
func (t *Tournament) SimulateUntilPlayerMatch() (int, error) {
	n := 0
	for !t.IsComplete() {
		info, err := t.CurrentMatch()
		if err != nil {
			return n, err
		}
		if info.IsPlayerMatch {
			return n, nil
		}
		if _, err := t.AutoSimulate(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Champion is the winner of the final.
func (t *Tournament) Champion() (Entrant, error) {
	if !t.IsComplete() {
		return Entrant{}, ErrTournamentIncomplete
	}
	w := t.rounds[RoundCount-1].Matches[0].Winner
	if w == nil {
		return Entrant{}, fmt.Errorf("%w: final has no winner", ErrTournamentIncomplete)
	}
	return *w, nil
}

// Medalists returns gold (champion), silver (the other finalist) and both
// semi-final losers as bronze.
func (t *Tournament) Medalists() (Medals, error) {
	gold, err := t.Champion()
	if err != nil {
		return Medals{}, err
	}
	var medals Medals
	medals.Gold = gold
	if s := t.rounds[RoundCount-1].Matches[0].Loser(); s != nil {
		medals.Silver = *s
	}
	for _, m := range t.rounds[RoundCount-2].Matches {
		if b := m.Loser(); b != nil {
			medals.Bronze = append(medals.Bronze, *b)
		}
	}
	return medals, nil
}

// Bracket returns a deep copy safe to hand to a renderer.
func (t *Tournament) Bracket() Bracket {
	b := Bracket{
		Rounds:       make([]Round, len(t.rounds)),
		CurrentRound: t.round,
		CurrentMatch: t.match,
	}
	for i, r := range t.rounds {
		matches := make([]Match, len(r.Matches))
		for j, m := range r.Matches {
			matches[j] = Match{Team1: clone(m.Team1), Team2: clone(m.Team2), Winner: clone(m.Winner)}
		}
		b.Rounds[i] = Round{Name: r.Name, Matches: matches}
	}
	return b
}

func clone(e *Entrant) *Entrant {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
