// Package ratings scores entrants across simulated tournaments: Elo per
// match, Glicko-2 per tournament, plus confidence intervals for the
// summary tables.
package ratings

import (
	"math"
	"sort"
)

// Elo keeps one rating per entrant id. Unknown ids start at Start.
type Elo struct {
	Start float64
	K     float64

	ratings map[string]float64
	games   map[string]int
}

func NewElo(start, k float64) *Elo {
	return &Elo{Start: start, K: k, ratings: map[string]float64{}, games: map[string]int{}}
}

func (e *Elo) Rating(id string) float64 {
	if r, ok := e.ratings[id]; ok {
		return r
	}
	return e.Start
}

func (e *Elo) Games(id string) int { return e.games[id] }

// Expect is a's expected score against b.
func (e *Elo) Expect(a, b string) float64 {
	return 1.0 / (1.0 + math.Pow(10, (e.Rating(b)-e.Rating(a))/400.0))
}

// Update applies one decided match and returns the applied deltas. margin
// is how decisive the win was in card numbers (safe-hit gap between the
// sides); K grows with it and anneals as the less experienced side plays
// more.
func (e *Elo) Update(winner, loser string, margin float64) (dW, dL float64) {
	ew := e.Expect(winner, loser)
	exp := min(e.games[winner], e.games[loser])
	kEff := e.K * marginScale(margin) * decay(exp)

	dW = kEff * (1 - ew)
	dL = -dW
	e.ratings[winner] = e.Rating(winner) + dW
	e.ratings[loser] = e.Rating(loser) + dL
	e.games[winner]++
	e.games[loser]++
	return dW, dL
}

type Standing struct {
	ID     string
	Rating float64
	Games  int
}

// Standings lists every rated entrant, best first; ties break on id.
func (e *Elo) Standings() []Standing {
	out := make([]Standing, 0, len(e.ratings))
	for id, r := range e.ratings {
		out = append(out, Standing{ID: id, Rating: r, Games: e.games[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func marginScale(margin float64) float64 {
	return 1.0 + 0.35*math.Tanh(math.Abs(margin)/8.0) // <= ~1.35
}

func decay(games int) float64 {
	return 1.0 / (1.0 + 0.01*float64(games))
}
