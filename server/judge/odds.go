// Package judge estimates card-match odds by Monte Carlo: deal and play
// many matches between two profiles and count who wins.
package judge

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"tombala-cup/server/engine"
	"tombala-cup/server/match"
	"tombala-cup/server/ratings"
	"tombala-cup/server/rng"
)

type Odds struct {
	Trials   int
	HomeWins int
	Reasons  map[match.Reason]int
	Draws    int
}

func (o Odds) HomeRate() float64 {
	if o.Trials == 0 {
		return 0
	}
	return float64(o.HomeWins) / float64(o.Trials)
}

func (o Odds) MeanDraws() float64 {
	if o.Trials == 0 {
		return 0
	}
	return float64(o.Draws) / float64(o.Trials)
}

// CI95 is the Wilson interval on the home win rate.
func (o Odds) CI95() (lo, hi float64) { return ratings.WilsonCI95(o.HomeWins, o.Trials) }

func (o *Odds) merge(p Odds) {
	o.Trials += p.Trials
	o.HomeWins += p.HomeWins
	o.Draws += p.Draws
	if o.Reasons == nil {
		o.Reasons = map[match.Reason]int{}
	}
	for k, v := range p.Reasons {
		o.Reasons[k] += v
	}
}

// Matchup plays trials matches of home against away, split over workers.
// Worker sources are derived from seed up front and each worker gets a
// fixed share, so a seed gives the same odds however the goroutines run.
func Matchup(ctx context.Context, rules engine.Rules, home, away match.Profile, trials, workers int, seed uint64) (Odds, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > trials {
		workers = max(trials, 1)
	}
	seeds := rng.NewSeedStream(seed)
	parts := make([]Odds, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		share := trials / workers
		if w < trials%workers {
			share++
		}
		eng := engine.New(rules, seeds.NextRand())
		g.Go(func() error {
			part := Odds{Reasons: map[match.Reason]int{}}
			for i := 0; i < share; i++ {
				res, err := match.Play(ctx, eng, home, away)
				if err != nil {
					return err
				}
				part.Trials++
				part.Draws += res.Draws
				part.Reasons[res.Reason]++
				if res.Winner == match.Home {
					part.HomeWins++
				}
			}
			parts[w] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Odds{}, err
	}

	out := Odds{Reasons: map[match.Reason]int{}}
	for _, p := range parts {
		out.merge(p)
	}
	return out, nil
}

type Pairing struct {
	Home, Away string
	Odds       Odds
}

// Matrix runs Matchup for every ordered pair of named profiles, in name
// order. Each pair gets its own seed from the stream.
func Matrix(ctx context.Context, rules engine.Rules, profiles map[string]match.Profile, trials, workers int, seed uint64) ([]Pairing, error) {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)

	seeds := rng.NewSeedStream(seed)
	var out []Pairing
	for _, h := range names {
		for _, a := range names {
			odds, err := Matchup(ctx, rules, profiles[h], profiles[a], trials, workers, seeds.Next())
			if err != nil {
				return nil, err
			}
			out = append(out, Pairing{Home: h, Away: a, Odds: odds})
		}
	}
	return out, nil
}
