package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"tombala-cup/server/config"
	"tombala-cup/server/entrants"
	"tombala-cup/server/match"
	"tombala-cup/server/ratings"
	"tombala-cup/server/rng"
	"tombala-cup/server/tournament"
)

// difficultyOf gives every roster country a fixed bot difficulty, cycling
// easy/medium/hard in roster order, so the bench has something to rank.
func difficultyOf(all []tournament.Entrant) map[string]string {
	levels := []string{match.Easy, match.Medium, match.Hard}
	out := make(map[string]string, len(all))
	for i, e := range all {
		out[e.ID] = levels[i%len(levels)]
	}
	return out
}

type benchReport struct {
	Tournaments int
	Matches     int
	Titles      map[string]int
	Entries     map[string]int
	Difficulty  map[string]string
	// per difficulty: tournament entries and titles
	LevelEntries map[string]int
	LevelTitles  map[string]int
	Reasons      map[match.Reason]int
	Draws        []float64
	Elo          *ratings.Elo
	Glicko       *ratings.Ledger
}

func newBenchReport(cfg *config.Config, difficulty map[string]string) *benchReport {
	return &benchReport{
		Titles:       map[string]int{},
		Entries:      map[string]int{},
		Difficulty:   difficulty,
		LevelEntries: map[string]int{},
		LevelTitles:  map[string]int{},
		Reasons:      map[match.Reason]int{},
		Elo:          ratings.NewElo(cfg.Bench.EloStart, cfg.Bench.EloK),
		Glicko:       ratings.NewLedger(cfg.Bench.GlickoTau),
	}
}

// add folds one tournament in. Every match feeds Elo; the whole tournament
// is one Glicko-2 rating period.
func (b *benchReport) add(res cupResult) {
	b.Tournaments++
	for _, e := range res.Field {
		b.Entries[e.ID]++
		b.LevelEntries[b.Difficulty[e.ID]]++
	}
	b.Titles[res.Medals.Gold.ID]++
	b.LevelTitles[b.Difficulty[res.Medals.Gold.ID]]++

	for _, m := range res.Matches {
		b.Matches++
		loser := m.Loser()
		margin := 0.0
		if m.Card {
			b.Reasons[m.Result.Reason]++
			b.Draws = append(b.Draws, float64(m.Result.Draws))
			margin = float64(m.Result.Home.Tally.SafeHits - m.Result.Away.Tally.SafeHits)
		}
		b.Elo.Update(m.Winner.ID, loser.ID, margin)
		b.Glicko.Record(m.Winner.ID, loser.ID)
	}
	b.Glicko.Close()
}

// runBench plays cfg.Bench.Tournaments card-only tournaments between bots.
// stop is polled between tournaments; a tournament in progress always
// finishes.
func runBench(ctx context.Context, cfg *config.Config, log *slog.Logger, stop func() bool) (*benchReport, error) {
	all, err := entrants.All()
	if err != nil {
		return nil, err
	}
	difficulty := difficultyOf(all)
	profileOf := func(e tournament.Entrant) match.Profile {
		if p, ok := cfg.Profiles[difficulty[e.ID]]; ok {
			return p
		}
		return cfg.PlayerProfile
	}

	base := uint64(cfg.Seed)
	if base == 0 {
		base = rng.SecureSeed()
	}
	log.Info("bench starting",
		slog.Int("tournaments", cfg.Bench.Tournaments),
		slog.Uint64("base_seed", base),
	)
	seeds := rng.NewSeedStream(base)

	report := newBenchReport(cfg, difficulty)
	for i := 0; i < cfg.Bench.Tournaments; i++ {
		if stop != nil && stop() {
			log.Warn("bench stopped early", slog.Int("completed", i))
			break
		}
		r := seeds.NextRand()
		field, err := entrants.Draw(r, tournament.EntrantCount, nil)
		if err != nil {
			return report, err
		}
		res, err := runCup(ctx, cfg, field, r, log, cupOptions{cardMatches: true, profileOf: profileOf})
		if err != nil {
			return report, fmt.Errorf("tournament %d: %w", i+1, err)
		}
		report.add(res)
	}
	return report, nil
}

func printBench(w io.Writer, cfg *config.Config, b *benchReport) {
	section(w, fmt.Sprintf("Bench: %d tournaments, %d matches", b.Tournaments, b.Matches))
	if b.Tournaments == 0 {
		fmt.Fprintln(w, "  nothing played")
		return
	}

	fmt.Fprintf(w, "  %-7s %8s %8s %6s  %s\n", "level", "entries", "titles", "rate", "95% CI")
	for _, level := range []string{match.Easy, match.Medium, match.Hard} {
		n, k := b.LevelEntries[level], b.LevelTitles[level]
		lo, hi := ratings.WilsonCI95(k, n)
		rate := 0.0
		if n > 0 {
			rate = float64(k) / float64(n)
		}
		fmt.Fprintf(w, "  %-7s %8d %8d %6.3f  [%.3f, %.3f]\n", level, n, k, rate, lo, hi)
	}

	total := 0
	for _, n := range b.Reasons {
		total += n
	}
	if total > 0 {
		fmt.Fprintln(w)
		for _, reason := range []match.Reason{match.MineKnockout, match.SafeWin, match.Exhaustion} {
			fmt.Fprintf(w, "  %-14s %6.1f%%\n", reasonTag(reason), 100*float64(b.Reasons[reason])/float64(total))
		}
		lo, hi := ratings.BootstrapCI95(rng.New(cfg.Seed+1), b.Draws, cfg.Bench.Bootstrap)
		fmt.Fprintf(w, "  draws/match    %.2f [%.2f, %.2f]\n", ratings.Mean(b.Draws), lo, hi)
	}

	top := cfg.Bench.Top
	section(w, fmt.Sprintf("Top %d by Elo", top))
	fmt.Fprintf(w, "  %-4s %-6s %-7s %8s %14s %7s %7s  %s\n", "#", "id", "level", "elo", "glicko", "titles", "rate", "95% CI")
	standings := b.Elo.Standings()
	if top > len(standings) || top <= 0 {
		top = len(standings)
	}
	for i, s := range standings[:top] {
		g, _ := b.Glicko.Get(s.ID)
		n, k := b.Entries[s.ID], b.Titles[s.ID]
		lo, hi := ratings.WilsonCI95(k, n)
		rate := 0.0
		if n > 0 {
			rate = float64(k) / float64(n)
		}
		fmt.Fprintf(w, "  %-4d %-6s %-7s %8.1f %7.1f±%-6.1f %7d %7.3f  [%.3f, %.3f]\n",
			i+1, s.ID, b.Difficulty[s.ID], s.Rating, g.Rating, g.RD, k, rate, lo, hi)
	}

	champs := make([]string, 0, len(b.Titles))
	for id := range b.Titles {
		champs = append(champs, id)
	}
	sort.Slice(champs, func(i, j int) bool {
		if b.Titles[champs[i]] != b.Titles[champs[j]] {
			return b.Titles[champs[i]] > b.Titles[champs[j]]
		}
		return champs[i] < champs[j]
	})
	if len(champs) > 0 {
		fmt.Fprintf(w, "\n  most titles: %s (%d)\n", bold(champs[0]), b.Titles[champs[0]])
	}
}
