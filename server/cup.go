package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"tombala-cup/server/config"
	"tombala-cup/server/engine"
	"tombala-cup/server/match"
	"tombala-cup/server/tournament"
)

// cupOptions controls one tournament run.
type cupOptions struct {
	player *tournament.Entrant
	// cardMatches plays every match on cards; otherwise only the player's
	// matches are and the rest are coin flips.
	cardMatches bool
	// profileOf deals bot cards; the player always gets cfg.PlayerProfile.
	profileOf func(tournament.Entrant) match.Profile
	// out receives the play-by-play; nil keeps the run quiet.
	out io.Writer
}

type matchRecord struct {
	Round  string
	Home   tournament.Entrant
	Away   tournament.Entrant
	Winner tournament.Entrant
	// Card is false for coin-flip results; Result is zero then.
	Card   bool
	Result match.Result
}

func (m matchRecord) Loser() tournament.Entrant {
	if m.Winner.ID == m.Home.ID {
		return m.Away
	}
	return m.Home
}

type cupResult struct {
	RunID   uuid.UUID
	Field   []tournament.Entrant
	Matches []matchRecord
	Medals  tournament.Medals
	Skipped int
	// PlayerOut is the round the player went out in, "" if they won it or
	// there was no player.
	PlayerOut string
}

// runCup plays one whole tournament over field. Card matches and coin
// flips share r, so a seed reproduces the run.
func runCup(ctx context.Context, cfg *config.Config, field []tournament.Entrant, r *rand.Rand, log *slog.Logger, o cupOptions) (cupResult, error) {
	runID := uuid.New()
	log = log.With(slog.String("run_id", runID.String()))

	opts := []tournament.Option{tournament.WithRand(r), tournament.WithLogger(log)}
	if o.player != nil {
		opts = append(opts, tournament.WithPlayer(*o.player))
	}
	tour, err := tournament.New(field, opts...)
	if err != nil {
		return cupResult{}, fmt.Errorf("build bracket: %w", err)
	}
	eng := engine.New(cfg.Rules, r)
	res := cupResult{RunID: runID, Field: field}

	profile := func(e tournament.Entrant) match.Profile {
		if o.player != nil && e.ID == o.player.ID {
			return cfg.PlayerProfile
		}
		if o.profileOf != nil {
			return o.profileOf(e)
		}
		return cfg.PlayerProfile
	}

	lastRound := ""
	emit := func(rec matchRecord) {
		res.Matches = append(res.Matches, rec)
		if o.out != nil && rec.Round != lastRound {
			section(o.out, rec.Round)
			lastRound = rec.Round
		}
		printRecord(o.out, rec)
	}

	for !tour.IsComplete() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !o.cardMatches {
			round, idx := tour.Cursor()
			if _, err := tour.SimulateUntilPlayerMatch(); err != nil {
				return res, err
			}
			for _, rec := range playedSince(tour.Bracket(), round, idx) {
				emit(rec)
			}
			if tour.IsComplete() {
				break
			}
		}

		info, _ := tour.NextMatch()
		if info.Team1 == nil || info.Team2 == nil {
			if _, err := tour.AutoSimulate(); err != nil {
				return res, err
			}
			continue
		}

		home, away := *info.Team1, *info.Team2
		hh, ah := match.Setup(eng, profile(home), profile(away))
		mr, err := match.Resolve(ctx, eng, hh, ah)
		if err != nil {
			return res, err
		}
		winner := home
		if mr.Winner == match.Away {
			winner = away
		}
		if err := tour.RecordResult(winner); err != nil {
			return res, err
		}
		rec := matchRecord{Round: info.Round, Home: home, Away: away, Winner: winner, Card: true, Result: mr}
		log.Debug("card match",
			slog.String("round", info.Round),
			slog.String("home", home.ID),
			slog.String("away", away.ID),
			slog.String("winner", winner.ID),
			slog.String("reason", string(mr.Reason)),
			slog.Int("draws", mr.Draws),
		)
		emit(rec)
		if !info.IsPlayerMatch {
			continue
		}
		if o.out != nil {
			printCardMatch(o.out, eng, rec, hh, ah)
		}
		if tour.IsPlayerEliminated() {
			res.PlayerOut = info.Round
		} else if next, opp, ok := tour.PlayerNextMatch(); ok && o.out != nil {
			fmt.Fprintf(o.out, "  %s %s vs %s\n", dim("next:"), next.Round, entrantLabel(opp))
		}
	}

	res.Skipped = tour.Skipped()
	medals, err := tour.Medalists()
	if err != nil {
		return res, err
	}
	res.Medals = medals
	log.Info("tournament complete",
		slog.String("champion", medals.Gold.ID),
		slog.Int("matches", len(res.Matches)),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

// playedSince lists the results recorded from cursor (round, idx) up to the
// bracket's current cursor. Skipped matches have no winner and are left out.
func playedSince(b tournament.Bracket, round, idx int) []matchRecord {
	var out []matchRecord
	for round < b.CurrentRound || (round == b.CurrentRound && idx < b.CurrentMatch) {
		r := b.Rounds[round]
		m := r.Matches[idx]
		if m.Winner != nil && m.Team1 != nil && m.Team2 != nil {
			out = append(out, matchRecord{Round: r.Name, Home: *m.Team1, Away: *m.Team2, Winner: *m.Winner})
		}
		idx++
		if idx >= len(r.Matches) {
			round, idx = round+1, 0
		}
	}
	return out
}

func printRecord(w io.Writer, rec matchRecord) {
	if w == nil {
		return
	}
	home, away := rec.Home, rec.Away
	line := fmt.Sprintf("  %s vs %s -> %s", entrantLabel(&home), entrantLabel(&away), good(rec.Winner.ID))
	if rec.Card {
		line += fmt.Sprintf(" %s %s", reasonTag(rec.Result.Reason), dim(fmt.Sprintf("after %d draws", rec.Result.Draws)))
	} else {
		line += " " + dim("(simulated)")
	}
	fmt.Fprintln(w, line)
}

func printCardMatch(w io.Writer, eng *engine.Engine, rec matchRecord, home, away match.Hand) {
	drawn := engine.NewNumberSet(rec.Result.Drawn...)
	fmt.Fprintf(w, "    %s\n", rec.Home.ID)
	renderCard(w, home.Card, home.Mines, drawn)
	renderTally(w, rec.Home.ID, eng, rec.Result.Home)
	fmt.Fprintf(w, "    %s\n", rec.Away.ID)
	renderCard(w, away.Card, away.Mines, drawn)
	renderTally(w, rec.Away.ID, eng, rec.Result.Away)
}

func printMedals(w io.Writer, res cupResult) {
	section(w, "Podium")
	gold, silver := res.Medals.Gold, res.Medals.Silver
	fmt.Fprintf(w, "  gold   %s\n", entrantLabel(&gold))
	fmt.Fprintf(w, "  silver %s\n", entrantLabel(&silver))
	for _, b := range res.Medals.Bronze {
		fmt.Fprintf(w, "  bronze %s\n", entrantLabel(&b))
	}
	if res.Skipped > 0 {
		fmt.Fprintf(w, "  %s\n", warn(fmt.Sprintf("%d matches skipped (bracket fault)", res.Skipped)))
	}
}
