package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"tombala-cup/server/config"
	"tombala-cup/server/engine"
	"tombala-cup/server/entrants"
	"tombala-cup/server/judge"
	"tombala-cup/server/match"
	"tombala-cup/server/rng"
	"tombala-cup/server/tournament"
)

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// stopFlag is set by the first Ctrl+C; long runs finish the tournament in
// hand and exit. A second Ctrl+C cancels the context.
var stopFlag atomic.Bool

func watchSignals(cancel context.CancelFunc) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt)
	<-ch
	stopFlag.Store(true)
	<-ch
	cancel()
}

func main() {
	_ = godotenv.Load()
	useColor = (os.Getenv("NO_COLOR") == "") && (strings.TrimSpace(os.Getenv("USE_COLOR")) != "0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "tombala-cup",
		Usage: "Tombala card matches inside a 32-country knockout cup",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to the YAML config (default $TOMBALA_CONFIG or tombala.yaml)"},
			&cli.Int64Flag{Name: "seed", Usage: "random seed; 0 picks one"},
			&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error"},
		},
		Writer: out,
		Commands: []*cli.Command{
			tournamentCommand(out),
			benchCommand(out),
			oddsCommand(out),
			cardCommand(out),
		},
	}
}

// setup loads config, applies global flags and builds the logger.
func setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Int64("seed")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if asBool(os.Getenv("DEBUG")) {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	lvl, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	return cfg, logger, nil
}

func tournamentCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "tournament",
		Usage: "run one cup; the player's matches are card matches",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "player", Usage: "country id to play as (e.g. TUR)"},
			&cli.StringFlag{Name: "difficulty", Usage: "bot difficulty: easy|medium|hard"},
			&cli.BoolFlag{Name: "card-matches", Usage: "play every match on cards instead of coin flips"},
			&cli.BoolFlag{Name: "json", Usage: "print the final bracket as JSON"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			if c.IsSet("difficulty") {
				cfg.BotDifficulty = c.String("difficulty")
			}
			if c.IsSet("card-matches") {
				cfg.CardMatches = c.Bool("card-matches")
			}
			bot, err := cfg.BotProfile()
			if err != nil {
				return err
			}

			var player *tournament.Entrant
			if id := strings.ToUpper(c.String("player")); id != "" {
				e, ok := entrants.Lookup(id)
				if !ok {
					return fmt.Errorf("%w: %q", tournament.ErrUnknownEntrant, id)
				}
				player = &e
			}

			r := rng.New(cfg.Seed)
			field, err := entrants.Draw(r, tournament.EntrantCount, player)
			if err != nil {
				return err
			}
			w := out
			if c.Bool("json") {
				w = nil
			}
			res, err := runCup(c.Context, cfg, field, r, logger, cupOptions{
				player:      player,
				cardMatches: cfg.CardMatches,
				profileOf:   func(tournament.Entrant) match.Profile { return bot },
				out:         w,
			})
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printCupJSON(out, res)
			}
			printMedals(out, res)
			if player != nil {
				switch {
				case res.Medals.Gold.ID == player.ID:
					fmt.Fprintf(out, "\n  %s\n", good(player.ID+" won the cup"))
				case res.PlayerOut != "":
					fmt.Fprintf(out, "\n  %s\n", bad(fmt.Sprintf("%s went out in the %s", player.ID, res.PlayerOut)))
				}
			}
			return nil
		},
	}
}

type cupJSON struct {
	RunID   string               `json:"run_id"`
	Field   []tournament.Entrant `json:"field"`
	Matches []matchJSON          `json:"matches"`
	Gold    tournament.Entrant   `json:"gold"`
	Silver  tournament.Entrant   `json:"silver"`
	Bronze  []tournament.Entrant `json:"bronze"`
}

type matchJSON struct {
	Round  string `json:"round"`
	Home   string `json:"home"`
	Away   string `json:"away"`
	Winner string `json:"winner"`
	Reason string `json:"reason,omitempty"`
	Draws  int    `json:"draws,omitempty"`
}

func printCupJSON(w io.Writer, res cupResult) error {
	doc := cupJSON{
		RunID:  res.RunID.String(),
		Field:  res.Field,
		Gold:   res.Medals.Gold,
		Silver: res.Medals.Silver,
		Bronze: res.Medals.Bronze,
	}
	for _, m := range res.Matches {
		mj := matchJSON{Round: m.Round, Home: m.Home.ID, Away: m.Away.ID, Winner: m.Winner.ID}
		if m.Card {
			mj.Reason = string(m.Result.Reason)
			mj.Draws = m.Result.Draws
		}
		doc.Matches = append(doc.Matches, mj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func benchCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "run many bot-only cups and rate the countries",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tournaments", Aliases: []string{"n"}, Usage: "number of cups"},
			&cli.IntFlag{Name: "top", Usage: "rows in the rating table"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			if c.IsSet("tournaments") {
				cfg.Bench.Tournaments = c.Int("tournaments")
			}
			if c.IsSet("top") {
				cfg.Bench.Top = c.Int("top")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var deadline time.Time
			if cfg.Bench.MaxSeconds > 0 {
				deadline = time.Now().Add(time.Duration(cfg.Bench.MaxSeconds) * time.Second)
			}
			stop := func() bool {
				if stopFlag.Load() {
					return true
				}
				if !deadline.IsZero() && time.Now().After(deadline) {
					return true
				}
				if cfg.Bench.StopFile != "" {
					if _, err := os.Stat(cfg.Bench.StopFile); err == nil {
						return true
					}
				}
				return false
			}
			fmt.Fprintln(out, dim("Ctrl+C finishes the current cup and stops; press again to abort."))

			report, err := runBench(c.Context, cfg, logger, stop)
			if report != nil {
				printBench(out, cfg, report)
			}
			return err
		},
	}
}

func oddsCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "odds",
		Usage: "estimate win rates between bot difficulties by simulation",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "trials", Value: 2000, Usage: "matches per pairing"},
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "parallel simulators"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			seed := uint64(cfg.Seed)
			if seed == 0 {
				seed = rng.SecureSeed()
			}
			logger.Debug("odds", slog.Uint64("seed", seed), slog.Int("trials", c.Int("trials")))

			profiles := map[string]match.Profile{"player": cfg.PlayerProfile}
			for k, v := range cfg.Profiles {
				profiles[k] = v
			}
			pairs, err := judge.Matrix(c.Context, cfg.Rules, profiles, c.Int("trials"), c.Int("workers"), seed)
			if err != nil {
				return err
			}
			section(out, "Home win rate")
			fmt.Fprintf(out, "  %-8s %-8s %7s  %-16s %6s %6s %6s %6s\n", "home", "away", "rate", "95% CI", "draws", "ko", "safe", "exh")
			for _, p := range pairs {
				lo, hi := p.Odds.CI95()
				n := float64(max(p.Odds.Trials, 1))
				fmt.Fprintf(out, "  %-8s %-8s %7.3f  [%.3f, %.3f] %6.1f %5.1f%% %5.1f%% %5.1f%%\n",
					p.Home, p.Away, p.Odds.HomeRate(), lo, hi, p.Odds.MeanDraws(),
					100*float64(p.Odds.Reasons[match.MineKnockout])/n,
					100*float64(p.Odds.Reasons[match.SafeWin])/n,
					100*float64(p.Odds.Reasons[match.Exhaustion])/n)
			}
			return nil
		},
	}
}

func cardCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "card",
		Usage: "deal one card and print it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Value: string(engine.Balanced), Usage: "balanced|early-game|late-game"},
			&cli.IntFlag{Name: "mines", Usage: "mines to hide on the card (default rules.mine_count)"},
			&cli.IntFlag{Name: "draws", Usage: "draw this many numbers and mark them"},
		},
		Action: func(c *cli.Context) error {
			cfg, _, err := setup(c)
			if err != nil {
				return err
			}
			strategy, err := engine.ParseStrategy(c.String("strategy"))
			if err != nil {
				return err
			}
			eng := engine.New(cfg.Rules, rng.New(cfg.Seed))
			mines := cfg.Rules.MineCount
			if c.IsSet("mines") {
				mines = c.Int("mines")
			}
			hand := match.Deal(eng, match.Profile{Mines: mines, Strategy: strategy})

			var drawn engine.NumberSet
			var history []int
			if n := c.Int("draws"); n > 0 {
				pool := eng.NewPool()
				for i := 0; i < n; i++ {
					if _, ok := pool.Draw(); !ok {
						break
					}
				}
				drawn = pool.DrawnSet()
				history = pool.Drawn()
			}

			renderCard(out, hand.Card, hand.Mines, drawn)
			fmt.Fprintf(out, "  strategy=%s fits=%v mines=%v\n", strategy, eng.Fits(hand.Card, strategy), hand.Mines.Values())
			if history != nil {
				tally := engine.TallyCard(hand.Card, hand.Mines, history)
				fmt.Fprintf(out, "  drawn=%d outcome=%s status=%q lives=%d safe-to-go=%d\n",
					len(history), eng.Evaluate(hand.Card, hand.Mines, history),
					engine.CheckCardStatus(hand.Card, drawn).String(), eng.MineLives(tally), eng.SafeToGo(tally))
			}
			return nil
		},
	}
}
