// Package match plays one card match between two sides sharing a draw
// pool. It is the bridge between a bracket pairing and the card engine.
package match

import (
	"context"
	"errors"
	"fmt"

	"tombala-cup/server/engine"
)

// Profile is how a side's card is dealt.
type Profile struct {
	Mines    int             `yaml:"mines"`
	Strategy engine.Strategy `yaml:"strategy"`
}

const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
)

var ErrUnknownDifficulty = errors.New("unknown bot difficulty")

// Profiles are the bot difficulties. Easier bots carry more mines and a
// card biased toward numbers that come out late.
func Profiles() map[string]Profile {
	return map[string]Profile{
		Easy:   {Mines: 4, Strategy: engine.LateGame},
		Medium: {Mines: 3, Strategy: engine.Balanced},
		Hard:   {Mines: 2, Strategy: engine.EarlyGame},
	}
}

// PlayerProfile is what the human side always gets.
func PlayerProfile() Profile { return Profile{Mines: 3, Strategy: engine.Balanced} }

func ProfileFor(difficulty string) (Profile, error) {
	p, ok := Profiles()[difficulty]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, difficulty)
	}
	return p, nil
}

type Side int

const (
	Home Side = iota
	Away
)

func (s Side) String() string {
	if s == Home {
		return "home"
	}
	return "away"
}

func (s Side) Other() Side { return 1 - s }

type Reason string

const (
	MineKnockout Reason = "mine-knockout"
	SafeWin      Reason = "safe-win"
	Exhaustion   Reason = "exhaustion"
)

// Hand is one side's dealt card.
type Hand struct {
	Card  engine.Card
	Mines engine.MineSet
}

func Deal(e *engine.Engine, p Profile) Hand {
	card := e.GenerateCardWithStrategy(p.Strategy)
	return Hand{Card: card, Mines: e.AssignMines(card, p.Mines)}
}

// Setup deals both sides from the same engine.
func Setup(e *engine.Engine, home, away Profile) (Hand, Hand) {
	return Deal(e, home), Deal(e, away)
}

type SideResult struct {
	Tally   engine.Tally
	Outcome engine.Outcome
	Status  engine.Status
}

type Result struct {
	Winner Side
	Reason Reason
	Draws  int
	Drawn  []int
	Home   SideResult
	Away   SideResult
}

// Play deals both sides and draws until one resolves.
func Play(ctx context.Context, e *engine.Engine, home, away Profile) (Result, error) {
	h, a := Setup(e, home, away)
	return Resolve(ctx, e, h, a)
}

// Resolve draws from a fresh pool until a side resolves. A home knockout
// hands the match to away before anything else is looked at, then an away
// knockout, then a home win, then an away win. If the pool runs dry the
// away side wins: every number has been drawn by then, so neither card has
// anything left to compare on.
func Resolve(ctx context.Context, e *engine.Engine, home, away Hand) (Result, error) {
	pool := e.NewPool()
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if _, ok := pool.Draw(); !ok {
			break
		}
		drawn := pool.Drawn()
		hs := e.Evaluate(home.Card, home.Mines, drawn)
		as := e.Evaluate(away.Card, away.Mines, drawn)

		var (
			winner Side
			reason Reason
		)
		switch {
		case hs == engine.Knockout:
			winner, reason = Away, MineKnockout
		case as == engine.Knockout:
			winner, reason = Home, MineKnockout
		case hs == engine.Win:
			winner, reason = Home, SafeWin
		case as == engine.Win:
			winner, reason = Away, SafeWin
		default:
			continue
		}
		return finish(e, pool, home, away, winner, reason), nil
	}

	return finish(e, pool, home, away, Away, Exhaustion), nil
}

func finish(e *engine.Engine, pool *engine.Pool, home, away Hand, winner Side, reason Reason) Result {
	drawn := pool.Drawn()
	set := pool.DrawnSet()
	side := func(h Hand) SideResult {
		return SideResult{
			Tally:   engine.TallyCard(h.Card, h.Mines, drawn),
			Outcome: e.Evaluate(h.Card, h.Mines, drawn),
			Status:  engine.CheckCardStatus(h.Card, set),
		}
	}
	return Result{
		Winner: winner,
		Reason: reason,
		Draws:  len(drawn),
		Drawn:  drawn,
		Home:   side(home),
		Away:   side(away),
	}
}
