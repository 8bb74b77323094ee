package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombala-cup/server/engine"
	"tombala-cup/server/rng"
)

func TestProfiles(t *testing.T) {
	tests := []struct {
		difficulty string
		want       Profile
	}{
		{Easy, Profile{Mines: 4, Strategy: engine.LateGame}},
		{Medium, Profile{Mines: 3, Strategy: engine.Balanced}},
		{Hard, Profile{Mines: 2, Strategy: engine.EarlyGame}},
	}
	for _, tt := range tests {
		t.Run(tt.difficulty, func(t *testing.T) {
			got, err := ProfileFor(tt.difficulty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ProfileFor("nightmare")
	assert.ErrorIs(t, err, ErrUnknownDifficulty)
	assert.Equal(t, Profile{Mines: 3, Strategy: engine.Balanced}, PlayerProfile())
}

func TestDeal(t *testing.T) {
	e := engine.New(engine.DefaultRules(), rng.New(1))
	h := Deal(e, Profile{Mines: 4, Strategy: engine.LateGame})
	require.NoError(t, h.Card.Validate())
	assert.Equal(t, 4, h.Mines.Len())
	for _, n := range h.Mines.Values() {
		assert.True(t, h.Card.Contains(n))
	}
}

// Both hands share one card so every draw lands on both at once.
func sharedHands(t *testing.T, homeMined, awayMined bool, rules engine.Rules) (*engine.Engine, Hand, Hand) {
	t.Helper()
	e := engine.New(rules, rng.New(2))
	card := e.GenerateCard()
	hand := func(mined bool) Hand {
		if mined {
			return Hand{Card: card, Mines: engine.NewMineSet(card.Numbers()...)}
		}
		return Hand{Card: card, Mines: engine.NewMineSet()}
	}
	return e, hand(homeMined), hand(awayMined)
}

func TestResolvePriority(t *testing.T) {
	rules := engine.DefaultRules()
	rules.KnockoutThreshold = 1
	rules.WinThreshold = 1

	tests := []struct {
		name       string
		homeMined  bool
		awayMined  bool
		wantWinner Side
		wantReason Reason
	}{
		{"home knockout first", true, true, Away, MineKnockout},
		{"home knockout beats home nothing", true, false, Away, MineKnockout},
		{"away knockout beats home win", false, true, Home, MineKnockout},
		{"home win beats away win", false, false, Home, SafeWin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, home, away := sharedHands(t, tt.homeMined, tt.awayMined, rules)
			res, err := Resolve(context.Background(), e, home, away)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWinner, res.Winner)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, res.Draws, len(res.Drawn))
			assert.True(t, home.Card.Contains(res.Drawn[len(res.Drawn)-1]), "match ends on a card number")
		})
	}
}

func TestResolveExhaustionGoesAway(t *testing.T) {
	rules := engine.DefaultRules()
	rules.KnockoutThreshold = engine.PerCard + 1
	e, home, away := sharedHands(t, true, true, rules)

	res, err := Resolve(context.Background(), e, home, away)
	require.NoError(t, err)
	assert.Equal(t, Exhaustion, res.Reason)
	assert.Equal(t, engine.PoolSize, res.Draws)
	assert.Equal(t, Away, res.Winner)
	assert.Zero(t, res.Home.Tally.Undrawn(), "an exhausted pool leaves nothing undrawn")
	assert.Zero(t, res.Away.Tally.Undrawn())
	assert.Equal(t, engine.Ongoing, res.Home.Outcome)
	assert.Equal(t, engine.Tombala, res.Home.Status)
}

func TestResolveHonoursContext(t *testing.T) {
	e, home, away := sharedHands(t, false, false, engine.DefaultRules())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Resolve(ctx, e, home, away)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlayResultsAreConsistent(t *testing.T) {
	e := engine.New(engine.DefaultRules(), rng.New(3))
	for _, diff := range []string{Easy, Medium, Hard} {
		bot, err := ProfileFor(diff)
		require.NoError(t, err)
		for i := 0; i < 200; i++ {
			res, err := Play(context.Background(), e, PlayerProfile(), bot)
			require.NoError(t, err)
			require.NotEqual(t, Exhaustion, res.Reason, "default rules always resolve before the pool runs dry")
			require.LessOrEqual(t, res.Draws, engine.PoolSize)

			win, lose := res.Home, res.Away
			if res.Winner == Away {
				win, lose = lose, win
			}
			switch res.Reason {
			case MineKnockout:
				require.Equal(t, engine.Knockout, lose.Outcome)
			case SafeWin:
				require.Equal(t, engine.Win, win.Outcome)
				require.NotEqual(t, engine.Knockout, lose.Outcome)
				require.NotEqual(t, engine.Knockout, win.Outcome)
			}
		}
	}
}

func TestSide(t *testing.T) {
	assert.Equal(t, Away, Home.Other())
	assert.Equal(t, Home, Away.Other())
	assert.Equal(t, "home", Home.String())
	assert.Equal(t, "away", Away.String())
}
