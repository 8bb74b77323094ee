package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombala-cup/server/rng"
)

func TestEloUpdateIsZeroSum(t *testing.T) {
	e := NewElo(1500, 24)
	assert.InDelta(t, 0.5, e.Expect("TUR", "BRA"), 1e-9)

	dW, dL := e.Update("TUR", "BRA", 0)
	assert.InDelta(t, 12, dW, 1e-9, "even match, K/2")
	assert.InDelta(t, -dW, dL, 1e-9)
	assert.InDelta(t, 1512, e.Rating("TUR"), 1e-9)
	assert.InDelta(t, 1488, e.Rating("BRA"), 1e-9)
	assert.Equal(t, 1, e.Games("TUR"))
	assert.Equal(t, 1500.0, e.Rating("JPN"), "unrated entrants sit at start")
}

func TestEloMarginAndAnneal(t *testing.T) {
	narrow := NewElo(1500, 24)
	wide := NewElo(1500, 24)
	dn, _ := narrow.Update("A", "B", 1)
	dw, _ := wide.Update("A", "B", 12)
	assert.Greater(t, dw, dn)
	assert.LessOrEqual(t, dw, 12*1.35+1e-9)

	fresh := NewElo(1500, 24)
	veteran := NewElo(1500, 24)
	for i := 0; i < 100; i++ {
		veteran.Update("X", "Y", 0)
		veteran.Update("Y", "X", 0)
	}
	veteran.ratings["X"], veteran.ratings["Y"] = 1500, 1500
	df, _ := fresh.Update("X", "Y", 0)
	dv, _ := veteran.Update("X", "Y", 0)
	assert.Less(t, dv, df)
}

func TestEloStandings(t *testing.T) {
	e := NewElo(1500, 24)
	e.Update("A", "B", 0)
	e.Update("A", "C", 0)
	e.Update("B", "C", 0)

	st := e.Standings()
	require.Len(t, st, 3)
	assert.Equal(t, "A", st[0].ID)
	assert.Equal(t, "C", st[2].ID)
	assert.Equal(t, 2, st[0].Games)
}

// Worked example from Glickman's Glicko-2 paper.
func TestGlicko2PaperExample(t *testing.T) {
	p := Glicko2{Rating: 1500, RD: 200, Volatility: 0.06}
	games := []outcome{
		{opp: Glicko2{Rating: 1400, RD: 30}, s: 1},
		{opp: Glicko2{Rating: 1550, RD: 100}, s: 0},
		{opp: Glicko2{Rating: 1700, RD: 300}, s: 0},
	}
	got := p.rate(games, 0.5)
	assert.InDelta(t, 1464.06, got.Rating, 0.05)
	assert.InDelta(t, 151.52, got.RD, 0.05)
	assert.InDelta(t, 0.05999, got.Volatility, 1e-4)
	assert.Equal(t, 1, got.Periods)
}

func TestGlicko2AgeWidensRD(t *testing.T) {
	p := Glicko2{Rating: 1600, RD: 50, Volatility: 0.06}
	aged := p.rate(nil, 0.5)
	assert.Equal(t, 1600.0, aged.Rating)
	assert.Greater(t, aged.RD, 50.0)
}

func TestLedgerPeriods(t *testing.T) {
	l := NewLedger(0.5)
	l.Record("A", "B")
	l.Record("A", "C")
	l.Close()

	a, ok := l.Get("A")
	require.True(t, ok)
	b, ok := l.Get("B")
	require.True(t, ok)
	assert.Greater(t, a.Rating, 1500.0)
	assert.Less(t, b.Rating, 1500.0)
	assert.Less(t, a.RD, 350.0)

	// C sits out the next period and only ages
	c, _ := l.Get("C")
	l.Record("A", "B")
	l.Close()
	c2, ok := l.Get("C")
	require.True(t, ok)
	assert.Equal(t, c.Rating, c2.Rating)
	assert.Greater(t, c2.RD, c.RD)
	assert.Equal(t, 2, c2.Periods)

	ranked := l.Ranked()
	require.Len(t, ranked, 3)
	assert.Equal(t, "A", ranked[0].ID)
}

func TestLedgerUsesStartOfPeriodRatings(t *testing.T) {
	// booking order inside a period must not matter
	l1 := NewLedger(0.5)
	l1.Record("A", "B")
	l1.Record("B", "C")
	l1.Close()

	l2 := NewLedger(0.5)
	l2.Record("B", "C")
	l2.Record("A", "B")
	l2.Close()

	for _, id := range []string{"A", "B", "C"} {
		p1, _ := l1.Get(id)
		p2, _ := l2.Get(id)
		assert.InDelta(t, p1.Rating, p2.Rating, 1e-9, id)
		assert.InDelta(t, p1.RD, p2.RD, 1e-9, id)
	}
}

func TestWilsonCI95(t *testing.T) {
	lo, hi := WilsonCI95(0, 0)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = WilsonCI95(50, 100)
	assert.InDelta(t, 0.4038, lo, 1e-3)
	assert.InDelta(t, 0.5962, hi, 1e-3)

	lo, hi = WilsonCI95(0, 20)
	assert.InDelta(t, 0.0, lo, 1e-12)
	assert.Greater(t, hi, 0.0)
	assert.Less(t, hi, 0.2)
}

func TestBootstrapCI95(t *testing.T) {
	r := rng.New(1)
	vals := make([]float64, 200)
	for i := range vals {
		vals[i] = float64(i % 10)
	}
	lo, hi := BootstrapCI95(r, vals, 1000)
	mean := Mean(vals)
	assert.InDelta(t, 4.5, mean, 1e-9)
	assert.Less(t, lo, mean)
	assert.Greater(t, hi, mean)
	assert.Greater(t, lo, 3.5)
	assert.Less(t, hi, 5.5)

	lo, hi = BootstrapCI95(r, nil, 1000)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}
