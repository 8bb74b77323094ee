package ratings

import (
	"math"
	"sort"
)

const (
	g2Scale = 173.7178          // r <-> mu
	q       = math.Ln10 / 400.0 // ln(10)/400
	pi2     = math.Pi * math.Pi
)

// Glicko2 is one entrant's public 1500-scale rating.
type Glicko2 struct {
	Rating     float64
	RD         float64
	Volatility float64
	Periods    int
}

func NewGlicko2() Glicko2 { return Glicko2{Rating: 1500, RD: 350, Volatility: 0.06} }

func toMuPhi(r, rd float64) (mu, phi float64)   { return (r - 1500.0) / g2Scale, rd / g2Scale }
func fromMuPhi(mu, phi float64) (r, rd float64) { return mu*g2Scale + 1500.0, phi * g2Scale }

func g(phi float64) float64 { return 1.0 / math.Sqrt(1.0+3.0*q*q*phi*phi/pi2) }

func expected(mu, muj, phij float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phij)*(mu-muj)))
}

// outcome is one game inside a rating period, scored S in [0,1] against an
// opponent frozen at the start of the period.
type outcome struct {
	opp Glicko2
	s   float64
}

// age is the idle-period step: RD grows, rating stays.
func (a Glicko2) age() Glicko2 {
	mu, phi := toMuPhi(a.Rating, a.RD)
	a.Rating, a.RD = fromMuPhi(mu, math.Sqrt(phi*phi+a.Volatility*a.Volatility))
	a.Periods++
	return a
}

// rate runs the rating-period update against every game in games.
func (a Glicko2) rate(games []outcome, tau float64) Glicko2 {
	if len(games) == 0 {
		return a.age()
	}
	mu, phi := toMuPhi(a.Rating, a.RD)

	var sumG2E, sumGSE float64
	for _, o := range games {
		muB, phiB := toMuPhi(o.opp.Rating, o.opp.RD)
		gB := g(phiB)
		e := expected(mu, muB, phiB)
		sumG2E += gB * gB * e * (1.0 - e)
		sumGSE += gB * (o.s - e)
	}
	v := 1.0 / (q * q * sumG2E)
	delta := v * q * sumGSE

	sigma := a.Volatility
	if math.Abs(delta) >= 1e-12 {
		sigma = newVolatility(phi, v, delta, a.Volatility, tau)
	}
	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiNew := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muNew := mu + phiNew*phiNew*q*sumGSE

	a.Rating, a.RD = fromMuPhi(muNew, phiNew)
	a.Volatility = sigma
	a.Periods++
	return a
}

// newVolatility solves f(x)=0 for x = ln(sigma'^2) with the Illinois
// variant of regula falsi.
func newVolatility(phi, v, delta, sigma, tau float64) float64 {
	a := math.Log(sigma * sigma)
	f := func(x float64) float64 {
		ex := math.Exp(x)
		d := phi*phi + v + ex
		return ex*(delta*delta-phi*phi-v-ex)/(2.0*d*d) - (x-a)/(tau*tau)
	}

	A := a
	var B float64
	if delta*delta > phi*phi+v {
		B = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1.0
		for f(a-k*tau) < 0 && k < 1e6 {
			k++
		}
		B = a - k*tau
	}
	fA, fB := f(A), f(B)
	for it := 0; it < 100 && math.Abs(B-A) > 1e-6; it++ {
		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)
		if math.IsNaN(fC) || math.IsInf(fC, 0) {
			break
		}
		if fC*fB < 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}
	return math.Exp(A / 2.0)
}

// Ledger batches match results into rating periods. One tournament is one
// period: record its matches, then Close.
type Ledger struct {
	tau     float64
	players map[string]Glicko2
	pending map[string][]pendingGame
}

type pendingGame struct {
	opp string
	s   float64
}

func NewLedger(tau float64) *Ledger {
	return &Ledger{tau: tau, players: map[string]Glicko2{}, pending: map[string][]pendingGame{}}
}

// Record books a decided match in the open period.
func (l *Ledger) Record(winner, loser string) {
	l.pending[winner] = append(l.pending[winner], pendingGame{opp: loser, s: 1})
	l.pending[loser] = append(l.pending[loser], pendingGame{opp: winner, s: 0})
}

// Close rates everyone against opponents as they stood when the period
// opened. Known entrants with no games this period are aged.
func (l *Ledger) Close() {
	snapshot := make(map[string]Glicko2, len(l.players)+len(l.pending))
	for id, p := range l.players {
		snapshot[id] = p
	}
	for id := range l.pending {
		if _, ok := snapshot[id]; !ok {
			snapshot[id] = NewGlicko2()
		}
	}

	next := make(map[string]Glicko2, len(snapshot))
	for id, p := range snapshot {
		games := make([]outcome, 0, len(l.pending[id]))
		for _, pg := range l.pending[id] {
			games = append(games, outcome{opp: snapshot[pg.opp], s: pg.s})
		}
		next[id] = p.rate(games, l.tau)
	}
	l.players = next
	l.pending = map[string][]pendingGame{}
}

func (l *Ledger) Get(id string) (Glicko2, bool) {
	p, ok := l.players[id]
	return p, ok
}

// Ranked lists rated entrants by conservative rating (Rating - 2*RD).
func (l *Ledger) Ranked() []RatedEntrant {
	out := make([]RatedEntrant, 0, len(l.players))
	for id, p := range l.players {
		out = append(out, RatedEntrant{ID: id, Glicko2: p})
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Conservative(), out[j].Conservative()
		if ci != cj {
			return ci > cj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type RatedEntrant struct {
	ID string
	Glicko2
}

func (r RatedEntrant) Conservative() float64 { return r.Rating - 2*r.RD }
