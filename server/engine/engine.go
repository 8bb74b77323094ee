package engine

import (
	"fmt"
	"math/rand"

	"tombala-cup/server/rng"
)

// Rules are the tunables of a match. They are fixed for the lifetime of an
// Engine.
type Rules struct {
	MineCount         int `yaml:"mine_count"`
	KnockoutThreshold int `yaml:"knockout_threshold"`
	WinThreshold      int `yaml:"win_threshold"`

	// Strategy bias: a card qualifies as early-game when at least
	// StrategyMinNumbers of its values are <= EarlyMax, late-game when at
	// least that many are >= LateMin.
	StrategyAttempts   int `yaml:"strategy_attempts"`
	StrategyMinNumbers int `yaml:"strategy_min_numbers"`
	EarlyMax           int `yaml:"early_max"`
	LateMin            int `yaml:"late_min"`

	// GenerateAttempts caps randomized layout restarts before the
	// deterministic row packing takes over.
	GenerateAttempts int `yaml:"generate_attempts"`
}

func DefaultRules() Rules {
	return Rules{
		MineCount:          3,
		KnockoutThreshold:  3,
		WinThreshold:       12,
		StrategyAttempts:   50,
		StrategyMinNumbers: 9,
		EarlyMax:           40,
		LateMin:            51,
		GenerateAttempts:   1000,
	}
}

func (r Rules) Validate() error {
	switch {
	case r.MineCount < 0 || r.MineCount > PerCard:
		return fmt.Errorf("mine_count %d outside 0..%d", r.MineCount, PerCard)
	case r.KnockoutThreshold < 1:
		return fmt.Errorf("knockout_threshold must be >= 1, got %d", r.KnockoutThreshold)
	case r.WinThreshold < 1 || r.WinThreshold > PerCard:
		return fmt.Errorf("win_threshold %d outside 1..%d", r.WinThreshold, PerCard)
	case r.StrategyAttempts < 0:
		return fmt.Errorf("strategy_attempts must be >= 0, got %d", r.StrategyAttempts)
	case r.StrategyMinNumbers < 0 || r.StrategyMinNumbers > PerCard:
		return fmt.Errorf("strategy_min_numbers %d outside 0..%d", r.StrategyMinNumbers, PerCard)
	case r.GenerateAttempts < 1:
		return fmt.Errorf("generate_attempts must be >= 1, got %d", r.GenerateAttempts)
	}
	return nil
}

// Engine is the card/draw engine. It owns a random source and the rules;
// pools, cards and mines it hands out are independent values.
//
// An Engine is not safe for concurrent use: callers serialize access, one
// engine per goroutine.
type Engine struct {
	rules Rules
	rng   *rand.Rand
}

// New builds an engine. A nil r gets a randomly seeded source.
func New(rules Rules, r *rand.Rand) *Engine {
	if r == nil {
		r = rng.New(0)
	}
	return &Engine{rules: rules, rng: r}
}

func (e *Engine) Rules() Rules { return e.rules }

// Pool is the per-match number pool. remaining and drawn always partition
// 1..90.
type Pool struct {
	rng       *rand.Rand
	remaining []int
	drawn     []int
}

// NewPool returns a full pool (1..90) that draws with the engine's source.
func (e *Engine) NewPool() *Pool {
	p := &Pool{
		rng:       e.rng,
		remaining: make([]int, PoolSize),
		drawn:     make([]int, 0, PoolSize),
	}
	for i := range p.remaining {
		p.remaining[i] = i + MinNumber
	}
	return p
}

// Draw removes a uniformly random number from the pool and returns it.
// ok is false once the pool is exhausted; that is the end-of-match signal,
// not a failure.
func (p *Pool) Draw() (n int, ok bool) {
	if len(p.remaining) == 0 {
		return 0, false
	}
	i := rng.Pick(p.rng, len(p.remaining))
	n = p.remaining[i]
	last := len(p.remaining) - 1
	p.remaining[i] = p.remaining[last]
	p.remaining = p.remaining[:last]
	p.drawn = append(p.drawn, n)
	return n, true
}

func (p *Pool) Exhausted() bool { return len(p.remaining) == 0 }
func (p *Pool) Len() int        { return len(p.remaining) }

// Drawn returns the draw history in draw order.
func (p *Pool) Drawn() []int { return append([]int(nil), p.drawn...) }

// Remaining returns the undrawn numbers in no particular order.
func (p *Pool) Remaining() []int { return append([]int(nil), p.remaining...) }

func (p *Pool) DrawnSet() NumberSet { return NewNumberSet(p.drawn...) }

// Last returns up to k most recent draws, newest first.
func (p *Pool) Last(k int) []int {
	if k > len(p.drawn) {
		k = len(p.drawn)
	}
	out := make([]int, 0, k)
	for i := len(p.drawn) - 1; i >= len(p.drawn)-k; i-- {
		out = append(out, p.drawn[i])
	}
	return out
}

// AssignMines picks count distinct numbers from card uniformly at random.
// count is clamped to the numbers available; a negative count yields none.
func (e *Engine) AssignMines(card Card, count int) MineSet {
	values := rng.Shuffle(e.rng, card.Numbers())
	if count > len(values) {
		count = len(values)
	}
	if count < 0 {
		count = 0
	}
	return NewMineSet(values[:count]...)
}
