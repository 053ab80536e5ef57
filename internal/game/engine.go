package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// multiplierPlaces is the precision reported for payout multipliers.
const multiplierPlaces = 4

// Outcome is the result of one resolved play.
type Outcome struct {
	Won        bool            `json:"won"`
	Multiplier decimal.Decimal `json:"multiplier"`
	WinAmount  int64           `json:"winAmount"`
}

// Engine resolves plays against a registry. It holds no per-play state.
type Engine struct {
	registry *Registry
	rng      RandomSource
}

// NewEngine creates an Engine. A nil rng uses CryptoSource.
func NewEngine(registry *Registry, rng RandomSource) *Engine {
	if rng == nil {
		rng = CryptoSource{}
	}
	return &Engine{registry: registry, rng: rng}
}

// Registry returns the games the engine resolves.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Resolve decides one play. A win happens with probability WinChance; its
// multiplier is 1 + U*(MaxMultiplier-1) and the payout floor(bet*multiplier)
// taken on the exact multiplier, so bet <= WinAmount <= floor(bet*MaxMultiplier).
// The reported Multiplier is truncated to four places. A loss pays nothing.
func (e *Engine) Resolve(t GameType, bet int64) (*Outcome, error) {
	g, ok := e.registry.Get(t)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameType, t)
	}
	if bet <= 0 {
		return nil, ErrInvalidBet
	}

	if e.rng.Float64() >= g.Odds.WinChance {
		return &Outcome{Won: false, Multiplier: decimal.Zero, WinAmount: 0}, nil
	}

	one := decimal.NewFromInt(1)
	upper := decimal.NewFromFloat(g.Odds.MaxMultiplier)
	exact := one.Add(decimal.NewFromFloat(e.rng.Float64()).Mul(upper.Sub(one)))
	exact = clamp(exact, one, upper)

	stake := decimal.NewFromInt(bet)
	win := clamp(stake.Mul(exact).Floor(), stake, stake.Mul(upper).Floor())

	return &Outcome{
		Won:        true,
		Multiplier: exact.Truncate(multiplierPlaces),
		WinAmount:  win.IntPart(),
	}, nil
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
