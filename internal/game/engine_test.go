package game

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fixedSource replays draws in order and then repeats the last one.
type fixedSource struct {
	draws []float64
	i     int
}

func (f *fixedSource) Float64() float64 {
	v := f.draws[f.i]
	if f.i < len(f.draws)-1 {
		f.i++
	}
	return v
}

func newTestEngine(t *testing.T, rng RandomSource) *Engine {
	t.Helper()
	reg, err := NewBuiltinRegistry(nil)
	require.NoError(t, err)
	return NewEngine(reg, rng)
}

func TestEngine_Resolve_Loss(t *testing.T) {
	e := newTestEngine(t, &fixedSource{draws: []float64{0.40}})

	out, err := e.Resolve(Spitball, 5)
	require.NoError(t, err)
	assert.False(t, out.Won)
	assert.True(t, out.Multiplier.IsZero())
	assert.Zero(t, out.WinAmount)
}

func TestEngine_Resolve_Win(t *testing.T) {
	tests := []struct {
		name     string
		game     GameType
		bet      int64
		draws    []float64
		wantMult string
		wantWin  int64
	}{
		{"minimum multiplier", Spitball, 5, []float64{0.0, 0.0}, "1", 5},
		{"half way", Spitball, 5, []float64{0.1, 0.5}, "3", 15},
		{"floors payout", Alpaca, 3, []float64{0.29, 0.25}, "2.75", 8},
		{"near max", LlamaDrama, 2, []float64{0.0, 0.99999999}, "14.9999", 29},
		{"payout uses exact multiplier", LlamaDrama, 3, []float64{0.0, (1.0/3 + 1e-6) / 14}, "1.3333", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, &fixedSource{draws: tt.draws})
			out, err := e.Resolve(tt.game, tt.bet)
			require.NoError(t, err)
			assert.True(t, out.Won)
			assert.True(t, out.Multiplier.Equal(decimal.RequireFromString(tt.wantMult)), "multiplier %s", out.Multiplier)
			assert.Equal(t, tt.wantWin, out.WinAmount)
		})
	}
}

func TestEngine_Resolve_Errors(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.Resolve("roulette", 5)
	assert.ErrorIs(t, err, ErrInvalidGameType)

	_, err = e.Resolve(Spitball, 0)
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = e.Resolve(Spitball, -3)
	assert.ErrorIs(t, err, ErrInvalidBet)
}

// TestEngine_OutcomeBoundsProperty checks bet <= winAmount <= floor(bet*max)
// for every win, on every game.
func TestEngine_OutcomeBoundsProperty(t *testing.T) {
	e := newTestEngine(t, NewSeededSource(7))
	games := e.Registry().List()

	rapid.Check(t, func(t *rapid.T) {
		g := rapid.SampledFrom(games).Draw(t, "game")
		bet := rapid.Int64Range(1, 1_000_000).Draw(t, "bet")

		out, err := e.Resolve(g.Type, bet)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if !out.Won {
			if out.WinAmount != 0 || !out.Multiplier.IsZero() {
				t.Fatalf("loss must pay nothing, got %d x%s", out.WinAmount, out.Multiplier)
			}
			return
		}
		upper := int64(math.Floor(float64(bet) * g.Odds.MaxMultiplier))
		if out.WinAmount < bet || out.WinAmount > upper {
			t.Fatalf("win %d outside [%d, %d]", out.WinAmount, bet, upper)
		}
		if reported := decimal.NewFromInt(bet).Mul(out.Multiplier).Floor().IntPart(); out.WinAmount < reported {
			t.Fatalf("win %d below floor(bet*%s)=%d", out.WinAmount, out.Multiplier, reported)
		}
		if out.Multiplier.LessThan(decimal.NewFromInt(1)) || out.Multiplier.GreaterThan(decimal.NewFromFloat(g.Odds.MaxMultiplier)) {
			t.Fatalf("multiplier %s outside [1, %v]", out.Multiplier, g.Odds.MaxMultiplier)
		}
	})
}

func TestEngine_WinRateSimulation(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Game{Type: "sim", Odds: Odds{WinChance: 0.2, MaxMultiplier: 15}}))
	e := NewEngine(reg, NewSeededSource(42))

	const plays = 100_000
	const bet = int64(10)
	wins := 0
	for i := 0; i < plays; i++ {
		out, err := e.Resolve("sim", bet)
		require.NoError(t, err)
		if out.Won {
			wins++
			require.GreaterOrEqual(t, out.WinAmount, bet)
			require.LessOrEqual(t, out.WinAmount, bet*15)
		}
	}

	// Five standard deviations of a Binomial(100000, 0.2) proportion is about 0.0063.
	rate := float64(wins) / plays
	assert.InDelta(t, 0.2, rate, 0.0065)
}

func TestEngine_CryptoSourceRange(t *testing.T) {
	src := CryptoSource{}
	for i := 0; i < 10_000; i++ {
		v := src.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestOdds_Validate(t *testing.T) {
	assert.NoError(t, Odds{WinChance: 0.5, MaxMultiplier: 1}.Validate())
	assert.ErrorIs(t, Odds{WinChance: 0, MaxMultiplier: 2}.Validate(), ErrInvalidOdds)
	assert.ErrorIs(t, Odds{WinChance: 1, MaxMultiplier: 2}.Validate(), ErrInvalidOdds)
	assert.ErrorIs(t, Odds{WinChance: 0.3, MaxMultiplier: 0.5}.Validate(), ErrInvalidOdds)
	assert.ErrorIs(t, Odds{WinChance: math.NaN(), MaxMultiplier: 2}.Validate(), ErrInvalidOdds)
}
