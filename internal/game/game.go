// Package game resolves chance plays: each game is a weighted coin flip with a
// random payout multiplier.
package game

import (
	"errors"
	"fmt"
)

// Errors for game resolution.
var (
	ErrInvalidGameType = errors.New("invalid game type")
	ErrInvalidBet      = errors.New("bet amount must be positive")
	ErrInvalidOdds     = errors.New("invalid game odds")
)

// GameType identifies a game. The set is closed: only registered types resolve.
type GameType string

const (
	Spitball      GameType = "spitball"
	Alpaca        GameType = "alpaca"
	LlamaDrama    GameType = "llama_drama"
	FleeceRace    GameType = "fleece_race"
	ProbableLlama GameType = "probable_llama"
)

// Odds is the probability configuration of one game.
type Odds struct {
	WinChance     float64 `json:"winChance"`
	MaxMultiplier float64 `json:"maxMultiplier"`
}

// Validate checks 0 < WinChance < 1 and MaxMultiplier >= 1.
func (o Odds) Validate() error {
	if !(o.WinChance > 0 && o.WinChance < 1) {
		return fmt.Errorf("%w: win chance %v not in (0,1)", ErrInvalidOdds, o.WinChance)
	}
	if !(o.MaxMultiplier >= 1) {
		return fmt.Errorf("%w: max multiplier %v below 1", ErrInvalidOdds, o.MaxMultiplier)
	}
	return nil
}

// Game describes one playable game.
type Game struct {
	Type        GameType `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Odds        Odds     `json:"odds"`
	// TicketCost is the stake the client offers by default.
	TicketCost int64 `json:"ticketCost"`
}

// Builtin returns the stock game catalog.
func Builtin() []Game {
	return []Game{
		{
			Type:        Spitball,
			Name:        "Spitball Slam",
			Description: "Aim Larry's spit at the moving targets.",
			Odds:        Odds{WinChance: 0.40, MaxMultiplier: 5},
			TicketCost:  5,
		},
		{
			Type:        Alpaca,
			Name:        "Alpaca Attack",
			Description: "Fend off the invading alpacas.",
			Odds:        Odds{WinChance: 0.30, MaxMultiplier: 8},
			TicketCost:  10,
		},
		{
			Type:        LlamaDrama,
			Name:        "Llama Drama",
			Description: "Pick the llama that starts the drama.",
			Odds:        Odds{WinChance: 0.20, MaxMultiplier: 15},
			TicketCost:  3,
		},
		{
			Type:        FleeceRace,
			Name:        "Fleece Race",
			Description: "Bet on the fluffiest racer.",
			Odds:        Odds{WinChance: 0.35, MaxMultiplier: 6},
			TicketCost:  5,
		},
		{
			Type:        ProbableLlama,
			Name:        "Probable Llama",
			Description: "Guess where the llama is probably hiding.",
			Odds:        Odds{WinChance: 0.45, MaxMultiplier: 3},
			TicketCost:  1,
		},
	}
}
