// Package model defines the data models for the llama arcade.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is an account keyed by the identity provider's subject id.
// LlamaBalance and TicketBalance never go negative; the schema enforces it.
type User struct {
	ID              string          `json:"id"`
	Email           *string         `json:"email"`
	FirstName       *string         `json:"firstName"`
	LastName        *string         `json:"lastName"`
	ProfileImageURL *string         `json:"profileImageUrl"`
	LlamaBalance    decimal.Decimal `json:"llamaBalance"`
	TicketBalance   int64           `json:"ticketBalance"`
	ReferralCode    string          `json:"referralCode"`
	ReferredBy      *string         `json:"referredBy"`
	MiningRate      decimal.Decimal `json:"miningRate"`
	MiningCapacity  decimal.Decimal `json:"miningCapacity"`
	CurrentMining   decimal.Decimal `json:"currentMining"`
	LastFeedTime    time.Time       `json:"lastFeedTime"`
	HungerLevel     int             `json:"hungerLevel"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Profile holds the mutable fields copied from identity-token claims.
type Profile struct {
	ID              string
	Email           *string
	FirstName       *string
	LastName        *string
	ProfileImageURL *string
}

// Balance is a point-in-time view of both balances.
type Balance struct {
	Llama   decimal.Decimal `json:"llama"`
	Tickets int64           `json:"tickets"`
}

// TxType categorises a ledger entry.
type TxType string

// Transaction types.
const (
	TxTypeGameWin    TxType = "game_win"
	TxTypeGameLoss   TxType = "game_loss"
	TxTypeTaskReward TxType = "task_reward"
	TxTypeDeposit    TxType = "deposit"
	TxTypeWithdraw   TxType = "withdraw"
	TxTypeConvert    TxType = "convert"
)

// EarningTxTypes returns the transaction types that count towards the earners leaderboard.
func EarningTxTypes() []string {
	return []string{string(TxTypeGameWin), string(TxTypeTaskReward)}
}

// Currency is one of the two balances.
type Currency string

// Currencies.
const (
	CurrencyLlama   Currency = "LLAMA"
	CurrencyTickets Currency = "TICKETS"
)

// Valid reports whether c is a known currency.
func (c Currency) Valid() bool {
	return c == CurrencyLlama || c == CurrencyTickets
}

// Transaction is an immutable record of one balance movement.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"userId"`
	Type        TxType          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    Currency        `json:"currency"`
	Description *string         `json:"description"`
	GameType    *string         `json:"gameType"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewTransaction is the insert shape of a Transaction.
type NewTransaction struct {
	UserID      string
	Type        TxType
	Amount      decimal.Decimal
	Currency    Currency
	Description string
	GameType    string
}

// GameResult is the outcome label stored on a session.
type GameResult string

const (
	ResultWin  GameResult = "win"
	ResultLoss GameResult = "loss"
)

// GameSession records a single play.
type GameSession struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"userId"`
	GameType  string          `json:"gameType"`
	BetAmount decimal.Decimal `json:"betAmount"`
	WinAmount decimal.Decimal `json:"winAmount"`
	Result    GameResult      `json:"result"`
	GameData  map[string]any  `json:"gameData"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GameStats aggregates plays per (user, game type).
type GameStats struct {
	ID            uuid.UUID       `json:"id"`
	UserID        string          `json:"userId"`
	GameType      string          `json:"gameType"`
	GamesPlayed   int64           `json:"gamesPlayed"`
	GamesWon      int64           `json:"gamesWon"`
	TotalWinnings decimal.Decimal `json:"totalWinnings"`
	HighestWin    decimal.Decimal `json:"highestWin"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// DailyTask is one per (user, task type, date).
type DailyTask struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"userId"`
	TaskType    string          `json:"taskType"`
	Completed   bool            `json:"completed"`
	CompletedAt *time.Time      `json:"completedAt"`
	Reward      decimal.Decimal `json:"reward"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Referral links an inviting account to an invited one.
type Referral struct {
	ID         uuid.UUID       `json:"id"`
	ReferrerID string          `json:"referrerId"`
	ReferredID string          `json:"referredId"`
	Reward     decimal.Decimal `json:"reward"`
	Claimed    bool            `json:"claimed"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ShopItem is a catalog entry.
type ShopItem struct {
	ID            uuid.UUID       `json:"id"`
	Slug          string          `json:"slug"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Currency      Currency        `json:"currency"`
	ItemType      string          `json:"itemType"`
	EffectType    string          `json:"effectType"`
	EffectValue   decimal.Decimal `json:"effectValue"`
	DurationHours *int            `json:"duration"`
	Icon          string          `json:"icon"`
	Available     bool            `json:"available"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// UserPurchase references a bought item.
type UserPurchase struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"userId"`
	ShopItemID  uuid.UUID  `json:"shopItemId"`
	PurchasedAt time.Time  `json:"purchasedAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	Active      bool       `json:"active"`
}

// EarnerRank is a row of the earners leaderboard.
type EarnerRank struct {
	User
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
}

// WinnerRank is a row of the game winners leaderboard.
type WinnerRank struct {
	User
	TotalWins int64 `json:"totalWins"`
}

// ReferrerRank is a row of the referrers leaderboard.
type ReferrerRank struct {
	User
	ReferralCount int64 `json:"referralCount"`
}

// ConversionDirection selects the source and target balance of a conversion.
type ConversionDirection string

const (
	LlamaToTickets ConversionDirection = "llama_to_tickets"
	TicketsToLlama ConversionDirection = "tickets_to_llama"
)

// Valid reports whether d is a known direction.
func (d ConversionDirection) Valid() bool {
	return d == LlamaToTickets || d == TicketsToLlama
}

// MiningState is the mining view of a user.
type MiningState struct {
	MiningRate     decimal.Decimal `json:"miningRate"`
	MiningCapacity decimal.Decimal `json:"miningCapacity"`
	CurrentMining  decimal.Decimal `json:"currentMining"`
	LastFeedTime   time.Time       `json:"lastFeedTime"`
	HungerLevel    int             `json:"hungerLevel"`
}
