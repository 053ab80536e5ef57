package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"llama-arcade/internal/game"
	"llama-arcade/internal/model"
	"llama-arcade/internal/pkg/lock"
	"llama-arcade/internal/repository"
)

// PlayResult is what a play returns to the caller.
type PlayResult struct {
	Won        bool            `json:"won"`
	WinAmount  int64           `json:"winAmount"`
	Multiplier decimal.Decimal `json:"multiplier"`
	NewBalance model.Balance   `json:"newBalance"`
}

// GameService runs plays against the ledger.
type GameService struct {
	store       *repository.Store
	engine      *game.Engine
	userLock    *lock.UserLock
	lockTimeout time.Duration
}

// NewGameService creates a new GameService instance.
func NewGameService(store *repository.Store, engine *game.Engine, userLock *lock.UserLock, lockTimeout time.Duration) *GameService {
	return &GameService{
		store:       store,
		engine:      engine,
		userLock:    userLock,
		lockTimeout: lockTimeout,
	}
}

// Games lists the playable games.
func (s *GameService) Games() []game.Game {
	return s.engine.Registry().List()
}

// Play stakes bet tickets on one play of gameType. The stake debit, payout
// credit, stats, session and both ledger entries commit together or not at
// all; a bet above the ticket balance changes nothing. The returned balance
// is the one stored by this play.
func (s *GameService) Play(ctx context.Context, userID string, gameType game.GameType, bet int64) (*PlayResult, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}
	if _, ok := s.engine.Registry().Get(gameType); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameType, gameType)
	}

	var result *PlayResult
	err := s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		user, err := s.store.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.TicketBalance < bet {
			return ErrInsufficientFunds
		}

		outcome, err := s.engine.Resolve(gameType, bet)
		if err != nil {
			return err
		}

		result, err = s.settle(ctx, userID, string(gameType), bet, outcome)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("user_id", userID).
		Str("game", string(gameType)).
		Int64("bet", bet).
		Bool("won", result.Won).
		Int64("win", result.WinAmount).
		Msg("Game played")

	return result, nil
}

func (s *GameService) settle(ctx context.Context, userID, gameType string, bet int64, outcome *game.Outcome) (*PlayResult, error) {
	win := decimal.NewFromInt(outcome.WinAmount)
	stake := decimal.NewFromInt(bet)
	res := model.ResultLoss
	if outcome.Won {
		res = model.ResultWin
	}

	var balance *model.Balance
	err := s.store.WithTx(ctx, func(r *repository.Repos) error {
		var err error
		if balance, err = r.Users.ApplyBalanceDelta(ctx, userID, win, -bet); err != nil {
			return err
		}
		if _, err := r.Stats.Record(ctx, userID, gameType, outcome.Won, win); err != nil {
			return err
		}
		if _, err := r.Sessions.Create(ctx, model.GameSession{
			UserID:    userID,
			GameType:  gameType,
			BetAmount: stake,
			WinAmount: win,
			Result:    res,
			GameData:  map[string]any{"multiplier": outcome.Multiplier.String()},
		}); err != nil {
			return err
		}
		if _, err := r.Transactions.Create(ctx, model.NewTransaction{
			UserID:      userID,
			Type:        model.TxTypeGameLoss,
			Amount:      stake.Neg(),
			Currency:    model.CurrencyTickets,
			Description: "Played " + gameType,
			GameType:    gameType,
		}); err != nil {
			return err
		}
		if !outcome.Won {
			return nil
		}
		_, err = r.Transactions.Create(ctx, model.NewTransaction{
			UserID:      userID,
			Type:        model.TxTypeGameWin,
			Amount:      win,
			Currency:    model.CurrencyLlama,
			Description: "Won " + gameType,
			GameType:    gameType,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &PlayResult{
		Won:        outcome.Won,
		WinAmount:  outcome.WinAmount,
		Multiplier: outcome.Multiplier,
		NewBalance: *balance,
	}, nil
}
