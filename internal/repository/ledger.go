package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

// PurchaseResult is the outcome of Store.PurchaseItem.
type PurchaseResult struct {
	Purchase *model.UserPurchase `json:"purchase"`
	Item     *model.ShopItem     `json:"item"`
	Balance  *model.Balance      `json:"newBalance"`
}

// ConvertCurrency moves amount between the two balances at 1:1 and writes one
// convert transaction per currency. Callers validate that amount is a positive
// whole number.
func (s *Store) ConvertCurrency(ctx context.Context, userID string, amount decimal.Decimal, dir model.ConversionDirection) (*model.Balance, error) {
	llamaDelta, ticketDelta := amount.Neg(), amount.IntPart()
	desc := fmt.Sprintf("Converted %s LLAMA to tickets", amount.String())
	if dir == model.TicketsToLlama {
		llamaDelta, ticketDelta = amount, -amount.IntPart()
		desc = fmt.Sprintf("Converted %s tickets to LLAMA", amount.String())
	}

	var balance *model.Balance
	err := s.WithTx(ctx, func(r *Repos) error {
		var err error
		balance, err = r.Users.ApplyBalanceDelta(ctx, userID, llamaDelta, ticketDelta)
		if err != nil {
			return err
		}
		if _, err := r.Transactions.Create(ctx, model.NewTransaction{
			UserID:      userID,
			Type:        model.TxTypeConvert,
			Amount:      llamaDelta,
			Currency:    model.CurrencyLlama,
			Description: desc,
		}); err != nil {
			return err
		}
		_, err = r.Transactions.Create(ctx, model.NewTransaction{
			UserID:      userID,
			Type:        model.TxTypeConvert,
			Amount:      decimal.NewFromInt(ticketDelta),
			Currency:    model.CurrencyTickets,
			Description: desc,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// CompleteTask marks a task done, credits its reward in LLAMA and records a
// task_reward transaction, all or nothing. Returns ErrTaskNotAvailable when no
// incomplete task matches.
func (s *Store) CompleteTask(ctx context.Context, userID, taskType, date string) (*model.DailyTask, *model.Balance, error) {
	var (
		task    *model.DailyTask
		balance *model.Balance
	)
	err := s.WithTx(ctx, func(r *Repos) error {
		var err error
		task, err = r.Tasks.MarkCompleted(ctx, userID, taskType, date)
		if err != nil {
			return err
		}
		balance, err = r.Users.ApplyBalanceDelta(ctx, userID, task.Reward, 0)
		if err != nil {
			return err
		}
		_, err = r.Transactions.Create(ctx, model.NewTransaction{
			UserID:      userID,
			Type:        model.TxTypeTaskReward,
			Amount:      task.Reward,
			Currency:    model.CurrencyLlama,
			Description: "Completed daily task: " + taskType,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return task, balance, nil
}

// PurchaseItem debits the item's price in its currency, records a withdraw
// transaction and stores the purchase with its expiry.
func (s *Store) PurchaseItem(ctx context.Context, userID string, itemID uuid.UUID, now time.Time) (*PurchaseResult, error) {
	var res PurchaseResult
	err := s.WithTx(ctx, func(r *Repos) error {
		item, err := r.Shop.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		res.Item = item

		llamaDelta, ticketDelta := decimal.Zero, int64(0)
		if item.Currency == model.CurrencyTickets {
			ticketDelta = -item.Price.Ceil().IntPart()
		} else {
			llamaDelta = item.Price.Neg()
		}
		if res.Balance, err = r.Users.ApplyBalanceDelta(ctx, userID, llamaDelta, ticketDelta); err != nil {
			return err
		}

		amount := llamaDelta
		if item.Currency == model.CurrencyTickets {
			amount = decimal.NewFromInt(ticketDelta)
		}
		if _, err := r.Transactions.Create(ctx, model.NewTransaction{
			UserID:      userID,
			Type:        model.TxTypeWithdraw,
			Amount:      amount,
			Currency:    item.Currency,
			Description: "Purchased " + item.Name,
		}); err != nil {
			return err
		}

		var expiresAt *time.Time
		if item.DurationHours != nil && *item.DurationHours > 0 {
			exp := now.Add(time.Duration(*item.DurationHours) * time.Hour)
			expiresAt = &exp
		}
		res.Purchase, err = r.Shop.CreatePurchase(ctx, userID, item.ID, expiresAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ClaimMining moves the accumulated mining amount into the LLAMA balance and
// records it as a deposit. Returns ErrNothingToClaim when there is nothing mined.
func (s *Store) ClaimMining(ctx context.Context, userID string) (decimal.Decimal, *model.Balance, error) {
	var (
		claimed decimal.Decimal
		balance *model.Balance
	)
	err := s.WithTx(ctx, func(r *Repos) error {
		var err error
		claimed, err = r.Mining.Drain(ctx, userID)
		if err != nil {
			return err
		}
		if !claimed.IsPositive() {
			return ErrNothingToClaim
		}
		if balance, err = r.Users.ApplyBalanceDelta(ctx, userID, claimed, 0); err != nil {
			return err
		}
		_, err = r.Transactions.Create(ctx, model.NewTransaction{
			UserID:      userID,
			Type:        model.TxTypeDeposit,
			Amount:      claimed,
			Currency:    model.CurrencyLlama,
			Description: "Claimed mining rewards",
		})
		return err
	})
	if err != nil {
		return decimal.Zero, nil, err
	}
	return claimed, balance, nil
}

// Credit adds a positive amount to one balance and records it with txType.
// Used for deposits and grants that are not tied to a game or task.
func (s *Store) Credit(ctx context.Context, userID string, amount decimal.Decimal, currency model.Currency, txType model.TxType, desc string) (*model.Balance, error) {
	llamaDelta, ticketDelta := amount, int64(0)
	if currency == model.CurrencyTickets {
		llamaDelta, ticketDelta = decimal.Zero, amount.IntPart()
		amount = decimal.NewFromInt(ticketDelta)
	}

	var balance *model.Balance
	err := s.WithTx(ctx, func(r *Repos) error {
		var err error
		if balance, err = r.Users.ApplyBalanceDelta(ctx, userID, llamaDelta, ticketDelta); err != nil {
			return err
		}
		_, err = r.Transactions.Create(ctx, model.NewTransaction{
			UserID:      userID,
			Type:        txType,
			Amount:      amount,
			Currency:    currency,
			Description: desc,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}
