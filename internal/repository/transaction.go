package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

// TransactionRepository handles transaction data persistence.
// Rows are append-only: there is no update or delete.
type TransactionRepository struct {
	db DBTX
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create creates a new transaction record.
func (r *TransactionRepository) Create(ctx context.Context, in model.NewTransaction) (*model.Transaction, error) {
	const query = `
		INSERT INTO transactions (user_id, type, amount, currency, description, game_type)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id, user_id, type, amount, currency, description, game_type, created_at
	`

	var tx model.Transaction
	err := r.db.QueryRow(ctx, query,
		in.UserID, string(in.Type), in.Amount, string(in.Currency), in.Description, in.GameType,
	).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Amount,
		&tx.Currency,
		&tx.Description,
		&tx.GameType,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &tx, nil
}

// ListByUser retrieves a user's transactions, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT id, user_id, type, amount, currency, description, game_type, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*model.Transaction, 0)
	for rows.Next() {
		var tx model.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Type,
			&tx.Amount,
			&tx.Currency,
			&tx.Description,
			&tx.GameType,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// LedgerTotals sums a user's signed transaction amounts per currency.
// For a consistent ledger the result equals the stored balances.
func (r *TransactionRepository) LedgerTotals(ctx context.Context, userID string) (*model.Balance, error) {
	const query = `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE currency = 'LLAMA'), 0),
			COALESCE(SUM(amount) FILTER (WHERE currency = 'TICKETS'), 0)
		FROM transactions
		WHERE user_id = $1
	`

	var llama, tickets decimal.Decimal
	if err := r.db.QueryRow(ctx, query, userID).Scan(&llama, &tickets); err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}

	return &model.Balance{Llama: llama, Tickets: tickets.IntPart()}, nil
}
