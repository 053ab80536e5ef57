// Package repository provides the data access layer: one repository per table
// plus a Store that runs multi-step ledger operations in a single transaction.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors for repository operations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTaskNotAvailable  = errors.New("task already completed or not found")
	ErrItemNotFound      = errors.New("shop item not found")
	ErrNothingToClaim    = errors.New("nothing to claim")
)

// Postgres SQLSTATE codes we translate.
const (
	pgCheckViolation  = "23514"
	pgUniqueViolation = "23505"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// can run standalone or inside a Store transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repos groups the repositories bound to one DBTX.
type Repos struct {
	Users        *UserRepository
	Transactions *TransactionRepository
	Stats        *GameStatsRepository
	Sessions     *GameSessionRepository
	Tasks        *TaskRepository
	Referrals    *ReferralRepository
	Shop         *ShopRepository
	Mining       *MiningRepository
	Leaderboard  *LeaderboardRepository
}

func newRepos(db DBTX) *Repos {
	return &Repos{
		Users:        NewUserRepository(db),
		Transactions: NewTransactionRepository(db),
		Stats:        NewGameStatsRepository(db),
		Sessions:     NewGameSessionRepository(db),
		Tasks:        NewTaskRepository(db),
		Referrals:    NewReferralRepository(db),
		Shop:         NewShopRepository(db),
		Mining:       NewMiningRepository(db),
		Leaderboard:  NewLeaderboardRepository(db),
	}
}

// Store is the ledger store. Its embedded Repos run directly on the pool;
// WithTx hands fn a Repos bound to a single database transaction.
type Store struct {
	*Repos
	pool *pgxpool.Pool
}

// NewStore creates a new Store instance.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Repos: newRepos(pool),
		pool:  pool,
	}
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(r *Repos) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(newRepos(tx))
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// translateError maps constraint violations on balance columns to ErrInsufficientFunds.
func translateError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
		return ErrInsufficientFunds
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
