package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llama-arcade/internal/model"
	"llama-arcade/internal/pkg/testdb"
)

func setupStore(t *testing.T) *Store {
	return NewStore(testdb.New(t))
}

func strPtr(s string) *string { return &s }

// seedUser creates a user and funds it through ledger deposits so the
// transaction sums match the balances.
func seedUser(t *testing.T, s *Store, id string, llama int64, tickets int64) *model.User {
	t.Helper()
	ctx := context.Background()

	user, inserted, err := s.Users.Upsert(ctx, model.Profile{ID: id, Email: strPtr(id + "@example.com")}, nil)
	require.NoError(t, err)
	require.True(t, inserted)

	if llama > 0 {
		_, err = s.Credit(ctx, id, decimal.NewFromInt(llama), model.CurrencyLlama, model.TxTypeDeposit, "seed")
		require.NoError(t, err)
	}
	if tickets > 0 {
		_, err = s.Credit(ctx, id, decimal.NewFromInt(tickets), model.CurrencyTickets, model.TxTypeDeposit, "seed")
		require.NoError(t, err)
	}
	return user
}

func assertLedgerConsistent(t *testing.T, s *Store, id string) {
	t.Helper()
	ctx := context.Background()

	user, err := s.Users.GetByID(ctx, id)
	require.NoError(t, err)
	totals, err := s.Transactions.LedgerTotals(ctx, id)
	require.NoError(t, err)

	assert.True(t, user.LlamaBalance.Equal(totals.Llama), "llama balance %s != ledger %s", user.LlamaBalance, totals.Llama)
	assert.Equal(t, user.TicketBalance, totals.Tickets)
}

// ============================================================================
// UserRepository Tests
// ============================================================================

func TestUserRepository_Upsert(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	user, inserted, err := s.Users.Upsert(ctx, model.Profile{ID: "uid-1", FirstName: strPtr("Larry")}, nil)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "uid-1", user.ID)
	assert.Len(t, user.ReferralCode, 8)
	assert.True(t, user.LlamaBalance.IsZero())
	assert.Zero(t, user.TicketBalance)
	assert.Equal(t, 100, user.HungerLevel)

	_, err = s.Credit(ctx, "uid-1", decimal.NewFromInt(50), model.CurrencyLlama, model.TxTypeDeposit, "gift")
	require.NoError(t, err)

	// Second upsert merges profile fields and leaves balances and code alone.
	again, inserted, err := s.Users.Upsert(ctx, model.Profile{ID: "uid-1", LastName: strPtr("Llama")}, strPtr("IGNORED1"))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, "Larry", *again.FirstName)
	assert.Equal(t, "Llama", *again.LastName)
	assert.Equal(t, user.ReferralCode, again.ReferralCode)
	assert.Nil(t, again.ReferredBy)
	assert.True(t, again.LlamaBalance.Equal(decimal.NewFromInt(50)))
}

func TestUserRepository_Upsert_SharedEmail(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	email := strPtr("larry@example.com")
	first, inserted, err := s.Users.Upsert(ctx, model.Profile{ID: "google-1", Email: email}, nil)
	require.NoError(t, err)
	assert.True(t, inserted)

	second, inserted, err := s.Users.Upsert(ctx, model.Profile{ID: "github-1", Email: email}, nil)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEqual(t, first.ReferralCode, second.ReferralCode)
	assert.Equal(t, "larry@example.com", *second.Email)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.Users.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetByReferralCode(t *testing.T) {
	s := setupStore(t)
	user := seedUser(t, s, "ref-owner", 0, 0)

	found, err := s.Users.GetByReferralCode(context.Background(), user.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, "ref-owner", found.ID)

	_, err = s.Users.GetByReferralCode(context.Background(), "NOPE0000")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_ApplyBalanceDelta(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "delta", 10, 5)

	bal, err := s.Users.ApplyBalanceDelta(ctx, "delta", decimal.RequireFromString("-2.5"), 3)
	require.NoError(t, err)
	assert.True(t, bal.Llama.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, int64(8), bal.Tickets)

	_, err = s.Users.ApplyBalanceDelta(ctx, "delta", decimal.Zero, -9)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = s.Users.ApplyBalanceDelta(ctx, "delta", decimal.NewFromInt(-8), 0)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = s.Users.ApplyBalanceDelta(ctx, "ghost", decimal.NewFromInt(1), 0)
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err := s.Users.GetByID(ctx, "delta")
	require.NoError(t, err)
	assert.True(t, user.LlamaBalance.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, int64(8), user.TicketBalance)
}

func TestUserRepository_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "racer", 0, 10)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Users.ApplyBalanceDelta(ctx, "racer", decimal.Zero, -3); err == nil {
				ok.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrInsufficientFunds)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), ok.Load())
	user, err := s.Users.GetByID(ctx, "racer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.TicketBalance)
}

// ============================================================================
// Store Tests
// ============================================================================

func TestStore_ConvertCurrency_LlamaToTickets(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "conv", 100, 0)

	bal, err := s.ConvertCurrency(ctx, "conv", decimal.NewFromInt(40), model.LlamaToTickets)
	require.NoError(t, err)
	assert.True(t, bal.Llama.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, int64(40), bal.Tickets)

	txs, err := s.Transactions.ListByUser(ctx, "conv", 10)
	require.NoError(t, err)

	var converts []*model.Transaction
	for _, tx := range txs {
		if tx.Type == model.TxTypeConvert {
			converts = append(converts, tx)
		}
	}
	require.Len(t, converts, 2)
	byCurrency := map[model.Currency]decimal.Decimal{}
	for _, tx := range converts {
		byCurrency[tx.Currency] = tx.Amount
	}
	assert.True(t, byCurrency[model.CurrencyLlama].Equal(decimal.NewFromInt(-40)))
	assert.True(t, byCurrency[model.CurrencyTickets].Equal(decimal.NewFromInt(40)))

	assertLedgerConsistent(t, s, "conv")
}

func TestStore_ConvertCurrency_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "round", 75, 0)

	_, err := s.ConvertCurrency(ctx, "round", decimal.NewFromInt(30), model.LlamaToTickets)
	require.NoError(t, err)
	bal, err := s.ConvertCurrency(ctx, "round", decimal.NewFromInt(30), model.TicketsToLlama)
	require.NoError(t, err)

	assert.True(t, bal.Llama.Equal(decimal.NewFromInt(75)))
	assert.Zero(t, bal.Tickets)
	assertLedgerConsistent(t, s, "round")
}

func TestStore_ConvertCurrency_Insufficient(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "poor", 10, 0)

	_, err := s.ConvertCurrency(ctx, "poor", decimal.NewFromInt(11), model.LlamaToTickets)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	txs, err := s.Transactions.ListByUser(ctx, "poor", 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "only the seed deposit should exist")
	assertLedgerConsistent(t, s, "poor")
}

func TestStore_CompleteTask_Idempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "tasker", 0, 0)

	catalog := map[string]decimal.Decimal{"check_in": decimal.NewFromInt(25), "daily_spit": decimal.NewFromInt(50)}
	require.NoError(t, s.Tasks.Seed(ctx, "tasker", "2024-05-01", catalog))
	require.NoError(t, s.Tasks.Seed(ctx, "tasker", "2024-05-01", catalog))

	tasks, err := s.Tasks.ListForDate(ctx, "tasker", "2024-05-01")
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.CompleteTask(ctx, "tasker", "check_in", "2024-05-01")
			if err == nil {
				wins.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrTaskNotAvailable)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	user, err := s.Users.GetByID(ctx, "tasker")
	require.NoError(t, err)
	assert.True(t, user.LlamaBalance.Equal(decimal.NewFromInt(25)))

	_, _, err = s.CompleteTask(ctx, "tasker", "check_in", "2024-05-02")
	assert.ErrorIs(t, err, ErrTaskNotAvailable)

	assertLedgerConsistent(t, s, "tasker")
}

func TestStore_WithTx_RollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "rollback", 0, 10)

	err := s.WithTx(ctx, func(r *Repos) error {
		if _, err := r.Users.ApplyBalanceDelta(ctx, "rollback", decimal.Zero, -5); err != nil {
			return err
		}
		_, err := r.Users.ApplyBalanceDelta(ctx, "rollback", decimal.Zero, -6)
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	user, err := s.Users.GetByID(ctx, "rollback")
	require.NoError(t, err)
	assert.Equal(t, int64(10), user.TicketBalance)
}

func TestStore_ClaimMining(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "miner", 0, 0)

	_, _, err := s.ClaimMining(ctx, "miner")
	assert.ErrorIs(t, err, ErrNothingToClaim)

	state, err := s.Mining.Accrue(ctx, "miner", decimal.NewFromInt(250), nil)
	require.NoError(t, err)
	assert.True(t, state.CurrentMining.Equal(state.MiningCapacity), "accrual is capped at capacity")

	claimed, bal, err := s.ClaimMining(ctx, "miner")
	require.NoError(t, err)
	assert.True(t, claimed.Equal(decimal.NewFromInt(100)))
	assert.True(t, bal.Llama.Equal(decimal.NewFromInt(100)))

	state, err = s.Mining.Get(ctx, "miner")
	require.NoError(t, err)
	assert.True(t, state.CurrentMining.IsZero())
	assertLedgerConsistent(t, s, "miner")
}

func TestStore_PurchaseItem(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "shopper", 0, 30)

	hours := 24
	require.NoError(t, s.Shop.Seed(ctx, []model.ShopItem{{
		Slug: "shears", Name: "Shears", Description: "faster", Price: decimal.NewFromInt(25),
		Currency: model.CurrencyTickets, ItemType: "upgrade", EffectType: "mining_rate",
		EffectValue: decimal.RequireFromString("1.5"), DurationHours: &hours, Icon: "x", Available: true,
	}, {
		Slug: "hay", Name: "Hay", Description: "food", Price: decimal.NewFromInt(1),
		Currency: model.CurrencyTickets, ItemType: "food", EffectType: "hunger",
		EffectValue: decimal.NewFromInt(50), Icon: "y",
	}}))
	all, err := s.Shop.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	items, err := s.Shop.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "shears", items[0].Slug)

	now := time.Now()
	_, err = s.PurchaseItem(ctx, "shopper", all[0].ID, now)
	assert.ErrorIs(t, err, ErrItemNotFound)
	user, err := s.Users.GetByID(ctx, "shopper")
	require.NoError(t, err)
	assert.Equal(t, int64(30), user.TicketBalance)

	res, err := s.PurchaseItem(ctx, "shopper", items[0].ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Balance.Tickets)
	require.NotNil(t, res.Purchase.ExpiresAt)
	assert.WithinDuration(t, now.Add(24*time.Hour), *res.Purchase.ExpiresAt, time.Second)

	_, err = s.PurchaseItem(ctx, "shopper", items[0].ID, now)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	purchases, err := s.Shop.ListPurchases(ctx, "shopper")
	require.NoError(t, err)
	assert.Len(t, purchases, 1)
	assertLedgerConsistent(t, s, "shopper")
}

// ============================================================================
// Stats, Referrals and Leaderboard Tests
// ============================================================================

func TestGameStatsRepository_Record(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "gamer", 0, 0)

	_, err := s.Stats.Record(ctx, "gamer", "spitball", true, decimal.NewFromInt(12))
	require.NoError(t, err)
	_, err = s.Stats.Record(ctx, "gamer", "spitball", false, decimal.Zero)
	require.NoError(t, err)
	st, err := s.Stats.Record(ctx, "gamer", "spitball", true, decimal.NewFromInt(7))
	require.NoError(t, err)

	assert.Equal(t, int64(3), st.GamesPlayed)
	assert.Equal(t, int64(2), st.GamesWon)
	assert.True(t, st.TotalWinnings.Equal(decimal.NewFromInt(19)))
	assert.True(t, st.HighestWin.Equal(decimal.NewFromInt(12)))

	all, err := s.Stats.ListByUser(ctx, "gamer")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReferralRepository_OneReferrerPerAccount(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "a", 0, 0)
	seedUser(t, s, "b", 0, 0)
	seedUser(t, s, "c", 0, 0)

	ref, err := s.Referrals.Create(ctx, "a", "c", decimal.NewFromInt(200))
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.False(t, ref.Claimed)

	dup, err := s.Referrals.Create(ctx, "b", "c", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.Nil(t, dup)

	list, err := s.Referrals.ListByReferrer(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLeaderboardRepository_ZeroFloor(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "idle", 0, 0)
	seedUser(t, s, "earner", 0, 0)

	require.NoError(t, s.Tasks.Seed(ctx, "earner", "2024-05-01", map[string]decimal.Decimal{"social": decimal.NewFromInt(100)}))
	_, _, err := s.CompleteTask(ctx, "earner", "social", "2024-05-01")
	require.NoError(t, err)

	earners, err := s.Leaderboard.TopEarners(ctx, 10)
	require.NoError(t, err)
	require.Len(t, earners, 2)
	assert.Equal(t, "earner", earners[0].ID)
	assert.True(t, earners[0].TotalEarnings.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "idle", earners[1].ID)
	assert.True(t, earners[1].TotalEarnings.IsZero())

	winners, err := s.Leaderboard.TopGameWinners(ctx, 10)
	require.NoError(t, err)
	require.Len(t, winners, 2)
	for _, w := range winners {
		assert.Zero(t, w.TotalWins)
	}
	// Equal scores keep account creation order.
	assert.Equal(t, "idle", winners[0].ID)

	referrers, err := s.Leaderboard.TopReferrers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, referrers, 1)
	assert.Zero(t, referrers[0].ReferralCount)
}

func TestTransactionRepository_ListByUser_NewestFirst(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "history", 5, 0)

	for i := 1; i <= 3; i++ {
		_, err := s.Transactions.Create(ctx, model.NewTransaction{
			UserID: "history", Type: model.TxTypeDeposit, Amount: decimal.NewFromInt(int64(i)),
			Currency: model.CurrencyTickets, Description: "n",
		})
		require.NoError(t, err)
	}

	txs, err := s.Transactions.ListByUser(ctx, "history", 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(3)))
	assert.True(t, txs[1].Amount.Equal(decimal.NewFromInt(2)))
	assert.Nil(t, txs[0].GameType)
}
