package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llama-arcade/internal/auth"
	"llama-arcade/internal/config"
	"llama-arcade/internal/game"
	"llama-arcade/internal/model"
	"llama-arcade/internal/repository"
	"llama-arcade/internal/service"
)

type fakeVerifier struct{}

// Verify accepts tokens of the form "ok:<uid>".
func (fakeVerifier) Verify(_ context.Context, token string) (*model.Profile, error) {
	uid, ok := strings.CutPrefix(token, "ok:")
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &model.Profile{ID: uid}, nil
}

type fakeUsers struct {
	lastRef string
	calls   int
	err     error
}

func (f *fakeUsers) EnsureUser(_ context.Context, p model.Profile, ref string) (*model.User, bool, error) {
	f.calls++
	f.lastRef = ref
	if f.err != nil {
		return nil, false, f.err
	}
	return &model.User{ID: p.ID}, true, nil
}

type fakeAPI struct{}

func (fakeAPI) GetUser(_ context.Context, id string) (*model.User, error) {
	return &model.User{ID: id}, nil
}
func (fakeAPI) Transactions(context.Context, string, int) ([]*model.Transaction, error) {
	return nil, nil
}
func (fakeAPI) Stats(context.Context, string) ([]*model.GameStats, error)    { return nil, nil }
func (fakeAPI) Referrals(context.Context, string) ([]*model.Referral, error) { return nil, nil }
func (fakeAPI) Games() []game.Game                                           { return game.Builtin() }
func (fakeAPI) List(context.Context, string) ([]*model.DailyTask, error)     { return nil, nil }
func (fakeAPI) GetShopItems(context.Context) ([]*model.ShopItem, error)      { return nil, nil }
func (fakeAPI) Progress(context.Context, string) (*model.MiningState, error) {
	return &model.MiningState{}, nil
}
func (fakeAPI) Feed(context.Context, string) (*model.MiningState, error) {
	return &model.MiningState{}, nil
}
func (fakeAPI) GetUserPurchases(context.Context, string) ([]*model.UserPurchase, error) {
	return nil, nil
}
func (fakeAPI) Play(context.Context, string, game.GameType, int64) (*service.PlayResult, error) {
	return &service.PlayResult{}, nil
}
func (fakeAPI) Complete(context.Context, string, string) (*model.DailyTask, *model.Balance, error) {
	return &model.DailyTask{}, &model.Balance{}, nil
}
func (fakeAPI) Convert(context.Context, string, decimal.Decimal, model.ConversionDirection) (*model.Balance, error) {
	return &model.Balance{}, nil
}
func (fakeAPI) Top(context.Context, service.LeaderboardType, int) (any, error) {
	return []*model.EarnerRank{}, nil
}
func (fakeAPI) Claim(context.Context, string) (decimal.Decimal, *model.Balance, error) {
	return decimal.Zero, nil, service.ErrNothingToClaim
}
func (fakeAPI) PurchaseItem(context.Context, string, uuid.UUID) (*repository.PurchaseResult, error) {
	return &repository.PurchaseResult{}, nil
}
func (fakeAPI) Deposit(context.Context, string, string, decimal.Decimal, model.Currency) (*model.Balance, error) {
	return &model.Balance{}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestServer(t *testing.T, users *fakeUsers, health Pinger) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, AllowedOrigins: []string{"http://localhost:5173"}},
		Admin:  config.AdminConfig{UserIDs: []string{"admin"}},
	}
	api := fakeAPI{}
	srv, err := New(&Dependencies{
		Config:       cfg,
		Verifier:     fakeVerifier{},
		Users:        users,
		Accounts:     api,
		Admin:        api,
		Games:        api,
		Tasks:        api,
		Wallet:       api,
		Leaderboards: api,
		Mining:       api,
		Shop:         api,
		Health:       health,
	})
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, method, path, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Message
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(&Dependencies{Config: &config.Config{}})
	assert.Error(t, err)
}

func TestRoutes_RequireAuth(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, nil)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/user"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks/daily_spit/complete"},
		{http.MethodPost, "/api/games/play"},
		{http.MethodPost, "/api/convert"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodGet, "/api/stats"},
		{http.MethodGet, "/api/referrals"},
		{http.MethodGet, "/api/shop"},
		{http.MethodGet, "/api/mining"},
		{http.MethodPost, "/api/admin/deposit"},
	}
	for _, p := range paths {
		rec := serve(srv, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p.path)

		rec = serve(srv, p.method, p.path, "forged", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p.path)
		assert.Equal(t, "invalid or expired token", messageOf(t, rec))
	}
}

func TestRoutes_Authenticated(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, nil)

	rec := serve(srv, http.MethodGet, "/api/auth/user", "ok:larry", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "larry", user.ID)

	rec = serve(srv, http.MethodPost, "/api/mining/claim", "ok:larry", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrNothingToClaim.Error(), messageOf(t, rec))
}

func TestLeaderboard_IsPublic(t *testing.T) {
	users := &fakeUsers{}
	srv := newTestServer(t, users, nil)

	rec := serve(srv, http.MethodGet, "/api/leaderboard/earners", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, users.calls)
}

func TestAuthMiddleware_ReferralCode(t *testing.T) {
	users := &fakeUsers{}
	srv := newTestServer(t, users, nil)

	serve(srv, http.MethodGet, "/api/auth/user", "ok:dolly", map[string]string{HeaderReferralCode: "LARRY123"})
	assert.Equal(t, "LARRY123", users.lastRef)

	serve(srv, http.MethodGet, "/api/auth/user?ref=QUERY123", "ok:dolly", nil)
	assert.Equal(t, "QUERY123", users.lastRef)
}

func TestAuthMiddleware_StorageFailure(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{err: errors.New("pool exhausted")}, nil)

	rec := serve(srv, http.MethodGet, "/api/auth/user", "ok:larry", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", messageOf(t, rec))
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, nil)

	rec := serve(srv, http.MethodPost, "/api/admin/deposit", "ok:larry", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/deposit",
		strings.NewReader(`{"userId":"larry","amount":5,"currency":"TICKETS"}`))
	req.Header.Set("Authorization", "Bearer ok:admin")
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := serve(newTestServer(t, &fakeUsers{}, fakePinger{}), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestServer(t, &fakeUsers{}, fakePinger{err: errors.New("down")}), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := serve(newTestServer(t, &fakeUsers{}, nil), http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, messageOf(t, rec))
}
