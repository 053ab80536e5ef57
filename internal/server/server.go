// Package server wires the HTTP API: middleware, routes and lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"llama-arcade/internal/auth"
	"llama-arcade/internal/config"
	"llama-arcade/internal/handler"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds everything the routes need.
type Dependencies struct {
	Config       *config.Config
	Verifier     auth.Verifier
	Users        UserEnsurer
	Accounts     handler.Accounts
	Admin        handler.Depositor
	Games        handler.Games
	Tasks        handler.Tasks
	Wallet       handler.Wallet
	Leaderboards handler.Leaderboards
	Mining       handler.Mining
	Shop         handler.Shop
	Health       Pinger
}

// Server wraps the echo instance with the application handlers.
type Server struct {
	echo *echo.Echo
	cfg  *config.Config
	deps *Dependencies

	accountHandler     *handler.AccountHandler
	adminHandler       *handler.AdminHandler
	gameHandler        *handler.GameHandler
	taskHandler        *handler.TaskHandler
	walletHandler      *handler.WalletHandler
	leaderboardHandler *handler.LeaderboardHandler
	miningHandler      *handler.MiningHandler
	shopHandler        *handler.ShopHandler
}

// New creates a new Server with the given dependencies.
func New(deps *Dependencies) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Verifier == nil || deps.Users == nil {
		return nil, fmt.Errorf("token verifier and user store are required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Server.ReadHeaderTimeout = 10 * time.Second

	s := &Server{
		echo: e,
		cfg:  deps.Config,
		deps: deps,

		accountHandler:     handler.NewAccountHandler(deps.Accounts),
		adminHandler:       handler.NewAdminHandler(deps.Admin),
		gameHandler:        handler.NewGameHandler(deps.Games),
		taskHandler:        handler.NewTaskHandler(deps.Tasks),
		walletHandler:      handler.NewWalletHandler(deps.Wallet),
		leaderboardHandler: handler.NewLeaderboardHandler(deps.Leaderboards),
		miningHandler:      handler.NewMiningHandler(deps.Mining),
		shopHandler:        handler.NewShopHandler(deps.Shop),
	}

	s.registerMiddleware()
	s.registerHandlers()

	return s, nil
}

// registerMiddleware registers the global middleware chain.
func (s *Server) registerMiddleware() {
	s.echo.Use(middleware.RequestID())
	s.echo.Use(LoggingMiddleware())
	s.echo.Use(RecoveryMiddleware())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, HeaderReferralCode},
		AllowCredentials: true,
	}))
}

// registerHandlers registers all routes.
func (s *Server) registerHandlers() {
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api")

	// Public
	api.GET("/leaderboard/:type", s.leaderboardHandler.HandleTop)

	authed := api.Group("", AuthMiddleware(s.deps.Verifier, s.deps.Users))

	authed.GET("/auth/user", s.accountHandler.HandleUser)
	authed.GET("/transactions", s.accountHandler.HandleTransactions)
	authed.GET("/stats", s.accountHandler.HandleStats)
	authed.GET("/referrals", s.accountHandler.HandleReferrals)

	authed.GET("/tasks", s.taskHandler.HandleList)
	authed.POST("/tasks/:taskType/complete", s.taskHandler.HandleComplete)

	authed.GET("/games", s.gameHandler.HandleList)
	authed.POST("/games/play", s.gameHandler.HandlePlay)

	authed.POST("/convert", s.walletHandler.HandleConvert)

	authed.GET("/shop", s.shopHandler.HandleItems)
	authed.GET("/shop/purchases", s.shopHandler.HandlePurchases)
	authed.POST("/shop/:itemId/purchase", s.shopHandler.HandlePurchase)

	authed.GET("/mining", s.miningHandler.HandleProgress)
	authed.POST("/mining/feed", s.miningHandler.HandleFeed)
	authed.POST("/mining/claim", s.miningHandler.HandleClaim)

	admin := authed.Group("/admin", AdminMiddleware(&s.cfg.Admin))
	admin.POST("/deposit", s.adminHandler.HandleDeposit)
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(c.Request().Context()); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	log.Info().Str("addr", addr).Msg("HTTP server is starting")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
