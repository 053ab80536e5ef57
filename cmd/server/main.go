// Package main is the entry point for the Llama Arcade API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"llama-arcade/internal/auth"
	"llama-arcade/internal/config"
	"llama-arcade/internal/game"
	"llama-arcade/internal/pkg/db"
	"llama-arcade/internal/pkg/lock"
	"llama-arcade/internal/repository"
	"llama-arcade/internal/server"
	"llama-arcade/internal/service"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	configureLogging(&cfg.Log)

	log.Info().Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	store := repository.NewStore(dbPool.Pool)
	userLock := lock.NewUserLock()

	registry, err := game.NewBuiltinRegistry(gameOdds(cfg.Games))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid game configuration")
	}
	engine := game.NewEngine(registry, game.CryptoSource{})

	log.Info().
		Int("game_count", registry.Count()).
		Msg("Games registered")

	// Validate has already parsed these once.
	catalog, _ := cfg.Tasks.Catalog()
	loc, _ := cfg.Tasks.Location()
	referralReward, _ := cfg.Referral.RewardAmount()

	accountService := service.NewAccountService(store, userLock, cfg.Lock.Timeout, referralReward)
	gameService := service.NewGameService(store, engine, userLock, cfg.Lock.Timeout)
	taskService := service.NewTaskService(store, catalog, loc, userLock, cfg.Lock.Timeout)
	walletService := service.NewWalletService(store, userLock, cfg.Lock.Timeout)
	leaderboardService := service.NewLeaderboardService(store, cfg.Leaderboard.DefaultLimit, cfg.Leaderboard.MaxLimit)
	miningService := service.NewMiningService(store, service.NoAccrual, userLock, cfg.Lock.Timeout)
	shopService := service.NewShopService(store, userLock, cfg.Lock.Timeout)

	if err := shopService.SeedCatalog(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed shop catalog")
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise token verification")
	}

	srv, err := server.New(&server.Dependencies{
		Config:       cfg,
		Verifier:     verifier,
		Users:        accountService,
		Accounts:     accountService,
		Admin:        accountService,
		Games:        gameService,
		Tasks:        taskService,
		Wallet:       walletService,
		Leaderboards: leaderboardService,
		Mining:       miningService,
		Shop:         shopService,
		Health:       store,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

// configureLogging applies the configured level and output format.
func configureLogging(cfg *config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.Pretty {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// gameOdds converts configured odds overrides into engine types.
func gameOdds(cfg config.GamesConfig) map[game.GameType]game.Odds {
	overrides := make(map[game.GameType]game.Odds, len(cfg))
	for name, odds := range cfg {
		overrides[game.GameType(name)] = game.Odds{
			WinChance:     odds.WinChance,
			MaxMultiplier: odds.MaxMultiplier,
		}
	}
	return overrides
}
