// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         LogConfig         `mapstructure:"log"`
	Games       GamesConfig       `mapstructure:"games"`
	Tasks       TasksConfig       `mapstructure:"tasks"`
	Referral    ReferralConfig    `mapstructure:"referral"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Lock        LockConfig        `mapstructure:"lock"`
	Admin       AdminConfig       `mapstructure:"admin"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AuthConfig holds identity provider configuration.
type AuthConfig struct {
	FirebaseProjectID string `mapstructure:"firebase_project_id"`
	CredentialsFile   string `mapstructure:"credentials_file"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// GamesConfig maps a game type to its odds. Missing entries use built-in odds.
type GamesConfig map[string]GameOdds

// GameOdds holds the probability configuration of one game.
type GameOdds struct {
	WinChance     float64 `mapstructure:"win_chance"`
	MaxMultiplier float64 `mapstructure:"max_multiplier"`
}

// TasksConfig holds the daily task catalog.
type TasksConfig struct {
	Timezone string            `mapstructure:"timezone"`
	Rewards  map[string]string `mapstructure:"rewards"`
}

// Location resolves the timezone used to compute the task date.
func (t *TasksConfig) Location() (*time.Location, error) {
	if t.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(t.Timezone)
}

// Catalog parses the reward of every task type.
func (t *TasksConfig) Catalog() (map[string]decimal.Decimal, error) {
	catalog := make(map[string]decimal.Decimal, len(t.Rewards))
	for taskType, raw := range t.Rewards {
		reward, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid reward for task %s: %w", taskType, err)
		}
		if !reward.IsPositive() {
			return nil, fmt.Errorf("reward for task %s must be positive", taskType)
		}
		catalog[taskType] = reward
	}
	return catalog, nil
}

// ReferralConfig holds referral configuration.
type ReferralConfig struct {
	Reward string `mapstructure:"reward"`
}

// RewardAmount parses the referral reward.
func (r *ReferralConfig) RewardAmount() (decimal.Decimal, error) {
	reward, err := decimal.NewFromString(r.Reward)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid referral.reward: %w", err)
	}
	if reward.IsNegative() {
		return decimal.Zero, fmt.Errorf("referral.reward must not be negative")
	}
	return reward, nil
}

// LeaderboardConfig holds leaderboard configuration.
type LeaderboardConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// LockConfig holds per-user lock configuration.
type LockConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// AdminConfig lists the accounts allowed to credit balances.
type AdminConfig struct {
	UserIDs []string `mapstructure:"user_ids"`
}

// IsAdmin reports whether userID is a configured admin.
func (a *AdminConfig) IsAdmin(userID string) bool {
	for _, id := range a.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslMode,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the given directory, the working directory and ./config.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. SERVER_PORT, DATABASE_HOST, AUTH_FIREBASE_PROJECT_ID
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Database.PoolSize <= 0 {
		return fmt.Errorf("invalid database.pool_size %d", c.Database.PoolSize)
	}
	if c.Leaderboard.DefaultLimit <= 0 || c.Leaderboard.DefaultLimit > c.Leaderboard.MaxLimit {
		return fmt.Errorf("invalid leaderboard limits: default=%d max=%d",
			c.Leaderboard.DefaultLimit, c.Leaderboard.MaxLimit)
	}
	if _, err := c.Tasks.Location(); err != nil {
		return fmt.Errorf("invalid tasks.timezone: %w", err)
	}
	if _, err := c.Tasks.Catalog(); err != nil {
		return err
	}
	if _, err := c.Referral.RewardAmount(); err != nil {
		return err
	}
	if c.Lock.Timeout <= 0 {
		return fmt.Errorf("invalid lock.timeout %s", c.Lock.Timeout)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arcade")
	v.SetDefault("database.name", "arcade")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("auth.firebase_project_id", "")
	v.SetDefault("auth.credentials_file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("tasks.timezone", "UTC")
	v.SetDefault("tasks.rewards", map[string]string{
		"daily_spit": "50",
		"check_in":   "25",
		"social":     "100",
		"invite":     "200",
	})

	v.SetDefault("referral.reward", "200")

	v.SetDefault("leaderboard.default_limit", 10)
	v.SetDefault("leaderboard.max_limit", 100)

	v.SetDefault("lock.timeout", "5s")

	v.SetDefault("admin.user_ids", []string{})
}
