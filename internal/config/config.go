package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

type LogConfig struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	Development bool   `env:"DEVELOPMENT" envDefault:"false"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// BotConfig configures cmd/shopbot.
type BotConfig struct {
	TelegramToken string        `env:"TELEGRAM_TOKEN,required,notEmpty"`
	APIBaseURL    string        `env:"API_BASE_URL,required,notEmpty"`
	APIKey        string        `env:"API_KEY"`
	AdminIDs      []int64       `env:"ADMIN_IDS" envSeparator:","`
	Redis         RedisConfig   `envPrefix:"REDIS_"`
	StateTTL      time.Duration `env:"STATE_TTL" envDefault:"720h"`
	ReadTimeout   time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	OrderTimeout  time.Duration `env:"ORDER_TIMEOUT" envDefault:"15s"`
	PollTimeout   int           `env:"POLL_TIMEOUT" envDefault:"60"`
	Debug         bool          `env:"BOT_DEBUG" envDefault:"false"`
	Log           LogConfig     `envPrefix:"LOG_"`
}

type DatabaseConfig struct {
	Host            string        `env:"HOST,required,notEmpty"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER,required,notEmpty"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME,required,notEmpty"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

// APIConfig configures cmd/shopapi.
type APIConfig struct {
	HTTPAddr        string         `env:"HTTP_ADDR" envDefault:":8000"`
	Database        DatabaseConfig `envPrefix:"DB_"`
	TelegramToken   string         `env:"TELEGRAM_TOKEN"`
	AdminChatID     string         `env:"ADMIN_CHAT_ID"`
	AdminAPIKey     string         `env:"ADMIN_API_KEY"`
	Redis           RedisConfig    `envPrefix:"REDIS_"`
	CatalogCacheTTL time.Duration  `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	NotifyTimeout   time.Duration  `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration  `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	Log             LogConfig      `envPrefix:"LOG_"`
}

func LoadBot() (*BotConfig, error) {
	var cfg BotConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.ReadTimeout <= 0 {
		return nil, errors.New("READ_TIMEOUT must be positive")
	}
	if cfg.OrderTimeout <= cfg.ReadTimeout {
		return nil, fmt.Errorf("ORDER_TIMEOUT (%s) must be longer than READ_TIMEOUT (%s)", cfg.OrderTimeout, cfg.ReadTimeout)
	}
	if cfg.PollTimeout <= 0 {
		return nil, errors.New("POLL_TIMEOUT must be positive")
	}

	return &cfg, nil
}

func LoadAPI() (*APIConfig, error) {
	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.NotifyTimeout <= 0 {
		return nil, errors.New("NOTIFY_TIMEOUT must be positive")
	}
	if cfg.Database.Port <= 0 {
		return nil, fmt.Errorf("invalid DB_PORT %d", cfg.Database.Port)
	}

	return &cfg, nil
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
