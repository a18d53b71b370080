// Package config содержит логику чтения конфигурации сервиса DivineShop.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/divineshop/internal/model"
)

const (
	defaultRunAddress    = "localhost:8080"
	defaultPaymentAPIURL = "https://api.stripe.com"

	// EnvProduction включает защищённые cookie и production-логгер.
	EnvProduction = "production"
)

// Config содержит параметры конфигурации сервиса DivineShop.
type Config struct {
	RunAddress   string `env:"RUN_ADDRESS"`
	DatabaseURI  string `env:"DATABASE_URI"`
	RedisAddress string `env:"REDIS_ADDRESS"`

	PaymentAPIURL    string `env:"PAYMENT_API_URL"`
	PaymentSecretKey string `env:"PAYMENT_SECRET_KEY"`
	PaymentCurrency  string `env:"PAYMENT_CURRENCY" envDefault:"usd"`

	SessionSecret string `env:"SESSION_SECRET"`
	AppEnv        string `env:"APP_ENV" envDefault:"development"`

	BcryptCost     int    `env:"BCRYPT_COST" envDefault:"10"`
	RawStockPolicy string `env:"STOCK_POLICY" envDefault:"reject"`
	RawTieBreak    string `env:"RANKING_TIE_BREAK" envDefault:"id"`

	// Заполняются при проверке из RawStockPolicy и RawTieBreak.
	StockPolicy     model.StockPolicy
	RankingTieBreak model.TieBreak
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envRedisAddress := cfg.RedisAddress
	envPaymentAPIURL := cfg.PaymentAPIURL

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for sessions")
	flag.StringVar(&cfg.PaymentAPIURL, "p", defaultPaymentAPIURL, "payment processor base URL")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envRedisAddress != "" {
		cfg.RedisAddress = envRedisAddress
	}
	if envPaymentAPIURL != "" {
		cfg.PaymentAPIURL = envPaymentAPIURL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	policy, err := model.ParseStockPolicy(c.RawStockPolicy)
	if err != nil {
		return fmt.Errorf("STOCK_POLICY: %w", err)
	}
	c.StockPolicy = policy

	tieBreak, err := model.ParseTieBreak(c.RawTieBreak)
	if err != nil {
		return fmt.Errorf("RANKING_TIE_BREAK: %w", err)
	}
	c.RankingTieBreak = tieBreak

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}

	return nil
}

// Production сообщает, запущен ли сервис в production-окружении.
func (c *Config) Production() bool {
	return c.AppEnv == EnvProduction
}
