package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type config struct {
	Addr         string        `env:"FORMWIZARD_ADDR,default=:8080"`
	Definition   string        `env:"FORMWIZARD_DEFINITION,default=wizard.yaml"`
	Templates    string        `env:"FORMWIZARD_TEMPLATES"`
	Theme        string        `env:"FORMWIZARD_THEME,default=formwizard"`
	ThemeVariant string        `env:"FORMWIZARD_THEME_VARIANT"`
	ThemeFile    string        `env:"FORMWIZARD_THEME_FILE"`
	RedisAddr    string        `env:"FORMWIZARD_REDIS_ADDR"`
	RedisDB      int           `env:"FORMWIZARD_REDIS_DB,default=0"`
	SessionTTL   time.Duration `env:"FORMWIZARD_SESSION_TTL,default=30m"`
	SecureCookie bool          `env:"FORMWIZARD_SECURE_COOKIE,default=false"`
	LogLevel     string        `env:"FORMWIZARD_LOG_LEVEL,default=info"`
	RateLimit    float64       `env:"FORMWIZARD_RATE_LIMIT,default=5"`
	RateBurst    int           `env:"FORMWIZARD_RATE_BURST,default=10"`
}

// loadConfig reads envFile when it exists and decodes the process
// environment. A missing .env is not an error.
func loadConfig(envFile string) (config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return config{}, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.RateLimit <= 0 {
		return config{}, fmt.Errorf("FORMWIZARD_RATE_LIMIT must be positive, got %v", cfg.RateLimit)
	}
	if cfg.RateBurst <= 0 {
		return config{}, fmt.Errorf("FORMWIZARD_RATE_BURST must be positive, got %d", cfg.RateBurst)
	}
	return cfg, nil
}

func newLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
