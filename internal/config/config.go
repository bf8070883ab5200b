package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"local"`
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	// SiteURL is the public base URL embedded in outbound verification
	// links as the post-verification destination.
	SiteURL string `env:"SITE_URL" envDefault:"http://localhost:3000"`

	AuthBaseURL   string        `env:"AUTH_BASE_URL"`
	AuthAnonKey   string        `env:"AUTH_ANON_KEY"`
	AuthJWTSecret string        `env:"AUTH_JWT_SECRET"`
	AuthTimeout   time.Duration `env:"AUTH_HTTP_TIMEOUT" envDefault:"10s"`

	DatabaseDSN string `env:"DATABASE_DSN"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Verification-flow timing. The retry schedule itself is fixed; only
	// the settle and quick-check delays are tunable per environment.
	VerifySettleDelay time.Duration `env:"VERIFY_SETTLE_DELAY" envDefault:"1500ms"`
	VerifyQuickDelay  time.Duration `env:"VERIFY_QUICK_DELAY" envDefault:"500ms"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
