package bank

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings, loaded from environment variables.
// An empty DBPath selects the in-memory transfer store.
type Config struct {
	Addr      string        `env:"ADDR" envDefault:":8080"`
	JWTSecret string        `env:"JWT_SECRET" envDefault:"my_secret_key"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"30m"`
	DBPath    string        `env:"DB_PATH"`
	AccessLog string        `env:"ACCESS_LOG" envDefault:"access_log.json"`
}

func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
