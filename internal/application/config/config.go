package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"3000"`
	MetricPort string `env:"METRIC_PORT" envDefault:"9090"`
	Domain     string `env:"DOMAIN" envDefault:"http://localhost:3000"`
	JWTSecret  string `env:"JWT_SECRET,required"`

	// RequireHost gates win-pot and reset-game to the room creator. Turning
	// it off restores the older open-table behavior where any player may
	// run them.
	RequireHost bool `env:"REQUIRE_HOST" envDefault:"true"`

	// RoomTTL is how long a room with no attached connections survives
	// before the janitor evicts it.
	RoomTTL time.Duration `env:"ROOM_TTL" envDefault:"30m"`

	// LogLimit caps the per-room activity log.
	LogLimit int `env:"LOG_LIMIT" envDefault:"200"`

	Postgres PostgresConfig
}

type PostgresConfig struct {
	// URL left empty disables the audit archive entirely; the engine is
	// fully functional without it.
	URL string `env:"POSTGRES_URL"`
}

func New() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &c, nil
}
