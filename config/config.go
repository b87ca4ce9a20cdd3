// Package config loads the relay server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the process configuration.
type Config struct {
	Host               string        `env:"HOST"                 envDefault:"127.0.0.1"`
	Port               int           `env:"PORT"                 envDefault:"3000"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	BroadcastCapacity  int           `env:"BROADCAST_CAPACITY"   envDefault:"100"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT"     envDefault:"30s"`

	// DefaultRoom is opened at startup unless DefaultRoomDisabled is set.
	DefaultRoom         string `env:"DEFAULT_ROOM"          envDefault:"lobby"`
	DefaultRoomDisabled bool   `env:"DEFAULT_ROOM_DISABLED"`
}

// Configuration errors
var (
	ErrInvalidPort     = errors.New("port must be between 1 and 65535")
	ErrInvalidCapacity = errors.New("broadcast capacity must be positive")
	ErrInvalidTimeout  = errors.New("shutdown timeout must be positive")
)

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.CORSAllowedOrigins = strings.TrimSpace(cfg.CORSAllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that env tags cannot express.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.BroadcastCapacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, c.BroadcastCapacity)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.ShutdownTimeout)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// StartupRoom returns the room to open at startup, or "" for none.
func (c Config) StartupRoom() string {
	if c.DefaultRoomDisabled {
		return ""
	}
	return strings.TrimSpace(c.DefaultRoom)
}
