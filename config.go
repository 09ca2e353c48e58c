package petstore

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration makes time.Duration readable from TOML ("1500ms", "30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	ListenAddr     string   `toml:"listen-addr"`
	RedisAddr      string   `toml:"redis-addr"`
	ConnectTimeout Duration `toml:"connect-timeout"`
	ReadTimeout    Duration `toml:"read-timeout"`
	WriteTimeout   Duration `toml:"write-timeout"`
	LogLevel       string   `toml:"log-level"`
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     ":8080",
		RedisAddr:      "127.0.0.1:6379",
		ConnectTimeout: Duration{1500 * time.Millisecond},
		ReadTimeout:    Duration{30 * time.Second},
		WriteTimeout:   Duration{30 * time.Second},
		LogLevel:       "info",
	}
}

func (c *Config) LoadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// LoadEnv applies the PORT and REDIS_URI environment variables on top of
// the current values. A REDIS_URI without a port gets the default 6379.
func (c *Config) LoadEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.ListenAddr = ":" + port
	}
	if uri := os.Getenv("REDIS_URI"); uri != "" {
		if !strings.Contains(uri, ":") {
			uri += ":6379"
		}
		c.RedisAddr = uri
	}
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
