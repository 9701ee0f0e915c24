package soundbite

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Store backends selectable in the config.
const (
	StoreBBolt  = "bbolt"
	StoreSQLite = "sqlite"
)

// Config holds process configuration. Values come from an optional TOML
// file, overridden by SOUNDBITE_* environment variables (a .env file is
// honored via godotenv).
type Config struct {
	Addr               string   `toml:"addr"`
	DataDir            string   `toml:"data_dir"`
	Store              string   `toml:"store"`
	JWTSecret          string   `toml:"jwt_secret"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	LogLevel           string   `toml:"log_level"`
}

// DefaultConfig returns the built-in defaults. The JWT secret has no
// default; it must be configured.
func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		DataDir:            "data",
		Store:              StoreBBolt,
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           "info",
	}
}

// LoadConfig builds a Config from defaults, the optional TOML file at path,
// and environment overrides, then validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("error reading config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if v := getenv("SOUNDBITE_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("SOUNDBITE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := getenv("SOUNDBITE_STORE"); v != "" {
		cfg.Store = v
	}
	if v := getenv("SOUNDBITE_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := getenv("SOUNDBITE_CORS_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitCSV(v)
	}
	if v := getenv("SOUNDBITE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config for values the server cannot run without.
func (c Config) Validate() error {
	switch c.Store {
	case StoreBBolt, StoreSQLite:
	default:
		return fmt.Errorf("unknown store backend %q (want %q or %q)", c.Store, StoreBBolt, StoreSQLite)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required (or set SOUNDBITE_JWT_SECRET)")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
