package soundbite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/soundbite"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults plus required secret", func(t *testing.T) {
		t.Setenv("SOUNDBITE_JWT_SECRET", "sekrit")

		cfg, err := soundbite.LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, soundbite.StoreBBolt, cfg.Store)
		assert.Equal(t, "data", cfg.DataDir)
		assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	})

	t.Run("missing secret fails validation", func(t *testing.T) {
		t.Setenv("SOUNDBITE_JWT_SECRET", "")

		_, err := soundbite.LoadConfig("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	t.Run("toml file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soundbite.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
addr = ":9000"
store = "sqlite"
jwt_secret = "sekrit"
log_level = "debug"
`), 0o644))

		cfg, err := soundbite.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Addr)
		assert.Equal(t, soundbite.StoreSQLite, cfg.Store)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soundbite.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
addr = ":9000"
jwt_secret = "sekrit"
`), 0o644))
		t.Setenv("SOUNDBITE_ADDR", ":7070")
		t.Setenv("SOUNDBITE_CORS_ORIGINS", "https://a.example, https://b.example")

		cfg, err := soundbite.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Addr)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	})

	t.Run("unknown store rejected", func(t *testing.T) {
		t.Setenv("SOUNDBITE_JWT_SECRET", "sekrit")
		t.Setenv("SOUNDBITE_STORE", "postgres")

		_, err := soundbite.LoadConfig("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown store backend")
	})
}
