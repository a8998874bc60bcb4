package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Run("overlays set variables", func(t *testing.T) {
		t.Setenv("LDB_DATABASE_DSN", "postgres://env")
		t.Setenv("LDB_LOCKOUT_WINDOW", "30m")
		t.Setenv("LDB_MAX_FAILED_ATTEMPTS", "7")
		t.Setenv("LDB_CORS_ORIGINS", "https://a.example, https://b.example,")
		t.Setenv("LDB_TRUSTED_PROXIES", "10.0.0.1,172.16.0.0/12")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
		assert.Equal(t, 30*time.Minute, cfg.LockoutWindow)
		assert.Equal(t, 7, cfg.MaxFailedAttempts)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
		assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxies)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
	})

	t.Run("empty value clears a string", func(t *testing.T) {
		t.Setenv("LDB_DATABASE_DSN", "")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Empty(t, cfg.DatabaseDSN)
	})

	t.Run("bad duration panics", func(t *testing.T) {
		t.Setenv("LDB_CACHE_TTL", "soon")

		cfg := &Config{}
		require.Panics(t, func() { parseEnv(cfg) })
	})

	t.Run("bad integer panics", func(t *testing.T) {
		t.Setenv("LDB_CACHE_SIZE", "many")

		cfg := &Config{}
		require.Panics(t, func() { parseEnv(cfg) })
	})
}
