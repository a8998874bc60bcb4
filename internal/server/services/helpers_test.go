package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/dmitrijs2005/ldbvault/internal/keycache"
	"github.com/dmitrijs2005/ldbvault/internal/server/config"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// withCheapHashes swaps the cost-12 hasher for the minimum cost.
func withCheapHashes(t *testing.T) {
	t.Helper()
	orig := hashPassword
	hashPassword = func(password string) (string, error) {
		if err := cryptox.ValidatePassword(password); err != nil {
			return "", err
		}
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		return string(h), err
	}
	t.Cleanup(func() { hashPassword = orig })
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

// seedServer stores a server with the given password and API key.
func seedServer(t *testing.T, m *memory.InMemoryRepositoryManager, name, password, apiKey string) *models.Server {
	t.Helper()
	hash, err := hashPassword(password)
	require.NoError(t, err)
	material, err := cryptox.Encrypt([]byte(apiKey), hash)
	require.NoError(t, err)

	s, err := m.Servers(nil).Create(context.Background(), &models.Server{
		Name:         name,
		Host:         "https://" + name + ".example",
		PasswordHash: hash,
		Secret:       material.Hex(),
	})
	require.NoError(t, err)
	return s
}

func newCache() *keycache.Cache {
	return keycache.New(cryptox.Vault{}, 10, time.Minute)
}
