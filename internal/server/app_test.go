package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.DatabaseDSN = ""
	c.BackupDir = t.TempDir()
	c.LogLevel = "error"
	return c
}

func TestNewApp_InMemory(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.Nil(t, app.db)
	assert.NotNil(t, app.authService)
	assert.NotNil(t, app.serverService)
	assert.NotNil(t, app.backupService)
	assert.False(t, app.proxies.Trusts("127.0.0.1"))
}

func TestNewApp_Errors(t *testing.T) {
	t.Run("log backend", func(t *testing.T) {
		c := testConfig(t)
		c.LogBackend = "syslog"
		_, err := NewApp(context.Background(), c)
		assert.ErrorContains(t, err, "logger init error")
	})

	t.Run("trusted proxies", func(t *testing.T) {
		c := testConfig(t)
		c.TrustedProxies = []string{"10.0.0.0/99"}
		_, err := NewApp(context.Background(), c)
		assert.ErrorContains(t, err, "trusted proxies error")
	})

	t.Run("database", func(t *testing.T) {
		old := openDB
		t.Cleanup(func() { openDB = old })
		openDB = func(context.Context, string) (*sql.DB, error) { return nil, errors.New("refused") }

		c := testConfig(t)
		c.DatabaseDSN = "postgres://nowhere"
		_, err := NewApp(context.Background(), c)
		assert.ErrorContains(t, err, "db init error: refused")
	})

	t.Run("backup store", func(t *testing.T) {
		c := testConfig(t)
		c.BackupStorage = "ftp"
		_, err := NewApp(context.Background(), c)
		assert.ErrorContains(t, err, "backup store init error")
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestRun_StopsWhenTransportFails(t *testing.T) {
	c := testConfig(t)
	c.EndpointAddrHTTP = "bad::address"
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
