// Package memory implements the repository interfaces over process memory.
// Rows disappear with the process; the manager backs service tests and local
// runs without PostgreSQL.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/ldbvault/internal/dbx"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/failedattempts"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/servers"
)

var _ repomanager.RepositoryManager = (*InMemoryRepositoryManager)(nil)

type store struct {
	mu            sync.Mutex
	servers       map[int64]models.Server
	nextServerID  int64
	attempts      []models.FailedAttempt
	nextAttemptID int64
}

// InMemoryRepositoryManager hands out repositories sharing one store. The
// DBTX argument is ignored, so transactions are not isolated.
type InMemoryRepositoryManager struct {
	store *store
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: &store{servers: map[int64]models.Server{}}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Servers(dbx.DBTX) servers.Repository {
	return &ServersRepository{store: m.store}
}

func (m *InMemoryRepositoryManager) FailedAttempts(dbx.DBTX) failedattempts.Repository {
	return &FailedAttemptsRepository{store: m.store}
}

// AttemptCount returns the number of stored attempts across all pairs.
func (m *InMemoryRepositoryManager) AttemptCount() int {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return len(m.store.attempts)
}
