// Package services contains server-side business logic: authentication
// against registered servers, the server registry, and backups.
package services

import (
	"context"
	"database/sql"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/dmitrijs2005/ldbvault/internal/dbx"
	"github.com/dmitrijs2005/ldbvault/internal/netx"
)

// Seams for tests.
var (
	hashPassword   = cryptox.HashPassword
	verifyPassword = cryptox.VerifyPassword
	probeRemote    = netx.Probe
)

// withTx runs fn in a transaction. Without a *sql.DB (in-memory store) fn
// gets a nil handle and runs unguarded.
func withTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, db, nil, fn)
}

const lockStripes = 64

// stripedMutex serializes work per key with a fixed number of mutexes.
// Distinct keys may share a stripe.
type stripedMutex struct {
	stripes [lockStripes]sync.Mutex
}

func (m *stripedMutex) lock(serverID int64, ip string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(serverID, 10)))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(ip))

	mu := &m.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
