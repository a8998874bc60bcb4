// Package keycache memoizes decrypted API keys so that the vault's key
// derivation runs at most once per server per TTL.
package keycache

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultTTL  = 5 * time.Minute
	DefaultSize = 100
)

// Decrypter is the source of truth on a cache miss.
type Decrypter interface {
	Decrypt(m *cryptox.SecretMaterial, passwordHash string) ([]byte, error)
}

// Cache is safe for concurrent use. Two concurrent misses for the same
// server both decrypt; the second Add overwrites an identical value.
//
// Entries remember the material they were decrypted from. A lookup with
// different material is a miss, so a reader holding a row from before a
// credentials update cannot serve or pin the old key for the new row.
type Cache struct {
	lru       *expirable.LRU[int64, entry]
	decrypter Decrypter
}

type entry struct {
	key         string
	fingerprint string
}

// fingerprint identifies one encryption of a key. Salt and IV are fresh
// per encryption and the hash is fresh per password change.
func fingerprint(m *cryptox.SecretMaterial, passwordHash string) string {
	return strings.Join([]string{
		passwordHash,
		hex.EncodeToString(m.Salt),
		hex.EncodeToString(m.IV),
		hex.EncodeToString(m.AuthTag),
	}, ":")
}

// New returns a cache holding at most size entries for ttl each.
// Non-positive arguments fall back to the defaults.
func New(d Decrypter, size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		lru:       expirable.NewLRU[int64, entry](size, nil, ttl),
		decrypter: d,
	}
}

// Get returns the plaintext key for serverID, decrypting m on a miss or
// when the cached entry came from other material.
func (c *Cache) Get(serverID int64, m *cryptox.SecretMaterial, passwordHash string) (string, error) {
	fp := fingerprint(m, passwordHash)
	if e, ok := c.lru.Get(serverID); ok && e.fingerprint == fp {
		return e.key, nil
	}

	plaintext, err := c.decrypter.Decrypt(m, passwordHash)
	if err != nil {
		return "", err
	}

	v := string(plaintext)
	c.lru.Add(serverID, entry{key: v, fingerprint: fp})
	return v, nil
}

// Invalidate drops the entry for serverID.
func (c *Cache) Invalidate(serverID int64) {
	c.lru.Remove(serverID)
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.lru.Purge()
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
