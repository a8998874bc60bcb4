package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
)

type ServersRepository struct {
	store *store
}

func (r *ServersRepository) Create(_ context.Context, s *models.Server) (*models.Server, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.servers {
		if existing.Name == s.Name || existing.Host == s.Host {
			return nil, common.ErrorDuplicate
		}
	}

	r.store.nextServerID++
	now := time.Now()
	s.ID = r.store.nextServerID
	s.CreatedAt, s.UpdatedAt = now, now
	r.store.servers[s.ID] = *s

	return s, nil
}

func (r *ServersRepository) find(match func(models.Server) bool) (*models.Server, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, s := range r.store.servers {
		if match(s) {
			found := s
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *ServersRepository) GetByID(_ context.Context, id int64) (*models.Server, error) {
	return r.find(func(s models.Server) bool { return s.ID == id })
}

func (r *ServersRepository) GetByName(_ context.Context, name string) (*models.Server, error) {
	return r.find(func(s models.Server) bool { return s.Name == name })
}

func (r *ServersRepository) GetByHost(_ context.Context, host string) (*models.Server, error) {
	return r.find(func(s models.Server) bool { return s.Host == host })
}

func (r *ServersRepository) List(context.Context) ([]*models.Server, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*models.Server, 0, len(r.store.servers))
	for _, s := range r.store.servers {
		s := s
		result = append(result, &s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *ServersRepository) UpdateSecret(_ context.Context, id int64, passwordHash string, secret cryptox.HexMaterial) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.servers[id]
	if !ok {
		return common.ErrorNotFound
	}
	s.PasswordHash = passwordHash
	s.Secret = secret
	s.UpdatedAt = time.Now()
	r.store.servers[id] = s
	return nil
}

// Delete removes the server and, like the foreign key cascade, its attempts.
func (r *ServersRepository) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.servers[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.store.servers, id)

	kept := r.store.attempts[:0]
	for _, a := range r.store.attempts {
		if a.ServerID != id {
			kept = append(kept, a)
		}
	}
	r.store.attempts = kept
	return nil
}
