package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/dmitrijs2005/ldbvault/internal/dbx"
	"github.com/dmitrijs2005/ldbvault/internal/keycache"
	"github.com/dmitrijs2005/ldbvault/internal/server/config"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/repomanager"
)

// RegisterInput describes a server to add to the registry.
type RegisterInput struct {
	Name     string
	Host     string
	Password string
	APIKey   string
}

// ServerService manages registered servers and hands out their decrypted
// API keys through the key cache.
type ServerService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	cache         *keycache.Cache
	remoteTimeout time.Duration
}

func NewServerService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, cache *keycache.Cache) *ServerService {
	return &ServerService{
		db:            db,
		repomanager:   m,
		cache:         cache,
		remoteTimeout: cfg.RemoteTimeout,
	}
}

func validateRegister(in RegisterInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &common.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if err := validateHost(in.Host); err != nil {
		return err
	}
	if in.APIKey == "" {
		return &common.ValidationError{Field: "api_key", Reason: "must not be empty"}
	}
	return cryptox.ValidatePassword(in.Password)
}

func validateHost(host string) error {
	u, err := url.Parse(host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &common.ValidationError{Field: "host", Reason: "must be an http or https URL"}
	}
	return nil
}

// Register validates in, hashes the password, encrypts the API key under
// the resulting hash and stores the server. Name and host are unique.
func (s *ServerService) Register(ctx context.Context, in RegisterInput) (*models.Server, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}
	in.Host = strings.TrimRight(in.Host, "/")

	repo := s.repomanager.Servers(s.db)
	if err := ensureUnique(ctx, repo.GetByName, in.Name); err != nil {
		return nil, err
	}
	if err := ensureUnique(ctx, repo.GetByHost, in.Host); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	material, err := cryptox.Encrypt([]byte(in.APIKey), hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	server, err := repo.Create(ctx, &models.Server{
		Name:         in.Name,
		Host:         in.Host,
		PasswordHash: hash,
		Secret:       material.Hex(),
	})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating server: %w", err)
	}
	return server, nil
}

func ensureUnique(ctx context.Context, get func(context.Context, string) (*models.Server, error), v string) error {
	_, err := get(ctx, v)
	switch {
	case err == nil:
		return common.ErrorDuplicate
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return fmt.Errorf("error checking uniqueness: %w", err)
	}
}

// UpdateCredentials replaces the server's password. With an empty apiKey
// the current key is decrypted under the old hash and re-encrypted under
// the new one. The cached key is dropped either way.
func (s *ServerService) UpdateCredentials(ctx context.Context, id int64, password, apiKey string) error {
	if err := cryptox.ValidatePassword(password); err != nil {
		return err
	}

	err := withTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Servers(tx)

		server, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		plaintext := []byte(apiKey)
		if apiKey == "" {
			material, err := server.Secret.Material()
			if err != nil {
				return err
			}
			if plaintext, err = cryptox.Decrypt(material, server.PasswordHash); err != nil {
				return err
			}
			defer common.WipeByteArray(plaintext)
		}

		hash, err := hashPassword(password)
		if err != nil {
			return err
		}
		material, err := cryptox.Encrypt(plaintext, hash)
		if err != nil {
			return err
		}
		return repo.UpdateSecret(ctx, id, hash, material.Hex())
	})
	s.cache.Invalidate(id)
	if err != nil {
		return fmt.Errorf("error updating credentials: %w", err)
	}
	return nil
}

// Delete removes the server, its failed attempts and its cached key.
func (s *ServerService) Delete(ctx context.Context, id int64) error {
	err := s.repomanager.Servers(s.db).Delete(ctx, id)
	s.cache.Invalidate(id)
	if err != nil {
		return fmt.Errorf("error deleting server: %w", err)
	}
	return nil
}

func (s *ServerService) List(ctx context.Context) ([]*models.Server, error) {
	list, err := s.repomanager.Servers(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing servers: %w", err)
	}
	return list, nil
}

func (s *ServerService) Get(ctx context.Context, id int64) (*models.Server, error) {
	server, err := s.repomanager.Servers(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting server: %w", err)
	}
	return server, nil
}

// APIKey returns the decrypted API key of server, from the cache when fresh.
func (s *ServerService) APIKey(server *models.Server) (string, error) {
	material, err := server.Secret.Material()
	if err != nil {
		return "", err
	}
	return s.cache.Get(server.ID, material, server.PasswordHash)
}

// Check probes the remote data service of server id with its API key.
func (s *ServerService) Check(ctx context.Context, id int64) error {
	server, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	key, err := s.APIKey(server)
	if err != nil {
		return err
	}
	if err := probeRemote(ctx, server.Host, key, s.remoteTimeout); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorRemoteUnavailable, err)
	}
	return nil
}
