package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/dmitrijs2005/ldbvault/internal/dbx"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ImportResult lists the outcome of an import by server name.
type ImportResult struct {
	Imported []string
	Skipped  []string
}

// BackupService exports the server registry to a BackupStore and restores
// it from one.
type BackupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       BackupStore
	now         func() time.Time
}

func NewBackupService(db *sql.DB, m repomanager.RepositoryManager, store BackupStore) *BackupService {
	return &BackupService{db: db, repomanager: m, store: store, now: time.Now}
}

// BackupKey names a new backup object.
func BackupKey(t time.Time) string {
	return fmt.Sprintf("ldbvault-%s-%s.json", t.UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
}

// Export writes every server, secret material included, as one JSON
// document and returns its key.
func (s *BackupService) Export(ctx context.Context) (string, *models.Backup, error) {
	list, err := s.repomanager.Servers(s.db).List(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("error listing servers: %w", err)
	}

	now := s.now()
	backup := &models.Backup{Version: models.BackupVersion, CreatedAt: now.UTC(), Servers: []models.BackupServer{}}
	for _, srv := range list {
		backup.Servers = append(backup.Servers, models.BackupServer{
			Name:         srv.Name,
			Host:         srv.Host,
			PasswordHash: srv.PasswordHash,
			Secret:       srv.Secret,
		})
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("error encoding backup: %w", err)
	}

	key := BackupKey(now)
	if err := s.store.Put(ctx, key, data); err != nil {
		return "", nil, fmt.Errorf("error storing backup: %w", err)
	}
	return key, backup, nil
}

// Import reads the backup stored under key and restores it.
func (s *BackupService) Import(ctx context.Context, key string) (*ImportResult, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error loading backup: %w", err)
	}
	return s.ImportDocument(ctx, data)
}

// ImportDocument restores servers from a backup document inside one
// transaction. Each secret is re-encrypted with fresh salt and IV. Servers
// whose name or host already exists are skipped. A secret that does not
// decrypt aborts the whole import.
func (s *BackupService) ImportDocument(ctx context.Context, data []byte) (*ImportResult, error) {
	var backup models.Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, &common.ValidationError{Field: "backup", Reason: "malformed document"}
	}
	if backup.Version != models.BackupVersion {
		return nil, &common.ValidationError{Field: "version", Reason: fmt.Sprintf("unsupported backup version %d", backup.Version)}
	}

	res := &ImportResult{Imported: []string{}, Skipped: []string{}}
	err := withTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Servers(tx)

		for _, bs := range backup.Servers {
			if err := ensureUnique(ctx, repo.GetByName, bs.Name); err != nil {
				if errors.Is(err, common.ErrorDuplicate) {
					res.Skipped = append(res.Skipped, bs.Name)
					continue
				}
				return err
			}
			if err := ensureUnique(ctx, repo.GetByHost, bs.Host); err != nil {
				if errors.Is(err, common.ErrorDuplicate) {
					res.Skipped = append(res.Skipped, bs.Name)
					continue
				}
				return err
			}

			secret, err := reencrypt(bs.Secret, bs.PasswordHash)
			if err != nil {
				return fmt.Errorf("server %q: %w", bs.Name, err)
			}

			if _, err := repo.Create(ctx, &models.Server{
				Name:         bs.Name,
				Host:         bs.Host,
				PasswordHash: bs.PasswordHash,
				Secret:       secret,
			}); err != nil {
				return fmt.Errorf("server %q: %w", bs.Name, err)
			}
			res.Imported = append(res.Imported, bs.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error importing backup: %w", err)
	}
	return res, nil
}

func reencrypt(h cryptox.HexMaterial, passwordHash string) (cryptox.HexMaterial, error) {
	material, err := h.Material()
	if err != nil {
		return cryptox.HexMaterial{}, err
	}
	plaintext, err := cryptox.Decrypt(material, passwordHash)
	if err != nil {
		return cryptox.HexMaterial{}, err
	}
	defer common.WipeByteArray(plaintext)

	fresh, err := cryptox.Encrypt(plaintext, passwordHash)
	if err != nil {
		return cryptox.HexMaterial{}, err
	}
	return fresh.Hex(), nil
}
