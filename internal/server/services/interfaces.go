package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/server/auth"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
)

// Authenticator is the part of AuthService used by transports.
type Authenticator interface {
	Authenticate(ctx context.Context, serverID int64, password, ip string) (*SessionResult, error)
	VerifySession(ctx context.Context, token string) (*auth.Session, *models.Server, error)
	IssueMasterToken(ctx context.Context, password, ip string) (string, time.Time, error)
	VerifyMaster(token string) error
}

// ServerRegistry is the part of ServerService used by transports.
type ServerRegistry interface {
	Register(ctx context.Context, in RegisterInput) (*models.Server, error)
	UpdateCredentials(ctx context.Context, id int64, password, apiKey string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.Server, error)
	Check(ctx context.Context, id int64) error
}

// BackupManager is the part of BackupService used by transports.
type BackupManager interface {
	Export(ctx context.Context) (string, *models.Backup, error)
	Import(ctx context.Context, key string) (*ImportResult, error)
}

var (
	_ Authenticator  = (*AuthService)(nil)
	_ ServerRegistry = (*ServerService)(nil)
	_ BackupManager  = (*BackupService)(nil)
)
