package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/dmitrijs2005/ldbvault/internal/logging"
	"github.com/dmitrijs2005/ldbvault/internal/server/auth"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"github.com/dmitrijs2005/ldbvault/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

var testServer = &models.Server{ID: 7, Name: "eu-1", Host: "https://eu-1.example", CreatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}

type fakeAuth struct {
	authRes  *services.SessionResult
	authErr  error
	gotIP    string
	gotPass  string
	sessions map[string]*auth.Session
	master   string
}

func (f *fakeAuth) Authenticate(_ context.Context, serverID int64, password, ip string) (*services.SessionResult, error) {
	f.gotIP, f.gotPass = ip, password
	return f.authRes, f.authErr
}

func (f *fakeAuth) VerifySession(_ context.Context, token string) (*auth.Session, *models.Server, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, nil, common.ErrInvalidToken
	}
	return s, testServer, nil
}

func (f *fakeAuth) IssueMasterToken(_ context.Context, password, ip string) (string, time.Time, error) {
	f.gotIP = ip
	if password != "admin" {
		return "", time.Time{}, common.ErrorInvalidCredentials
	}
	return "master-token", time.Date(2026, 4, 1, 9, 5, 0, 0, time.UTC), nil
}

func (f *fakeAuth) VerifyMaster(token string) error {
	if f.master == "" || token == f.master {
		return nil
	}
	if token == "session-token" {
		return common.ErrWrongTokenType
	}
	return common.ErrInvalidToken
}

type fakeRegistry struct {
	list      []*models.Server
	err       error
	checked   int64
	deleted   int64
	updated   int64
	gotInput  services.RegisterInput
	gotAPIKey string
}

func (f *fakeRegistry) Register(_ context.Context, in services.RegisterInput) (*models.Server, error) {
	f.gotInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Server{ID: 8, Name: in.Name, Host: in.Host}, nil
}

func (f *fakeRegistry) UpdateCredentials(_ context.Context, id int64, password, apiKey string) error {
	f.updated, f.gotAPIKey = id, apiKey
	return f.err
}

func (f *fakeRegistry) Delete(_ context.Context, id int64) error {
	f.deleted = id
	return f.err
}

func (f *fakeRegistry) List(context.Context) ([]*models.Server, error) { return f.list, f.err }

func (f *fakeRegistry) Check(_ context.Context, id int64) error {
	f.checked = id
	return f.err
}

type fakeBackups struct {
	err error
}

func (f *fakeBackups) Export(context.Context) (string, *models.Backup, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return "ldbvault-x.json", &models.Backup{Servers: make([]models.BackupServer, 2)}, nil
}

func (f *fakeBackups) Import(_ context.Context, key string) (*services.ImportResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.ImportResult{Imported: []string{"eu-1"}, Skipped: []string{}}, nil
}
