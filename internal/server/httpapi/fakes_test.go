package httpapi

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
	authRes *services.SessionResult
	authErr error
	gotID   int64
	gotIP   string
	gotPass string
}

func (f *fakeAuth) Authenticate(_ context.Context, serverID int64, password, ip string) (*services.SessionResult, error) {
	f.gotID, f.gotIP, f.gotPass = serverID, ip, password
	return f.authRes, f.authErr
}

func (f *fakeAuth) VerifySession(_ context.Context, token string) (*auth.Session, *models.Server, error) {
	switch token {
	case "good":
		return &auth.Session{ID: "sess-1", ServerID: 7, ExpiresAt: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}, testServer, nil
	case "old":
		return nil, nil, common.ErrTokenExpired
	}
	return nil, nil, common.ErrInvalidToken
}

func (f *fakeAuth) IssueMasterToken(_ context.Context, password, ip string) (string, time.Time, error) {
	f.gotIP = ip
	if password != "admin" {
		return "", time.Time{}, common.ErrorInvalidCredentials
	}
	return "master-token", time.Date(2026, 4, 1, 9, 5, 0, 0, time.UTC), nil
}

func (f *fakeAuth) VerifyMaster(string) error { return nil }

type fakeRegistry struct {
	list []*models.Server
	err  error
}

func (f *fakeRegistry) Register(context.Context, services.RegisterInput) (*models.Server, error) {
	return nil, f.err
}
func (f *fakeRegistry) UpdateCredentials(context.Context, int64, string, string) error { return f.err }
func (f *fakeRegistry) Delete(context.Context, int64) error                          { return f.err }
func (f *fakeRegistry) List(context.Context) ([]*models.Server, error)               { return f.list, f.err }
func (f *fakeRegistry) Check(context.Context, int64) error                           { return f.err }
