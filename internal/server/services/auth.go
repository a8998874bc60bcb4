package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/dmitrijs2005/ldbvault/internal/server/auth"
	"github.com/dmitrijs2005/ldbvault/internal/server/config"
	"github.com/dmitrijs2005/ldbvault/internal/server/lockout"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/repomanager"
)

// dummyHash is compared against when the server does not exist so that
// unknown ids cost the same as wrong passwords.
const dummyHash = "$2a$12$C6UzMDM.H6dfI/f/IKcEeO5q7cZ7G0ZyZl0gk3HWG9a7VY3ZmZ5x."

// SessionResult is a freshly issued session.
type SessionResult struct {
	Token     string
	ExpiresAt time.Time
	Server    *models.Server
}

// AuthService authenticates operators against registered servers and
// issues session and master tokens.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	tracker     *lockout.Tracker
	maxAttempts int
	window      time.Duration
	locks       stripedMutex
	master      *masterGuard
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, issuer *auth.Issuer, tracker *lockout.Tracker) *AuthService {
	maxAttempts := cfg.MaxFailedAttempts
	if maxAttempts <= 0 {
		maxAttempts = lockout.DefaultMaxAttempts
	}
	window := cfg.LockoutWindow
	if window <= 0 {
		window = lockout.DefaultWindow
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		issuer:      issuer,
		tracker:     tracker,
		maxAttempts: maxAttempts,
		window:      window,
		master:      newMasterGuard(maxAttempts, window, tracker.Now),
	}
}

// Authenticate verifies password for serverID on behalf of ip.
//
// A locked (server, ip) pair yields *common.LockedError before the password
// is looked at. A wrong password is recorded and yields
// *common.CredentialsError, or *common.LockedError when it used up the last
// attempt. Success clears the pair's failures and returns a session token.
func (s *AuthService) Authenticate(ctx context.Context, serverID int64, password, ip string) (*SessionResult, error) {
	unlock := s.locks.lock(serverID, ip)
	defer unlock()

	st, err := s.tracker.IsLocked(ctx, serverID, ip, s.maxAttempts, s.window)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if st.Locked {
		return nil, &common.LockedError{MinutesRemaining: st.MinutesRemaining}
	}

	server, err := s.repomanager.Servers(s.db).GetByID(ctx, serverID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = verifyPassword(password, dummyHash)
			return nil, &common.CredentialsError{AttemptsRemaining: s.maxAttempts}
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	ok := false
	if validLength(password) == nil {
		ok, err = verifyPassword(password, server.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
	}
	if !ok {
		return nil, s.fail(ctx, serverID, ip)
	}

	if err := s.tracker.Clear(ctx, serverID, ip); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	token, exp, err := s.issuer.IssueSession(serverID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &SessionResult{Token: token, ExpiresAt: exp, Server: server}, nil
}

func (s *AuthService) fail(ctx context.Context, serverID int64, ip string) error {
	if err := s.tracker.RecordFailure(ctx, serverID, ip); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	st, err := s.tracker.IsLocked(ctx, serverID, ip, s.maxAttempts, s.window)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if st.Locked {
		return &common.LockedError{MinutesRemaining: st.MinutesRemaining}
	}
	n, err := s.tracker.RecentFailureCount(ctx, serverID, ip, s.window)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &common.CredentialsError{AttemptsRemaining: s.maxAttempts - n}
}

func validLength(password string) error {
	if len(password) < common.MinPasswordLength || len(password) > common.MaxPasswordLength {
		return common.ErrorValidation
	}
	return nil
}

// VerifySession validates token and confirms its server still exists.
// A deleted server makes the token invalid.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*auth.Session, *models.Server, error) {
	session, err := s.issuer.VerifySession(token)
	if err != nil {
		return nil, nil, err
	}

	server, err := s.repomanager.Servers(s.db).GetByID(ctx, session.ServerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return session, server, nil
}

// IssueMasterToken exchanges the master password for a master token.
// Without a configured master password any input is accepted. Wrong
// passwords count against ip under the same policy as server logins.
func (s *AuthService) IssueMasterToken(ctx context.Context, password, ip string) (string, time.Time, error) {
	if s.issuer.MasterProtected() {
		if err := s.master.check(ip); err != nil {
			return "", time.Time{}, err
		}
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.issuer.MasterPassword())) != 1 {
			return "", time.Time{}, s.master.fail(ip)
		}
		s.master.clear(ip)
	}

	token, exp, err := s.issuer.IssueMaster()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, exp, nil
}

// VerifyMaster checks a master token.
func (s *AuthService) VerifyMaster(token string) error {
	return s.issuer.VerifyMaster(token)
}
