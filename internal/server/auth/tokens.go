// Package auth issues and verifies the two classes of stateless tokens:
// per-server session tokens and administrative master tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MasterTokenType is the discriminator carried by master tokens.
const MasterTokenType = "master"

// SessionClaims are the claims of a session token. ServerID is a pointer so
// that a missing claim can be told apart from server 0.
type SessionClaims struct {
	jwt.RegisteredClaims
	ServerID *int64 `json:"server_id"`
}

// MasterClaims are the claims of a master token.
type MasterClaims struct {
	jwt.RegisteredClaims
	Type string `json:"type"`
}

// Session is the verified content of a session token.
type Session struct {
	ID        string
	ServerID  int64
	ExpiresAt time.Time
}

// Issuer signs and verifies tokens with a single HS256 secret.
type Issuer struct {
	secret         []byte
	masterPassword string
	sessionTTL     time.Duration
	masterTTL      time.Duration
	now            func() time.Time
}

// NewIssuer builds an Issuer. An empty masterPassword disables master token
// verification entirely.
func NewIssuer(secret, masterPassword string, sessionTTL, masterTTL time.Duration) *Issuer {
	return &Issuer{
		secret:         []byte(secret),
		masterPassword: masterPassword,
		sessionTTL:     sessionTTL,
		masterTTL:      masterTTL,
		now:            time.Now,
	}
}

// WithClock replaces the wall clock used for issuing and validation.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// MasterProtected reports whether a master password is configured.
func (i *Issuer) MasterProtected() bool {
	return i.masterPassword != ""
}

// MasterPassword returns the configured master password.
func (i *Issuer) MasterPassword() string {
	return i.masterPassword
}

func (i *Issuer) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidToken
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}

// IssueSession mints a session token bound to serverID.
func (i *Issuer) IssueSession(serverID int64) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.sessionTTL)

	token, err := i.sign(SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		ServerID: &serverID,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// VerifySession checks signature, expiry and the server_id claim. It does not
// check that the server still exists.
func (i *Issuer) VerifySession(tokenString string) (*Session, error) {
	claims := &SessionClaims{}
	if err := i.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.ServerID == nil {
		return nil, common.ErrInvalidToken
	}

	s := &Session{ID: claims.ID, ServerID: *claims.ServerID}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// IssueMaster mints an administrative token.
func (i *Issuer) IssueMaster() (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.masterTTL)

	token, err := i.sign(MasterClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Type: MasterTokenType,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// VerifyMaster returns nil for a valid master token. Without a configured
// master password every input passes.
func (i *Issuer) VerifyMaster(tokenString string) error {
	if !i.MasterProtected() {
		return nil
	}

	claims := &MasterClaims{}
	if err := i.parse(tokenString, claims); err != nil {
		return err
	}
	if claims.Type != MasterTokenType {
		return common.ErrWrongTokenType
	}
	return nil
}
