package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	pb "github.com/dmitrijs2005/ldbvault/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHandlers_Admin(t *testing.T) {
	ctx := context.Background()
	reg := &fakeRegistry{}
	s := NewGRPCServer("", nopLogger{}, &fakeAuth{}, reg, &fakeBackups{})

	out, err := s.RegisterServer(ctx, pb.Message(map[string]any{
		"name": "eu-2", "host": "https://eu-2", "password": "correct horse", "api_key": "k",
	}))
	require.NoError(t, err)
	assert.Equal(t, "eu-2", reg.gotInput.Name)
	assert.Equal(t, "k", reg.gotInput.APIKey)
	srv := out.GetFields()["server"].GetStructValue()
	id, err := pb.Int64(srv, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(8), id)

	_, err = s.UpdateServerCredentials(ctx, pb.Message(map[string]any{"server_id": 3, "password": "new password"}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), reg.updated)
	assert.Empty(t, reg.gotAPIKey)

	_, err = s.UpdateServerCredentials(ctx, pb.Message(map[string]any{"password": "new password"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	reg.err = common.ErrorDuplicate
	_, err = s.RegisterServer(ctx, pb.Message(map[string]any{"name": "eu-2"}))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestHandlers_Backup(t *testing.T) {
	ctx := context.Background()
	bk := &fakeBackups{}
	s := NewGRPCServer("", nopLogger{}, &fakeAuth{}, &fakeRegistry{}, bk)

	out, err := s.ExportBackup(ctx, pb.Message(nil))
	require.NoError(t, err)
	assert.Equal(t, "ldbvault-x.json", pb.String(out, "key"))
	n, err := pb.Int64(out, "servers")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	out, err = s.ImportBackup(ctx, pb.Message(map[string]any{"key": "ldbvault-x.json"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-1"}, pb.Strings(out, "imported"))

	_, err = s.ImportBackup(ctx, pb.Message(nil))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	bk.err = errors.New("disk full")
	_, err = s.ExportBackup(ctx, pb.Message(nil))
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestHandlers_IssueMasterToken(t *testing.T) {
	ctx := context.Background()
	s := NewGRPCServer("", nopLogger{}, &fakeAuth{}, &fakeRegistry{}, &fakeBackups{})

	out, err := s.IssueMasterToken(ctx, pb.Message(map[string]any{"password": "admin"}))
	require.NoError(t, err)
	assert.Equal(t, "master-token", pb.String(out, "token"))
	assert.Equal(t, "2026-04-01T09:05:00Z", pb.String(out, "expires_at"))

	_, err = s.IssueMasterToken(ctx, pb.Message(map[string]any{"password": "nope"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestHandlers_SessionRequired(t *testing.T) {
	s := NewGRPCServer("", nopLogger{}, &fakeAuth{}, &fakeRegistry{}, &fakeBackups{})

	_, err := s.VerifySession(context.Background(), pb.Message(nil))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = s.CheckServer(context.Background(), pb.Message(nil))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
