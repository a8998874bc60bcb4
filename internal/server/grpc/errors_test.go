package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	pb "github.com/dmitrijs2005/ldbvault/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestToStatus(t *testing.T) {
	s := newTestServer(&fakeAuth{})

	tests := []struct {
		err  error
		code codes.Code
	}{
		{&common.ValidationError{Field: "name", Reason: "must not be empty"}, codes.InvalidArgument},
		{common.ErrorValidation, codes.InvalidArgument},
		{common.ErrorInvalidCredentials, codes.Unauthenticated},
		{common.ErrTokenExpired, codes.Unauthenticated},
		{common.ErrInvalidToken, codes.Unauthenticated},
		{common.ErrWrongTokenType, codes.PermissionDenied},
		{fmt.Errorf("x: %w", common.ErrorNotFound), codes.NotFound},
		{common.ErrorDuplicate, codes.AlreadyExists},
		{fmt.Errorf("%w: dial", common.ErrorRemoteUnavailable), codes.Unavailable},
		{fmt.Errorf("server 7: %w", common.ErrorDecryptionFailed), codes.FailedPrecondition},
		{errors.New("pq: secret detail"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			st := status.Convert(s.toStatus(context.Background(), tt.err))
			assert.Equal(t, tt.code, st.Code())
			switch tt.code {
			case codes.Internal:
				assert.Equal(t, "internal error", st.Message())
			case codes.FailedPrecondition:
				assert.Equal(t, "decryption failed", st.Message())
			}
		})
	}
}

func detail(t *testing.T, err error) *structpb.Struct {
	t.Helper()
	details := status.Convert(err).Details()
	require.Len(t, details, 1)
	d, ok := details[0].(*structpb.Struct)
	require.True(t, ok)
	return d
}

func TestToStatus_Details(t *testing.T) {
	s := newTestServer(&fakeAuth{})

	err := s.toStatus(context.Background(), &common.LockedError{MinutesRemaining: 12})
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
	n, e := pb.Int64(detail(t, err), "minutes_remaining")
	require.NoError(t, e)
	assert.Equal(t, int64(12), n)

	err = s.toStatus(context.Background(), fmt.Errorf("auth: %w", &common.CredentialsError{AttemptsRemaining: 3}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	n, e = pb.Int64(detail(t, err), "attempts_remaining")
	require.NoError(t, e)
	assert.Equal(t, int64(3), n)
}
