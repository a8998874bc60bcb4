package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	pb "github.com/dmitrijs2005/ldbvault/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses. Lockout and credential
// errors carry a Struct detail with the remaining minutes or attempts.
// Anything unrecognized becomes a bare Internal.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var (
		locked *common.LockedError
		creds  *common.CredentialsError
		valid  *common.ValidationError
	)

	switch {
	case errors.As(err, &locked):
		return withDetail(codes.ResourceExhausted, locked.Error(), map[string]any{"minutes_remaining": locked.MinutesRemaining})
	case errors.As(err, &creds):
		return withDetail(codes.Unauthenticated, creds.Error(), map[string]any{"attempts_remaining": creds.AttemptsRemaining})
	case errors.As(err, &valid):
		return withDetail(codes.InvalidArgument, valid.Error(), map[string]any{"field": valid.Field})
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, "validation error")
	case errors.Is(err, common.ErrorInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, common.ErrWrongTokenType):
		return status.Error(codes.PermissionDenied, "wrong token type")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorDuplicate):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorRemoteUnavailable):
		return status.Error(codes.Unavailable, "remote service unavailable")
	case errors.Is(err, common.ErrorDecryptionFailed):
		s.logger.Error(ctx, "stored secret unreadable", "error", err)
		return status.Error(codes.FailedPrecondition, "decryption failed")
	}

	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func withDetail(code codes.Code, msg string, detail map[string]any) error {
	st := status.New(code, msg)
	if withD, err := st.WithDetails(pb.Message(detail)); err == nil {
		st = withD
	}
	return st.Err()
}
