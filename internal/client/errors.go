package client

import (
	"errors"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

func detailNumber(st *status.Status, key string) (int, bool) {
	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		if v, ok := s.GetFields()[key]; ok {
			return int(v.GetNumberValue()), true
		}
	}
	return 0, false
}

func detailString(st *status.Status, key string) string {
	for _, d := range st.Details() {
		if s, ok := d.(*structpb.Struct); ok {
			if v, ok := s.GetFields()[key]; ok {
				return v.GetStringValue()
			}
		}
	}
	return ""
}

// mapError turns a gRPC status back into the typed errors the server
// started from, so callers can errors.As on them.
func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.ResourceExhausted:
		if m, ok := detailNumber(st, "minutes_remaining"); ok {
			return &common.LockedError{MinutesRemaining: m}
		}
		return common.ErrorAccountLocked
	case codes.Unauthenticated:
		if n, ok := detailNumber(st, "attempts_remaining"); ok {
			return &common.CredentialsError{AttemptsRemaining: n}
		}
		switch st.Message() {
		case common.ErrTokenExpired.Error():
			return common.ErrTokenExpired
		case "invalid credentials":
			return common.ErrorInvalidCredentials
		}
		return ErrUnauthorized
	case codes.PermissionDenied:
		return common.ErrWrongTokenType
	case codes.InvalidArgument:
		if f := detailString(st, "field"); f != "" {
			return &common.ValidationError{Field: f, Reason: st.Message()}
		}
		return common.ErrorValidation
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.AlreadyExists:
		return common.ErrorDuplicate
	case codes.FailedPrecondition:
		if st.Message() == common.ErrorDecryptionFailed.Error() {
			return common.ErrorDecryptionFailed
		}
	case codes.Unavailable:
		if st.Message() == common.ErrorRemoteUnavailable.Error() {
			return common.ErrorRemoteUnavailable
		}
		return ErrUnavailable
	}
	return err
}
