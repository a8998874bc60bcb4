package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/ldbvault/internal/common"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": message})
}

// respondServiceError maps service errors to statuses. Internal details are
// logged, never returned.
func (s *Server) respondServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		locked *common.LockedError
		creds  *common.CredentialsError
		valid  *common.ValidationError
	)

	switch {
	case errors.As(err, &locked):
		w.Header().Set("Retry-After", strconv.Itoa(locked.MinutesRemaining*60))
		respondJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             locked.Error(),
			"minutes_remaining": locked.MinutesRemaining,
		})
	case errors.As(err, &creds):
		respondJSON(w, http.StatusUnauthorized, map[string]any{
			"error":              creds.Error(),
			"attempts_remaining": creds.AttemptsRemaining,
		})
	case errors.As(err, &valid):
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": valid.Error(), "field": valid.Field})
	case errors.Is(err, common.ErrorValidation):
		respondError(w, http.StatusBadRequest, "validation error")
	case errors.Is(err, common.ErrorInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, common.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, common.ErrWrongTokenType):
		respondError(w, http.StatusForbidden, "wrong token type")
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorDuplicate):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrorDecryptionFailed):
		s.logger.Error(ctx, "stored secret unreadable", "error", err)
		respondError(w, http.StatusPreconditionFailed, "decryption failed")
	case errors.Is(err, common.ErrorRemoteUnavailable):
		respondError(w, http.StatusServiceUnavailable, "remote service unavailable")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
