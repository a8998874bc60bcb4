package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// ServerView is the public shape of a registered server.
type ServerView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	CreatedAt time.Time `json:"created_at"`
}

func viewOf(s *models.Server) ServerView {
	return ServerView{ID: s.ID, Name: s.Name, Host: s.Host, CreatedAt: s.CreatedAt.UTC()}
}

type passwordRequest struct {
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Server    *ServerView `json:"server,omitempty"`
}

type sessionResponse struct {
	SessionID string     `json:"session_id"`
	ServerID  int64      `json:"server_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	Server    ServerView `json:"server"`
}

// clientIP keys lockout on the socket peer unless it is a trusted proxy.
func (s *Server) clientIP(r *http.Request) string {
	return s.proxies.ClientIP(r.RemoteAddr, r.Header.Get("X-Forwarded-For"))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Health handles GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListServers handles GET /v1/servers
func (s *Server) ListServers(w http.ResponseWriter, r *http.Request) {
	list, err := s.servers.List(r.Context())
	if err != nil {
		s.respondServiceError(r.Context(), w, err)
		return
	}

	out := make([]ServerView, 0, len(list))
	for _, srv := range list {
		out = append(out, viewOf(srv))
	}
	respondJSON(w, http.StatusOK, map[string]any{"servers": out})
}

// Authenticate handles POST /v1/servers/{id}/auth
func (s *Server) Authenticate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid server id")
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ip := s.clientIP(r)
	res, err := s.auth.Authenticate(r.Context(), id, req.Password, ip)
	if err != nil {
		s.logger.Warn(r.Context(), "authentication failed", "server_id", id, "ip", ip, "error", err)
		s.respondServiceError(r.Context(), w, err)
		return
	}

	s.logger.Info(r.Context(), "authenticated", "server_id", id, "ip", ip)
	view := viewOf(res.Server)
	respondJSON(w, http.StatusOK, tokenResponse{Token: res.Token, ExpiresAt: res.ExpiresAt.UTC(), Server: &view})
}

// Session handles GET /v1/session
func (s *Server) Session(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}

	sess, srv, err := s.auth.VerifySession(r.Context(), token)
	if err != nil {
		s.respondServiceError(r.Context(), w, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		SessionID: sess.ID,
		ServerID:  sess.ServerID,
		ExpiresAt: sess.ExpiresAt.UTC(),
		Server:    viewOf(srv),
	})
}

// IssueMasterToken handles POST /v1/admin/token
func (s *Server) IssueMasterToken(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ip := s.clientIP(r)
	token, exp, err := s.auth.IssueMasterToken(r.Context(), req.Password, ip)
	if err != nil {
		s.logger.Warn(r.Context(), "master token refused", "ip", ip, "error", err)
		s.respondServiceError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp.UTC()})
}
