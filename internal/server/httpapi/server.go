// Package httpapi serves the browser dashboard API over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/logging"
	"github.com/dmitrijs2005/ldbvault/internal/netx"
	"github.com/dmitrijs2005/ldbvault/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	address string
	auth    services.Authenticator
	servers services.ServerRegistry
	origins []string
	proxies *netx.TrustedProxies
	logger  logging.Logger
}

func NewServer(addr string, l logging.Logger, as services.Authenticator, ss services.ServerRegistry, origins []string) *Server {
	return &Server{
		address: addr,
		auth:    as,
		servers: ss,
		origins: origins,
		logger:  l.With("module", "http_server"),
	}
}

// WithTrustedProxies lets X-Forwarded-For through when the socket peer is one of p.
func (s *Server) WithTrustedProxies(p *netx.TrustedProxies) *Server {
	s.proxies = p
	return s
}

// Router builds the route tree.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/servers", s.ListServers)
		r.Post("/servers/{id}/auth", s.Authenticate)
		r.Get("/session", s.Session)
		r.Post("/admin/token", s.IssueMasterToken)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithFields(r.Context(), "request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		s.logger.Debug(ctx, "http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// Run serves until ctx is done, then shuts down with a five second grace.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
