// Package grpc exposes the vault services as ldbvault.v1.VaultService.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/ldbvault/internal/logging"
	"github.com/dmitrijs2005/ldbvault/internal/netx"
	pb "github.com/dmitrijs2005/ldbvault/internal/proto"
	"github.com/dmitrijs2005/ldbvault/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address string
	auth    services.Authenticator
	servers services.ServerRegistry
	backups services.BackupManager
	proxies *netx.TrustedProxies
	logger  logging.Logger
}

var _ pb.VaultServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, as services.Authenticator, ss services.ServerRegistry, bs services.BackupManager) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
		servers: ss,
		backups: bs,
	}
}

// WithTrustedProxies lets x-forwarded-for through when the peer is one of p.
func (s *GRPCServer) WithTrustedProxies(p *netx.TrustedProxies) *GRPCServer {
	s.proxies = p
	return s
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessInterceptor))
	pb.RegisterVaultServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
