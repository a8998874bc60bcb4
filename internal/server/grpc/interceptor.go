package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/dmitrijs2005/ldbvault/internal/logging"
	pb "github.com/dmitrijs2005/ldbvault/internal/proto"
	"github.com/dmitrijs2005/ldbvault/internal/server/auth"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type access int

const (
	accessPublic access = iota
	accessSession
	accessMaster
)

var methodAccess = map[string]access{
	pb.FullMethod(pb.MethodVerifySession):           accessSession,
	pb.FullMethod(pb.MethodCheckServer):             accessSession,
	pb.FullMethod(pb.MethodRegisterServer):          accessMaster,
	pb.FullMethod(pb.MethodUpdateServerCredentials): accessMaster,
	pb.FullMethod(pb.MethodDeleteServer):            accessMaster,
	pb.FullMethod(pb.MethodExportBackup):            accessMaster,
	pb.FullMethod(pb.MethodImportBackup):            accessMaster,
}

type ctxKey string

const (
	sessionKey ctxKey = "session"
	serverKey  ctxKey = "server"
)

func sessionFromContext(ctx context.Context) (*auth.Session, *models.Server, bool) {
	sess, ok1 := ctx.Value(sessionKey).(*auth.Session)
	srv, ok2 := ctx.Value(serverKey).(*models.Server)
	return sess, srv, ok1 && ok2
}

func metadataValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// clientIP is the peer address. x-forwarded-for is read only when the peer
// is a trusted proxy.
func (s *GRPCServer) clientIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	return s.proxies.ClientIP(p.Addr.String(), metadataValue(ctx, common.ForwardedForHeaderName))
}

func (s *GRPCServer) accessInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	switch methodAccess[info.FullMethod] {
	case accessSession:
		token := metadataValue(ctx, common.AccessTokenHeaderName)
		if token == "" {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}
		sess, srv, err := s.auth.VerifySession(ctx, token)
		if err != nil {
			return nil, s.toStatus(ctx, err)
		}
		ctx = context.WithValue(ctx, sessionKey, sess)
		ctx = context.WithValue(ctx, serverKey, srv)

	case accessMaster:
		if err := s.auth.VerifyMaster(metadataValue(ctx, common.MasterTokenHeaderName)); err != nil {
			return nil, s.toStatus(ctx, err)
		}
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	ctx = logging.WithFields(ctx, "method", info.FullMethod)
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc", "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}
