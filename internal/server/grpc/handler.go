package grpc

import (
	"context"
	"time"

	pb "github.com/dmitrijs2005/ldbvault/internal/proto"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"github.com/dmitrijs2005/ldbvault/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func serverFields(srv *models.Server) map[string]any {
	return map[string]any{
		"id":         srv.ID,
		"name":       srv.Name,
		"host":       srv.Host,
		"created_at": srv.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func requireID(req *structpb.Struct) (int64, error) {
	id, err := pb.Int64(req, "server_id")
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, err.Error())
	}
	return id, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return pb.Message(map[string]any{"status": "OK"}), nil
}

func (s *GRPCServer) ListServers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.servers.List(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out := make([]any, 0, len(list))
	for _, srv := range list {
		out = append(out, serverFields(srv))
	}
	return pb.Message(map[string]any{"servers": out}), nil
}

func (s *GRPCServer) Authenticate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	ip := s.clientIP(ctx)

	res, err := s.auth.Authenticate(ctx, id, pb.String(req, "password"), ip)
	if err != nil {
		s.logger.Warn(ctx, "authentication failed", "server_id", id, "ip", ip, "error", err)
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "authenticated", "server_id", id, "ip", ip)
	return pb.Message(map[string]any{
		"token":      res.Token,
		"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339),
		"server":     serverFields(res.Server),
	}), nil
}

func (s *GRPCServer) VerifySession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, srv, ok := sessionFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no session")
	}
	return pb.Message(map[string]any{
		"session_id": sess.ID,
		"server_id":  sess.ServerID,
		"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
		"server":     serverFields(srv),
	}), nil
}

func (s *GRPCServer) CheckServer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, _, ok := sessionFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no session")
	}
	if err := s.servers.Check(ctx, sess.ServerID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return pb.Message(map[string]any{"status": "OK"}), nil
}

func (s *GRPCServer) IssueMasterToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ip := s.clientIP(ctx)
	token, exp, err := s.auth.IssueMasterToken(ctx, pb.String(req, "password"), ip)
	if err != nil {
		s.logger.Warn(ctx, "master token refused", "ip", ip, "error", err)
		return nil, s.toStatus(ctx, err)
	}
	return pb.Message(map[string]any{
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	}), nil
}

func (s *GRPCServer) RegisterServer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	srv, err := s.servers.Register(ctx, services.RegisterInput{
		Name:     pb.String(req, "name"),
		Host:     pb.String(req, "host"),
		Password: pb.String(req, "password"),
		APIKey:   pb.String(req, "api_key"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "server registered", "server_id", srv.ID, "name", srv.Name)
	return pb.Message(map[string]any{"server": serverFields(srv)}), nil
}

func (s *GRPCServer) UpdateServerCredentials(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	if err := s.servers.UpdateCredentials(ctx, id, pb.String(req, "password"), pb.String(req, "api_key")); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "server credentials updated", "server_id", id)
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) DeleteServer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, err
	}
	if err := s.servers.Delete(ctx, id); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "server deleted", "server_id", id)
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) ExportBackup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key, backup, err := s.backups.Export(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "backup exported", "key", key, "servers", len(backup.Servers))
	return pb.Message(map[string]any{"key": key, "servers": len(backup.Servers)}), nil
}

func (s *GRPCServer) ImportBackup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key := pb.String(req, "key")
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key: missing")
	}

	res, err := s.backups.Import(ctx, key)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "backup imported", "key", key, "imported", len(res.Imported), "skipped", len(res.Skipped))
	return pb.Message(map[string]any{
		"imported": pb.StringList(res.Imported),
		"skipped":  pb.StringList(res.Skipped),
	}), nil
}
