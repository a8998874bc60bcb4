// Package client is a thin gRPC client for the vault service used by ldbctl.
package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	pb "github.com/dmitrijs2005/ldbvault/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

type caller interface {
	Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// Server is a registered server as seen by the client.
type Server struct {
	ID        int64
	Name      string
	Host      string
	CreatedAt time.Time
}

// Session is the outcome of a successful Authenticate or VerifySession.
type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
	Server    Server
}

type Client struct {
	conn         *grpc.ClientConn
	api          caller
	sessionToken string
	masterToken  string
}

// New connects to addr. Extra dial options are appended after the defaults.
func New(addr string, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{}
	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.tokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(addr, dial...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.api = pb.NewVaultServiceClient(conn)
	return c, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) SetSessionToken(token string) { c.sessionToken = token }
func (c *Client) SetMasterToken(token string)  { c.masterToken = token }

func withTokens(ctx context.Context, session, master string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	if session != "" {
		md.Set(common.AccessTokenHeaderName, session)
	}
	if master != "" {
		md.Set(common.MasterTokenHeaderName, master)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *Client) tokenInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	return invoker(withTokens(ctx, c.sessionToken, c.masterToken), method, req, reply, cc, opts...)
}

func (c *Client) call(ctx context.Context, method string, in map[string]any) (*structpb.Struct, error) {
	var msg *structpb.Struct
	if in != nil {
		msg = pb.Message(in)
	}
	out, err := c.api.Call(ctx, method, msg)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func serverOf(s *structpb.Struct) Server {
	id, _ := pb.Int64(s, "id")
	return Server{
		ID:        id,
		Name:      pb.String(s, "name"),
		Host:      pb.String(s, "host"),
		CreatedAt: pb.Time(s, "created_at"),
	}
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, pb.MethodPing, nil)
	return err
}

func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	out, err := c.call(ctx, pb.MethodListServers, nil)
	if err != nil {
		return nil, err
	}

	var list []Server
	for _, v := range out.GetFields()["servers"].GetListValue().GetValues() {
		list = append(list, serverOf(v.GetStructValue()))
	}
	return list, nil
}

// Authenticate logs into a server and keeps the session token for later calls.
func (c *Client) Authenticate(ctx context.Context, serverID int64, password string) (*Session, error) {
	out, err := c.call(ctx, pb.MethodAuthenticate, map[string]any{"server_id": serverID, "password": password})
	if err != nil {
		return nil, err
	}

	s := &Session{
		Token:     pb.String(out, "token"),
		ExpiresAt: pb.Time(out, "expires_at"),
		Server:    serverOf(out.GetFields()["server"].GetStructValue()),
	}
	c.sessionToken = s.Token
	return s, nil
}

func (c *Client) VerifySession(ctx context.Context) (*Session, error) {
	out, err := c.call(ctx, pb.MethodVerifySession, nil)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        pb.String(out, "session_id"),
		Token:     c.sessionToken,
		ExpiresAt: pb.Time(out, "expires_at"),
		Server:    serverOf(out.GetFields()["server"].GetStructValue()),
	}, nil
}

func (c *Client) CheckServer(ctx context.Context) error {
	_, err := c.call(ctx, pb.MethodCheckServer, nil)
	return err
}

// IssueMasterToken obtains a master token and keeps it for admin calls.
func (c *Client) IssueMasterToken(ctx context.Context, password string) (string, time.Time, error) {
	out, err := c.call(ctx, pb.MethodIssueMasterToken, map[string]any{"password": password})
	if err != nil {
		return "", time.Time{}, err
	}
	c.masterToken = pb.String(out, "token")
	return c.masterToken, pb.Time(out, "expires_at"), nil
}

func (c *Client) RegisterServer(ctx context.Context, name, host, password, apiKey string) (*Server, error) {
	out, err := c.call(ctx, pb.MethodRegisterServer, map[string]any{
		"name":     name,
		"host":     host,
		"password": password,
		"api_key":  apiKey,
	})
	if err != nil {
		return nil, err
	}
	s := serverOf(out.GetFields()["server"].GetStructValue())
	return &s, nil
}

// UpdateServerCredentials sets a new password. An empty apiKey keeps the current key.
func (c *Client) UpdateServerCredentials(ctx context.Context, serverID int64, password, apiKey string) error {
	in := map[string]any{"server_id": serverID, "password": password}
	if apiKey != "" {
		in["api_key"] = apiKey
	}
	_, err := c.call(ctx, pb.MethodUpdateServerCredentials, in)
	return err
}

func (c *Client) DeleteServer(ctx context.Context, serverID int64) error {
	_, err := c.call(ctx, pb.MethodDeleteServer, map[string]any{"server_id": serverID})
	return err
}

// ExportBackup returns the stored object key and the number of servers written.
func (c *Client) ExportBackup(ctx context.Context) (string, int, error) {
	out, err := c.call(ctx, pb.MethodExportBackup, nil)
	if err != nil {
		return "", 0, err
	}
	n, _ := pb.Int64(out, "servers")
	return pb.String(out, "key"), int(n), nil
}

func (c *Client) ImportBackup(ctx context.Context, key string) (imported, skipped []string, err error) {
	out, err := c.call(ctx, pb.MethodImportBackup, map[string]any{"key": key})
	if err != nil {
		return nil, nil, err
	}
	return pb.Strings(out, "imported"), pb.Strings(out, "skipped"), nil
}
