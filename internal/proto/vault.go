// Package proto declares the ldbvault.v1.VaultService gRPC contract. Every
// method takes and returns a google.protobuf.Struct; the field names of each
// message are listed next to the method constants.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "ldbvault.v1.VaultService"

// Method names.
const (
	MethodPing                    = "Ping"                    // {} -> {status}
	MethodListServers             = "ListServers"             // {} -> {servers: [Server]}
	MethodAuthenticate            = "Authenticate"            // {server_id, password} -> {token, expires_at, server}
	MethodVerifySession           = "VerifySession"           // {} -> {session_id, server_id, expires_at, server}
	MethodCheckServer             = "CheckServer"             // {} -> {status}
	MethodIssueMasterToken        = "IssueMasterToken"        // {password} -> {token, expires_at}
	MethodRegisterServer          = "RegisterServer"          // {name, host, password, api_key} -> {server}
	MethodUpdateServerCredentials = "UpdateServerCredentials" // {server_id, password, api_key?} -> {}
	MethodDeleteServer            = "DeleteServer"            // {server_id} -> {}
	MethodExportBackup            = "ExportBackup"            // {} -> {key, servers}
	MethodImportBackup            = "ImportBackup"            // {key} -> {imported, skipped}
)

// FullMethod returns the wire name of method, e.g. "/ldbvault.v1.VaultService/Ping".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// VaultServiceServer is implemented by the server.
type VaultServiceServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListServers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Authenticate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifySession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckServer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IssueMasterToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterServer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateServerCredentials(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteServer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportBackup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImportBackup(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(VaultServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(VaultServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(VaultServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// VaultServiceDesc describes the service for grpc.Server.RegisterService.
var VaultServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, VaultServiceServer.Ping),
		unary(MethodListServers, VaultServiceServer.ListServers),
		unary(MethodAuthenticate, VaultServiceServer.Authenticate),
		unary(MethodVerifySession, VaultServiceServer.VerifySession),
		unary(MethodCheckServer, VaultServiceServer.CheckServer),
		unary(MethodIssueMasterToken, VaultServiceServer.IssueMasterToken),
		unary(MethodRegisterServer, VaultServiceServer.RegisterServer),
		unary(MethodUpdateServerCredentials, VaultServiceServer.UpdateServerCredentials),
		unary(MethodDeleteServer, VaultServiceServer.DeleteServer),
		unary(MethodExportBackup, VaultServiceServer.ExportBackup),
		unary(MethodImportBackup, VaultServiceServer.ImportBackup),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ldbvault/v1/vault.proto",
}

func RegisterVaultServiceServer(s grpc.ServiceRegistrar, srv VaultServiceServer) {
	s.RegisterService(&VaultServiceDesc, srv)
}

// VaultServiceClient calls the service over a client connection.
type VaultServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVaultServiceClient(cc grpc.ClientConnInterface) *VaultServiceClient {
	return &VaultServiceClient{cc: cc}
}

// Call invokes method with in. A nil in sends an empty message.
func (c *VaultServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
