package monitor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "climatealarm.v1.MonitorService"

// Full method names.
const (
	GetStatusMethod  = "/" + ServiceName + "/GetStatus"
	ToggleUnitMethod = "/" + ServiceName + "/ToggleUnit"
	GetHistoryMethod = "/" + ServiceName + "/GetHistory"
)

// MonitorServiceServer is the server API.
type MonitorServiceServer interface {
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ToggleUnit(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes MonitorService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{ //nolint:gochecknoglobals // Same shape protoc-gen-go-grpc emits.
	ServiceName: ServiceName,
	HandlerType: (*MonitorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler: unaryHandler(GetStatusMethod, new(emptypb.Empty),
				func(s MonitorServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
					return s.GetStatus(ctx, in)
				}),
		},
		{
			MethodName: "ToggleUnit",
			Handler: unaryHandler(ToggleUnitMethod, new(structpb.Struct),
				func(s MonitorServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
					return s.ToggleUnit(ctx, in)
				}),
		},
		{
			MethodName: "GetHistory",
			Handler: unaryHandler(GetHistoryMethod, new(structpb.Struct),
				func(s MonitorServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
					return s.GetHistory(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "climatealarm/v1/monitor.proto",
}

// RegisterMonitorServiceServer registers srv on r.
func RegisterMonitorServiceServer(r grpc.ServiceRegistrar, srv MonitorServiceServer) {
	r.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed call to grpc.MethodHandler. prototype is only
// used for its type; every request gets a fresh message.
func unaryHandler[Req proto.Message](
	method string,
	prototype Req,
	call func(MonitorServiceServer, context.Context, Req) (any, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in, _ := prototype.ProtoReflect().New().Interface().(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(MonitorServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}

		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(Req)

			return call(server, ctx, typed)
		})
	}
}

// MonitorServiceClient is the client API.
type MonitorServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewMonitorServiceClient binds a client to cc.
func NewMonitorServiceClient(cc grpc.ClientConnInterface) *MonitorServiceClient {
	return &MonitorServiceClient{cc: cc}
}

// GetStatus calls MonitorService.GetStatus.
func (c *MonitorServiceClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ToggleUnit calls MonitorService.ToggleUnit.
func (c *MonitorServiceClient) ToggleUnit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, ToggleUnitMethod, in, new(emptypb.Empty), opts...)
}

// GetHistory calls MonitorService.GetHistory.
func (c *MonitorServiceClient) GetHistory(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetHistoryMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
