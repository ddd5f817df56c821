// Package forecastv1 declares the ForecastEngine gRPC service. Payloads are
// google.protobuf.Struct documents whose fields mirror the JSON shapes in
// internal/models, so no generated message types are needed.
package forecastv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "mirador.forecast.v1.ForecastEngine"

	FitRetentionMethod = "/" + ServiceName + "/FitRetention"
	ForecastMethod     = "/" + ServiceName + "/Forecast"
	LifetimeMethod     = "/" + ServiceName + "/Lifetime"
	HealthCheckMethod  = "/" + ServiceName + "/HealthCheck"
)

// ForecastEngineServer is the server API for the ForecastEngine service.
type ForecastEngineServer interface {
	FitRetention(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Forecast(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Lifetime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	HealthCheck(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedForecastEngineServer can be embedded for forward compatibility.
type UnimplementedForecastEngineServer struct{}

func (UnimplementedForecastEngineServer) FitRetention(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method FitRetention not implemented")
}

func (UnimplementedForecastEngineServer) Forecast(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Forecast not implemented")
}

func (UnimplementedForecastEngineServer) Lifetime(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Lifetime not implemented")
}

func (UnimplementedForecastEngineServer) HealthCheck(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method HealthCheck not implemented")
}

// RegisterForecastEngineServer registers srv on the supplied registrar.
func RegisterForecastEngineServer(s grpc.ServiceRegistrar, srv ForecastEngineServer) {
	s.RegisterService(&ForecastEngineServiceDesc, srv)
}

type unaryCall func(ForecastEngineServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ForecastEngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ForecastEngineServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ForecastEngineServiceDesc is the grpc.ServiceDesc for the ForecastEngine service.
var ForecastEngineServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ForecastEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "FitRetention",
			Handler:    unaryHandler(FitRetentionMethod, ForecastEngineServer.FitRetention),
		},
		{
			MethodName: "Forecast",
			Handler:    unaryHandler(ForecastMethod, ForecastEngineServer.Forecast),
		},
		{
			MethodName: "Lifetime",
			Handler:    unaryHandler(LifetimeMethod, ForecastEngineServer.Lifetime),
		},
		{
			MethodName: "HealthCheck",
			Handler:    unaryHandler(HealthCheckMethod, ForecastEngineServer.HealthCheck),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mirador/forecast/v1/forecast.proto",
}

// ForecastEngineClient is the client API for the ForecastEngine service.
type ForecastEngineClient interface {
	FitRetention(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Forecast(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Lifetime(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	HealthCheck(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type forecastEngineClient struct {
	cc grpc.ClientConnInterface
}

// NewForecastEngineClient wraps a client connection.
func NewForecastEngineClient(cc grpc.ClientConnInterface) ForecastEngineClient {
	return &forecastEngineClient{cc: cc}
}

func (c *forecastEngineClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *forecastEngineClient) FitRetention(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, FitRetentionMethod, in, opts)
}

func (c *forecastEngineClient) Forecast(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ForecastMethod, in, opts)
}

func (c *forecastEngineClient) Lifetime(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LifetimeMethod, in, opts)
}

func (c *forecastEngineClient) HealthCheck(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, HealthCheckMethod, in, opts)
}
