// Package instance implements the control endpoint every workload instance
// exposes: a status query and a metrics query, served over gRPC.
package instance

import (
	"context"

	"google.golang.org/grpc"

	"mesh-worker-go/internal/domain"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "proto.InstanceControl"

const (
	methodStatus  = "GetFunctionStatus"
	methodMetrics = "GetMetrics"
)

// StatusRequest asks an instance for its status.
type StatusRequest struct{}

// MetricsRequest asks an instance for its metrics.
type MetricsRequest struct{}

// InstanceControlServer is implemented by an instance runtime.
type InstanceControlServer interface {
	GetFunctionStatus(ctx context.Context, req *StatusRequest) (*domain.StatusReport, error)
	GetMetrics(ctx context.Context, req *MetricsRequest) (*domain.MetricsReport, error)
}

// ServiceDesc describes the InstanceControl service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InstanceControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodStatus, Handler: statusHandler},
		{MethodName: methodMetrics, Handler: metricsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "instance_control",
}

// RegisterInstanceControlServer registers srv on s.
func RegisterInstanceControlServer(s grpc.ServiceRegistrar, srv InstanceControlServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// NewServer returns a gRPC server that speaks the JSON codec.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	return grpc.NewServer(append([]grpc.ServerOption{grpc.ForceServerCodec(jsonCodec{})}, opts...)...)
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InstanceControlServer).GetFunctionStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(methodStatus)}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InstanceControlServer).GetFunctionStatus(ctx, req.(*StatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func metricsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(MetricsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InstanceControlServer).GetMetrics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(methodMetrics)}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InstanceControlServer).GetMetrics(ctx, req.(*MetricsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}
