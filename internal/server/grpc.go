package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"device-maintenance/backend/internal/health"
	healthhandler "device-maintenance/backend/internal/health/handler"
)

// NewGRPCServer returns a gRPC server instrumented with OpenTelemetry and serving
// grpc.health.v1.Health from checker.
func NewGRPCServer(checker *health.Checker, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, checker)
	return s
}

// RegisterServices registers the gRPC services with s.
func RegisterServices(s grpc.ServiceRegistrar, checker *health.Checker) {
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(checker))
}
