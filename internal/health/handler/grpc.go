package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"device-maintenance/backend/internal/health"
)

// Server implements grpc.health.v1.Health for load balancers and orchestrators.
// The service name in requests is ignored; every name reports overall readiness.
type Server struct {
	healthpb.UnimplementedHealthServer
	checker *health.Checker
}

// NewServer returns a Health gRPC server backed by checker. A nil checker always reports SERVING.
func NewServer(checker *health.Checker) *Server {
	return &Server{checker: checker}
}

// Check returns SERVING when all readiness checks pass and NOT_SERVING otherwise.
// Dependency failures never surface as gRPC errors.
func (s *Server) Check(ctx context.Context, _ *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if s.checker == nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
	}
	report := s.checker.Check(ctx)
	if !report.Healthy() {
		log.Warn().Str("component", "health").Interface("checks", report.Checks).Msg("readiness check failed")
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

// Watch is not supported; clients poll Check.
func (s *Server) Watch(*healthpb.HealthCheckRequest, healthpb.Health_WatchServer) error {
	return status.Error(codes.Unimplemented, "watch is not supported")
}
