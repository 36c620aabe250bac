package health

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported next to the overall "" entry
const ServiceName = "aura.v1.Backend"

// GRPCServer exposes the Checker through the standard grpc.health.v1 protocol
// so orchestrators can probe the service without HTTP.
type GRPCServer struct {
	server *grpc.Server
	health *grpchealth.Server
}

// NewGRPCServer wires a health server that follows checker's overall status
func NewGRPCServer(checker *Checker) *GRPCServer {
	s := &GRPCServer{
		server: grpc.NewServer(),
		health: grpchealth.NewServer(),
	}
	healthpb.RegisterHealthServer(s.server, s.health)

	s.setServing(checker.IsSystemHealthy())
	checker.OnChange(s.setServing)
	return s
}

func (s *GRPCServer) setServing(healthy bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if healthy {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve listens on addr until ctx is cancelled
func (s *GRPCServer) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.server.GracefulStop()
	}()

	return s.server.Serve(lis)
}
