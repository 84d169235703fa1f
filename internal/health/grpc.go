package health

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes monitor reports through the standard grpc.health.v1 service.
//
// The empty service name carries the overall status; each indicator is also
// published under its own name.
type GRPCServer struct {
	addr   string
	srv    *grpc.Server
	health *grpchealth.Server
}

// NewGRPCServer creates a gRPC server with the health service registered.
func NewGRPCServer(port int) *GRPCServer {
	srv := grpc.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCServer{
		addr:   fmt.Sprintf(":%d", port),
		srv:    srv,
		health: hs,
	}
}

// Apply publishes a report's statuses to the health service.
func (g *GRPCServer) Apply(report *Report) {
	if report == nil {
		return
	}
	g.health.SetServingStatus("", servingStatus(report.Status))
	for name, ind := range report.Indicators {
		g.health.SetServingStatus(name, servingStatus(ind.Status))
	}
}

// HealthServer returns the underlying health service implementation.
func (g *GRPCServer) HealthServer() healthpb.HealthServer {
	return g.health
}

// Start listens and serves until Stop is called.
func (g *GRPCServer) Start() error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.addr, err)
	}
	return g.srv.Serve(lis)
}

// Stop drains in-flight RPCs, forcing a stop when ctx expires first.
func (g *GRPCServer) Stop(ctx context.Context) error {
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.srv.Stop()
		return ctx.Err()
	}
}

func servingStatus(s Status) healthpb.HealthCheckResponse_ServingStatus {
	switch s {
	case StatusGreen, StatusYellow:
		return healthpb.HealthCheckResponse_SERVING
	default:
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
}
