// Package grpc serves the standard gRPC health protocol for the storefront,
// reporting NOT_SERVING while any configured backend fails its ping.
package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "storefront"

// Check is one backend dependency the service needs to be healthy.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	checks     []Check
	log        *zap.Logger
}

func NewServer(log *zap.Logger, checks ...Check) *Server {
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)

	s := &Server{
		grpcServer: grpcServer,
		health:     hs,
		checks:     checks,
		log:        log,
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Serve(port string) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.ServeListener(lis)
}

func (s *Server) ServeListener(lis net.Listener) error {
	s.log.Info("grpc health server listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// Probe pings every check once and publishes the combined status.
func (s *Server) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for _, c := range s.checks {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Ping(pingCtx)
		cancel()
		if err != nil {
			s.log.Warn("health check failed", zap.String("backend", c.Name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(status)
	return status
}

// Watch probes on every tick until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// GracefulStop marks the service NOT_SERVING and drains open streams.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
