package httpapi

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vinodhj/cf-jwt-auth/internal/obs"
)

const grpcServiceName = "cf-jwt-auth"

// GRPCServer exposes the standard grpc.health.v1 service so orchestrators
// can probe over gRPC as well as HTTP. Status tracks the same ReadyProbe
// the /readyz handler uses.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	probe  ReadyProbe
}

func NewGRPCServer(probe ReadyProbe) *GRPCServer {
	s := &GRPCServer{
		server: grpc.NewServer(),
		health: health.NewServer(),
		probe:  probe,
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve blocks on the listener until Stop is called.
func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// WatchReadiness re-checks the probe on the given interval and mirrors the
// result into the health service until ctx is done.
func (s *GRPCServer) WatchReadiness(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := s.probe.Check(checkCtx)
			cancel()
			if err != nil {
				obs.SetReady(false)
				s.health.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
				continue
			}
			obs.SetReady(true)
			s.health.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
		}
	}
}

// Stop drains in-flight RPCs and shuts the server down.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
