package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServiceName is the service name reported by the gRPC health server
// alongside the overall ("") status.
const HealthServiceName = "corrlog.CorrelationConfigService"

// NewGRPCServer creates a gRPC server with standard interceptors and
// registers the health service and reflection. The health status starts
// NOT_SERVING until MonitorHealth reports a successful ping.
func (s *Server) NewGRPCServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(s.logger),
			LoggingInterceptor(s.logger),
		),
		grpc.ChainStreamInterceptor(
			StreamRecoveryInterceptor(s.logger),
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return srv, hs
}

// MonitorHealth pings the store every interval and mirrors the result into
// hs until ctx is done. On return every service is marked NOT_SERVING.
func (s *Server) MonitorHealth(ctx context.Context, hs *health.Server, interval time.Duration) {
	check := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if s.health != nil {
			pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
			err := s.health.Ping(pingCtx)
			cancel()
			if err != nil {
				s.logger.Warn("store ping failed", "err", err)
				st = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(HealthServiceName, st)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			check()
		}
	}
}
