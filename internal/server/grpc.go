package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// NewAdminServer returns a gRPC server exposing only the standard health service,
// for orchestrators that probe over gRPC.
func NewAdminServer(logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(logger)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	// empty string means overall server health
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return srv, hs
}

// WatchHealth flips the gRPC health status to follow the database until ctx ends.
func WatchHealth(ctx context.Context, hs *health.Server, db HealthChecker, every time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	check := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if err := db.HealthCheck(ctx, 3*time.Second); err != nil {
			logger.Warn("grpc.health.db.failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", st)
	}
	check()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			check()
		}
	}
}

func unaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc.request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
