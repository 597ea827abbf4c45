package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// HealthServiceName is the gRPC health service name reported alongside the
// overall ("") status.
const HealthServiceName = "translateapi"

// HealthChecker is anything that can report backend readiness.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// GRPCHealthServer exposes the standard grpc.health.v1 service so orchestrators
// can probe the translation backend over gRPC.
type GRPCHealthServer struct {
	server   *grpc.Server
	health   *health.Server
	checker  HealthChecker
	interval time.Duration
	logger   *logrus.Logger
}

// NewGRPCHealthServer creates the gRPC server with health and reflection
// services registered. Status starts as NOT_SERVING until the first probe.
func NewGRPCHealthServer(checker HealthChecker, interval time.Duration, logger *logrus.Logger) *GRPCHealthServer {
	if logger == nil {
		logger = logrus.New()
	}

	s := grpc.NewServer(
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              30 * time.Second,
			Timeout:           10 * time.Second,
		}),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(HealthServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Enable reflection for grpcurl/debugging
	reflection.Register(s)

	return &GRPCHealthServer{
		server:   s,
		health:   healthServer,
		checker:  checker,
		interval: interval,
		logger:   logger,
	}
}

// Serve serves gRPC on lis until Stop.
func (g *GRPCHealthServer) Serve(lis net.Listener) error {
	g.logger.WithFields(logrus.Fields{
		"addr": lis.Addr().String(),
	}).Info("gRPC health server listening")

	if err := g.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Probe runs one backend health check and publishes the result.
func (g *GRPCHealthServer) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	err := g.checker.CheckHealth(ctx)
	if err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		g.logger.WithError(err).Warn("Translator health probe failed")
	}

	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(HealthServiceName, status)
	return err == nil
}

// Run probes immediately and then every interval until ctx is done.
func (g *GRPCHealthServer) Run(ctx context.Context) {
	g.Probe(ctx)

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Stop marks every service NOT_SERVING and stops gracefully, forcing the
// stop once ctx expires.
func (g *GRPCHealthServer) Stop(ctx context.Context) {
	g.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		g.logger.Info("gRPC health server stopped gracefully")
	case <-ctx.Done():
		g.logger.Warn("Graceful shutdown timeout, forcing stop...")
		g.server.Stop()
	}
}
