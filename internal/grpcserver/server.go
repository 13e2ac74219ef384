// Package grpcserver exposes the grpc.health.v1 service for lootd.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	// ServiceName is the health service name reported alongside the overall "" status.
	ServiceName         = "lootd"
	defaultCheckEvery   = 10 * time.Second
	defaultCheckTimeout = 2 * time.Second
	shutdownGrace       = 5 * time.Second
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer publishes SERVING while the pinger succeeds.
type HealthServer struct {
	health     *health.Server
	pinger     Pinger
	logger     *zap.Logger
	checkEvery time.Duration
}

// NewHealthServer builds a health server; checkEvery <= 0 uses the default interval.
func NewHealthServer(pinger Pinger, logger *zap.Logger, checkEvery time.Duration) *HealthServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkEvery <= 0 {
		checkEvery = defaultCheckEvery
	}
	return &HealthServer{
		health:     health.NewServer(),
		pinger:     pinger,
		logger:     logger,
		checkEvery: checkEvery,
	}
}

// Check runs one readiness probe and publishes the result.
func (server *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	checkCtx, cancel := context.WithTimeout(ctx, defaultCheckTimeout)
	defer cancel()
	status := healthpb.HealthCheckResponse_SERVING
	if err := server.pinger.Ping(checkCtx); err != nil {
		server.logger.Warn("health check failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	server.health.SetServingStatus("", status)
	server.health.SetServingStatus(ServiceName, status)
	return status
}

// Register attaches the health service to a gRPC server.
func (server *HealthServer) Register(registrar grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(registrar, server.health)
}

// Serve listens on addr until ctx is cancelled, probing the pinger periodically.
func (server *HealthServer) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(RecoverUnary(server.logger)))
	server.Register(grpcServer)
	server.Check(ctx)

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("grpc health listening", zap.String("addr", addr))
		errCh <- grpcServer.Serve(listener)
	}()

	ticker := time.NewTicker(server.checkEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			server.Check(ctx)
		case <-ctx.Done():
			server.health.Shutdown()
			done := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(shutdownGrace):
				grpcServer.Stop()
			}
			return nil
		case serveErr := <-errCh:
			if errors.Is(serveErr, grpc.ErrServerStopped) {
				return nil
			}
			return serveErr
		}
	}
}
