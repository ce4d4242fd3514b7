// Package grpchealth exposes the standard gRPC health service for
// orchestrators. Serving status follows a periodic database ping.
package grpchealth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the named service reported alongside the overall ("") status.
const ServiceName = "smagents.landing.Chat"

const (
	defaultCheckInterval = 15 * time.Second
	defaultCheckTimeout  = 3 * time.Second
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps a gRPC server with the health service registered.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a health server. Status starts as NOT_SERVING until the first
// check succeeds.
func New(db Pinger, interval time.Duration, logger *slog.Logger) *Server {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	gs := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)

	s := &Server{
		grpc:     gs,
		health:   hs,
		db:       db,
		interval: interval,
		timeout:  defaultCheckTimeout,
		logger:   logger,
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve checks the database and serves health checks on lis until ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.check(ctx)
	go s.checkLoop(ctx)

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}()

	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc health serve: %w", err)
	}
	return nil
}

// ListenAndServe binds addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc health listen %s: %w", addr, err)
	}
	s.logger.Info("gRPC health server starting", "addr", lis.Addr().String())
	return s.Serve(ctx, lis)
}

func (s *Server) checkLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Server) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.Ping(pingCtx); err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Health check failed", "error", err)
		}
		s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
}

func (s *Server) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
