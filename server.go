package culvers

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/interceptors"
	"github.com/IronManRust/culvers-ice-cream-ical/internal/core"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/IronManRust/culvers-ice-cream-ical/rpc"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server wraps a [grpc.Server] with the interceptor chain built from the
// [Option] values passed to [NewServer] and a standard health service.
type Server struct {
	grpcServer     *grpc.Server
	health         *health.Server
	log            logger.Logger
	shutdownPeriod time.Duration
	middleware     []string
}

// NewServer applies opts and wires the resulting interceptor chain into
// [grpc.NewServer]. Execution order follows fixed priorities, not the
// order options are passed.
func NewServer(opts ...Option) *Server {
	cfg := config{shutdownPeriod: DefaultShutdownPeriod}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.recovery {
		cfg.middlewares.Add(orderRecovery, "recovery", interceptors.RecoveryUnary(cfg.logger()))
	}

	serverOpts := core.BuildServerOptions(cfg.middlewares.Build(), interceptors.ChainUnary, cfg.serverOptions...)
	gs := grpc.NewServer(serverOpts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		grpcServer:     gs,
		health:         hs,
		log:            cfg.logger().WithPrefix("[server]"),
		shutdownPeriod: cfg.shutdownPeriod,
		middleware:     cfg.middlewares.Names(),
	}
}

// GRPC returns the underlying *grpc.Server so callers can register services.
func (s *Server) GRPC() *grpc.Server {
	return s.grpcServer
}

// Middleware returns the names of the installed interceptors in execution
// order.
func (s *Server) Middleware() []string {
	return s.middleware
}

// RegisterFlavorService registers h as fotd.FlavorService and marks it as
// serving in the health service.
func (s *Server) RegisterFlavorService(h rpc.Handler) {
	rpc.Register(s.grpcServer, h)
	s.health.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// SetServing flips the overall and flavor service health status.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(rpc.ServiceName, st)
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func (s *Server) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Serve accepts connections on lis until ctx is cancelled, then drains
// in-flight calls for up to the shutdown period before forcing a stop.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(lis)
	}()
	s.log.Info("listening on %s", lis.Addr())

	select {
	case err := <-errCh:
		return errors.Wrap(err, "grpc serve")
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	timer := time.NewTimer(s.shutdownPeriod)
	defer timer.Stop()
	select {
	case <-stopped:
	case <-timer.C:
		s.log.Warn("graceful stop timed out after %s, forcing", s.shutdownPeriod)
		s.grpcServer.Stop()
		<-stopped
	}

	if err := <-errCh; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return errors.Wrap(err, "grpc serve")
	}
	return nil
}
