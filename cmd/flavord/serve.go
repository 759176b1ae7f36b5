package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	culvers "github.com/IronManRust/culvers-ice-cream-ical"
	"github.com/IronManRust/culvers-ice-cream-ical/model"
	"github.com/IronManRust/culvers-ice-cream-ical/policy"
	"github.com/IronManRust/culvers-ice-cream-ical/rpc"
	"github.com/IronManRust/culvers-ice-cream-ical/tracing"
	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flavor service over gRPC with a Prometheus metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, serve)
		},
	}
	return cmd
}

func serve(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := a.log
	pol := policy.Default()
	opts := []culvers.Option{
		culvers.WithLogger(log),
		culvers.WithRecovery(),
		culvers.WithRequestID(),
		culvers.WithLogging(log.WithPrefix("[grpc]")),
		culvers.WithRateLimit(a.cfg.Server.RateLimit, a.cfg.Server.RateBurst, pol),
		culvers.WithTimeouts(a.cfg.Server.RequestTimeout.Std(), pol),
		culvers.WithShutdownPeriod(a.cfg.Server.ShutdownPeriod.Std()),
	}

	if a.cfg.Server.Trace {
		tp, err := tracing.NewStdoutProvider(os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(sctx)
		}()
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.TraceContext{})
		opts = append(opts, culvers.WithOpenTelemetry(&tracing.TracingConfig{TracerProvider: tp}))
	}

	srv := culvers.NewServer(opts...)
	srv.RegisterFlavorService(rpc.NewHandler(a.svc))

	lis, err := net.Listen("tcp", a.cfg.Server.Addr())
	if err != nil {
		return errors.Wrapf(err, "listen on %s", a.cfg.Server.Addr())
	}

	warm := func() {
		_ = a.svc.Warm(ctx)
		srv.SetServing(a.svc.Status(ctx).Health != model.Unhealthy)
	}

	sched := cron.New()
	if spec := a.cfg.Warm.Schedule; spec != "" {
		if _, err := sched.AddFunc(spec, warm); err != nil {
			_ = lis.Close()
			return errors.Wrapf(err, "warm schedule %q", spec)
		}
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	if a.cfg.Warm.OnStart {
		go warm()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, lis)
	})

	if addr := a.cfg.Server.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", srv.MetricsHandler())
		hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("metrics on %s/metrics", addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownPeriod.Std())
			defer cancel()
			return hs.Shutdown(sctx)
		})
	}

	err = g.Wait()
	log.Info("stopped")
	return err
}
