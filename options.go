package culvers

import (
	"fmt"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/interceptors"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/IronManRust/culvers-ice-cream-ical/policy"
	"github.com/IronManRust/culvers-ice-cream-ical/ratelimit"
	"github.com/IronManRust/culvers-ice-cream-ical/tracing"
	"google.golang.org/grpc"
)

// Option configures a Server.
type Option func(*config)

// WithUnaryInterceptor appends a unary server interceptor after the built-in
// middleware. Custom interceptors run in the order they are passed.
func WithUnaryInterceptor(i grpc.UnaryServerInterceptor) Option {
	return func(c *config) {
		c.middlewares.Add(orderUser, fmt.Sprintf("user-%d", c.userCount), i)
		c.userCount++
	}
}

// WithServerOption passes a raw grpc.ServerOption through to grpc.NewServer.
func WithServerOption(o grpc.ServerOption) Option {
	return func(c *config) {
		c.serverOptions = append(c.serverOptions, o)
	}
}

// WithLogger sets the logger used for panic reports and lifecycle messages.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithRecovery turns handler panics into codes.Internal instead of crashing
// the process and reports them to the server logger. It always runs first.
func WithRecovery() Option {
	return func(c *config) {
		c.recovery = true
	}
}

// WithRequestID ensures every call carries a request ID, taken from the
// x-request-id metadata when the caller sends one.
func WithRequestID() Option {
	return func(c *config) {
		c.middlewares.Add(orderRequestID, "requestid", interceptors.RequestIDUnary())
	}
}

// WithOpenTelemetry opens a server span per call.
func WithOpenTelemetry(cfg *tracing.TracingConfig) Option {
	return func(c *config) {
		c.middlewares.Add(orderTracing, "tracing", tracing.UnaryServerInterceptor(cfg))
	}
}

// WithLogging writes one line per completed call to l.
func WithLogging(l logger.Logger) Option {
	return func(c *config) {
		c.middlewares.Add(orderLogging, "logging", interceptors.LoggingUnary(l))
	}
}

// WithRateLimit rejects calls with ResourceExhausted once the applicable
// limiter is drained. Methods whose policy group carries a RateLimit rule use
// a per-group limiter; everything else shares a global limiter refilling at
// rps with the given burst. A non-positive rps leaves unmatched methods
// unlimited.
func WithRateLimit(rps float64, burst int, r *policy.Resolver) Option {
	return func(c *config) {
		var global *ratelimit.Limiter
		if rps > 0 {
			global = ratelimit.NewLimiter(rps, burst)
		}
		c.middlewares.Add(orderRateLimit, "ratelimit", interceptors.RateLimitUnary(global, r))
	}
}

// WithTimeouts bounds each call with a deadline: the policy group's Timeout
// when one resolves, def otherwise.
func WithTimeouts(def time.Duration, r *policy.Resolver) Option {
	return func(c *config) {
		c.middlewares.Add(orderTimeout, "timeout", interceptors.TimeoutUnary(def, r))
	}
}

// WithShutdownPeriod bounds how long Serve waits for in-flight calls after
// its context is cancelled before forcing the server to stop.
func WithShutdownPeriod(d time.Duration) Option {
	return func(c *config) {
		c.shutdownPeriod = d
	}
}

func (c *config) logger() logger.Logger {
	if c.log == nil {
		return logger.Nop()
	}
	return c.log
}
