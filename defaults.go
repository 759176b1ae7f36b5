package culvers

import (
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/IronManRust/culvers-ice-cream-ical/policy"
)

// DefaultShutdownPeriod is how long Serve drains in-flight calls.
const DefaultShutdownPeriod = 10 * time.Second

// DefaultOptions returns the recommended middleware for production use:
// recovery, request IDs, call logging, and the default policy groups for
// rate limits and deadlines.
func DefaultOptions(log logger.Logger) []Option {
	r := policy.Default()
	return []Option{
		WithLogger(log),
		WithRecovery(),
		WithRequestID(),
		WithLogging(log.WithPrefix("[grpc]")),
		WithRateLimit(100, 200, r),
		WithTimeouts(time.Minute, r),
	}
}
