package culvers

import (
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/internal/core"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"google.golang.org/grpc"
)

// Fixed interceptor priorities. Lower values run first, regardless of the
// order in which options are passed.
const (
	orderRecovery  = 100
	orderRequestID = 200
	orderTracing   = 300
	orderLogging   = 400
	orderRateLimit = 500
	orderTimeout   = 600
	orderUser      = 1000
)

// config holds the internal configuration assembled via functional options.
type config struct {
	middlewares    core.MiddlewareBuilder
	serverOptions  []grpc.ServerOption
	log            logger.Logger
	shutdownPeriod time.Duration
	userCount      int
	recovery       bool
}
