// Package breaker provides a minimal, thread-safe circuit breaker that guards
// calls to the upstream flavor source.
//
// States:
//   - Closed: requests flow normally; failures are counted.
//   - Open: requests are blocked; after OpenTimeout the breaker transitions to HalfOpen.
//   - HalfOpen: a limited number of probe requests are allowed through;
//     if all succeed the breaker closes, any failure reopens it.
package breaker

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrOpen is returned by Call when the breaker rejects a request.
var ErrOpen = errors.New("circuit breaker is open")

var transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "flavord_breaker_transitions_total",
	Help: "Circuit breaker state transitions by target state.",
}, []string{"to"})

// State represents the current circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds the circuit breaker parameters.
type Config struct {
	// FailureThreshold is the number of consecutive failures in Closed state
	// before the breaker trips to Open.
	FailureThreshold int

	// OpenTimeout is how long the breaker stays Open before transitioning
	// to HalfOpen.
	OpenTimeout time.Duration

	// HalfOpenMaxSuccess is the number of consecutive successes required in
	// HalfOpen state to close the breaker again.
	HalfOpenMaxSuccess int

	// IsFailure decides which errors returned through Call count against the
	// breaker. Nil counts every error.
	IsFailure func(error) bool

	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(from, to State)
}

// DefaultConfig trips after five consecutive failures and probes again
// after thirty seconds.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:   5,
		OpenTimeout:        30 * time.Second,
		HalfOpenMaxSuccess: 1,
	}
}

// Breaker is a minimal circuit breaker. All methods are safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state     State
	failures  int // consecutive failures in Closed
	successes int // consecutive successes in HalfOpen
	openedAt  time.Time
	nowFunc   func() time.Time // for testing; defaults to time.Now
}

// New creates a Breaker with the given configuration.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	if cfg.HalfOpenMaxSuccess < 1 {
		cfg.HalfOpenMaxSuccess = 1
	}
	return &Breaker{
		cfg:     cfg,
		state:   Closed,
		nowFunc: time.Now,
	}
}

// State returns the current state of the breaker. In Open state it may
// auto-transition to HalfOpen if the timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	from := b.state
	b.checkOpenTimeout()
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
	return to
}

// Allow reports whether a request is allowed through. It returns true when the
// breaker is Closed, or HalfOpen with remaining probe slots. It returns false
// when the breaker is Open (and the timeout has not yet elapsed).
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	from := b.state
	b.checkOpenTimeout()
	to := b.state
	var ok bool
	switch b.state {
	case Closed:
		ok = true
	case HalfOpen:
		ok = b.successes < b.cfg.HalfOpenMaxSuccess
	}
	b.mu.Unlock()
	b.notify(from, to)
	return ok
}

// OnSuccess records a successful request.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxSuccess {
			b.state = Closed
			b.failures = 0
			b.successes = 0
		}
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
}

// OnFailure records a failed request.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.toOpen()
		}
	case HalfOpen:
		b.toOpen()
	}
	to := b.state
	b.mu.Unlock()
	b.notify(from, to)
}

// Call runs fn if the breaker allows it and records the outcome. Errors that
// Config.IsFailure rejects are passed through without counting as failures.
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if !b.Allow() {
		var zero T
		return zero, ErrOpen
	}
	v, err := fn()
	switch {
	case err == nil:
		b.OnSuccess()
	case b.cfg.IsFailure == nil || b.cfg.IsFailure(err):
		b.OnFailure()
	default:
		// The upstream answered; the error is about the request.
		b.OnSuccess()
	}
	return v, err
}

// checkOpenTimeout transitions from Open to HalfOpen when the timeout has
// elapsed. Must be called with b.mu held.
func (b *Breaker) checkOpenTimeout() {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.state = HalfOpen
		b.successes = 0
	}
}

func (b *Breaker) toOpen() {
	b.state = Open
	b.openedAt = b.now()
	b.successes = 0
}

func (b *Breaker) notify(from, to State) {
	if from == to {
		return
	}
	transitionsTotal.WithLabelValues(to.String()).Inc()
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

func (b *Breaker) now() time.Time {
	if b.nowFunc != nil {
		return b.nowFunc()
	}
	return time.Now()
}
