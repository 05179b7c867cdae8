package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // hard timeout per send
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

func (cfg ProtectedNotifierConfig) withDefaults() ProtectedNotifierConfig {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}

	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}

	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}

	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return cfg
}

// ProtectedNotifier wraps a Notifier with a circuit breaker so a wedged
// provider cannot stall the worker loop.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	inFlight int // trial calls while half-open
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg.withDefaults(),
	}
}

func (n *ProtectedNotifier) SendAssignment(ctx context.Context, input AssignmentInput) error {
	if !n.admit() {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := n.inner.SendAssignment(sendCtx, input)

	n.record(err)

	return err
}

// admit decides whether a call may go through, transitioning open to
// half-open once the cooldown has elapsed.
func (n *ProtectedNotifier) admit() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case stateOpen:
		if time.Since(n.openedAt) < n.cfg.Cooldown {
			return false
		}

		n.state = stateHalfOpen
		n.inFlight = 1

		return true

	case stateHalfOpen:
		if n.inFlight >= n.cfg.HalfOpenMaxCalls {
			return false
		}

		n.inFlight++

		return true

	default:
		return true
	}
}

func (n *ProtectedNotifier) record(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == stateHalfOpen && n.inFlight > 0 {
		n.inFlight--
	}

	if err == nil {
		n.failures = 0
		n.state = stateClosed
		return
	}

	n.failures++

	// a failed trial call reopens immediately, no threshold
	if n.state == stateHalfOpen || n.failures >= n.cfg.FailureThreshold {
		n.state = stateOpen
		n.openedAt = time.Now()
	}
}
