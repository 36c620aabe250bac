package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"aura/backend/pkg/logger"
)

// ErrCircuitOpen is returned by Execute while the breaker is short-circuiting calls
var ErrCircuitOpen = errors.New("circuit open")

// State represents the current state of a circuit breaker
type State string

const (
	// StateClosed lets every call through
	StateClosed State = "closed"
	// StateOpen short-circuits every call until the retry timeout passes
	StateOpen State = "open"
	// StateHalfOpen lets a limited number of probe calls through
	StateHalfOpen State = "half-open"
)

// Config holds configuration for a circuit breaker
type Config struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	RetryTimeout     time.Duration
	// OnStateChange, if set, is called with the new state after every transition
	OnStateChange func(name string, to State)
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     30 * time.Second,
	}
}

// CircuitBreaker guards calls to a flaky dependency
type CircuitBreaker struct {
	cfg             Config
	mu              sync.Mutex
	state           State
	failureCount    uint
	successCount    uint
	inFlightProbes  uint
	nextAttemptTime time.Time
	now             func() time.Time
	log             *logger.Logger

	totalRequests uint64
	totalFailures uint64
	openCount     uint64
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(cfg Config, log *logger.Logger) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &CircuitBreaker{
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
		log:   log.WithComponent("circuit_breaker"),
	}
}

// Execute runs fn through the circuit breaker. A cancelled ctx is reported
// as the caller's error and does not count as a dependency failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.allowRequest() {
		cb.log.Warn("Circuit breaker preventing request", "name", cb.cfg.Name)
		return ErrCircuitOpen
	}

	start := cb.now()
	err := fn(ctx)

	switch {
	case err == nil:
		cb.recordSuccess()
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		cb.release()
	default:
		cb.recordFailure()
		cb.log.Warn("Circuit breaker recorded failure",
			"name", cb.cfg.Name,
			"error", err.Error(),
			"duration", cb.now().Sub(start).String(),
		)
	}
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Before(cb.nextAttemptTime) {
			return false
		}
		cb.transition(StateHalfOpen)
		cb.inFlightProbes++
		return true
	case StateHalfOpen:
		if cb.successCount+cb.inFlightProbes >= cb.cfg.SuccessThreshold {
			return false
		}
		cb.inFlightProbes++
		return true
	}
	return false
}

func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen && cb.inFlightProbes > 0 {
		cb.inFlightProbes--
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		if cb.inFlightProbes > 0 {
			cb.inFlightProbes--
		}
		cb.successCount++
		if cb.successCount >= cb.cfg.SuccessThreshold {
			cb.transition(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalFailures++

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	}
}

// transition must be called with mu held
func (cb *CircuitBreaker) transition(to State) {
	cb.state = to
	cb.failureCount = 0
	cb.successCount = 0
	cb.inFlightProbes = 0

	if to == StateOpen {
		cb.openCount++
		cb.nextAttemptTime = cb.now().Add(cb.cfg.RetryTimeout)
	}

	cb.log.Info("Circuit breaker state changed", "name", cb.cfg.Name, "state", string(to))
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, to)
	}
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Metrics returns counters for the health endpoint
func (cb *CircuitBreaker) Metrics() map[string]any {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]any{
		"name":           cb.cfg.Name,
		"state":          string(cb.state),
		"total_requests": cb.totalRequests,
		"total_failures": cb.totalFailures,
		"open_count":     cb.openCount,
	}
}
