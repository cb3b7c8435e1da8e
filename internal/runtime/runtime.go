package runtime

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vinodismyname/emcregs/config"
)

// Limits captures the concurrency and timeout guardrails configured for the server.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests int
	MaxUpstreamCalls      int

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits with sensible fallbacks when values are unset.
func NewLimits(maxConcurrentRequests, maxUpstreamCalls int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxUpstreamCalls <= 0 {
		maxUpstreamCalls = config.DefaultMaxUpstreamCalls
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxUpstreamCalls:      maxUpstreamCalls,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// LimitsFromConfig maps the runtime section of the server config onto Limits.
func LimitsFromConfig(rc config.RuntimeConfig) Limits {
	limits := NewLimits(rc.MaxConcurrentRequests, rc.MaxUpstreamCalls)
	if rc.OperationTimeout > 0 {
		limits.OperationTimeout = rc.OperationTimeout
	}
	if rc.AcquireTimeout > 0 {
		limits.AcquireRequestTimeout = rc.AcquireTimeout
	}
	return limits
}

// Controller coordinates runtime semaphores for tool calls and outbound
// regulatory API calls.
type Controller struct {
	limits            Limits
	requestSemaphore  *semaphore.Weighted
	upstreamSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:            limits,
		requestSemaphore:  semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		upstreamSemaphore: semaphore.NewWeighted(int64(limits.MaxUpstreamCalls)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireUpstream reserves an outbound call slot.
func (c *Controller) AcquireUpstream(ctx context.Context) error {
	return c.upstreamSemaphore.Acquire(ctx, 1)
}

// ReleaseUpstream frees an outbound call slot.
func (c *Controller) ReleaseUpstream() {
	c.upstreamSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
