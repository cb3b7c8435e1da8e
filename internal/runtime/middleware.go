package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/emcregs/pkg/mcperr"
)

// Call outcomes reported to a Recorder.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeBusy    = "busy"
	OutcomeTimeout = "timeout"
)

// Recorder observes finished tool calls.
type Recorder interface {
	ObserveToolCall(tool, outcome string, elapsed time.Duration)
}

// Middleware enforces runtime limits for tool calls using the Controller.
// It bounds global concurrency, applies an operation timeout to each call and
// stamps the call's logger with a request id.
type Middleware struct {
	ctrl     *Controller
	recorder Recorder
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
// recorder may be nil.
func NewMiddleware(ctrl *Controller, recorder Recorder) *Middleware {
	return &Middleware{ctrl: ctrl, recorder: recorder}
}

// ToolMiddleware implements mcp-go's tool handler middleware interface.
// It acquires a request slot, applies a timeout, and guarantees release.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		tool := req.Params.Name
		logger := zerolog.Ctx(ctx).With().
			Str("request_id", uuid.NewString()).
			Str("tool", tool).
			Logger()
		ctx = logger.WithContext(ctx)

		// Attempt to acquire request capacity with a bounded wait.
		acquireCtx := ctx
		if m.ctrl.limits.AcquireRequestTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, m.ctrl.limits.AcquireRequestTimeout)
			defer cancel()
		}

		if err := m.ctrl.AcquireRequest(acquireCtx); err != nil {
			logger.Warn().Int("max", m.ctrl.limits.MaxConcurrentRequests).Msg("tool call rejected: busy")
			m.observe(tool, OutcomeBusy, start)
			// Return a tool-level error so the client can self-correct/retry.
			msg := fmt.Sprintf("concurrent request limit reached (max=%d). Please retry shortly.", m.ctrl.limits.MaxConcurrentRequests)
			return mcperr.New(mcperr.BusyResource, msg), nil
		}
		defer m.ctrl.ReleaseRequest()

		callCtx := ctx
		cancel := func() {}
		// Apply operation timeout to bound execution time.
		if m.ctrl.limits.OperationTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, m.ctrl.limits.OperationTimeout)
		}
		defer cancel()

		res, err := next(callCtx, req)

		// If the underlying handler surfaced a context deadline, prefer a tool-level timeout error.
		if errors.Is(err, context.DeadlineExceeded) || (callCtx.Err() == context.DeadlineExceeded && err == nil && res == nil) {
			logger.Warn().Dur("timeout", m.ctrl.limits.OperationTimeout).Msg("tool call timed out")
			m.observe(tool, OutcomeTimeout, start)
			return mcperr.New(mcperr.Timeout, ""), nil
		}

		outcome := OutcomeOK
		if err != nil || (res != nil && res.IsError) {
			outcome = OutcomeError
		}
		m.observe(tool, outcome, start)
		logger.Debug().Str("outcome", outcome).Dur("elapsed", time.Since(start)).Msg("tool call finished")
		return res, err
	}
}

func (m *Middleware) observe(tool, outcome string, start time.Time) {
	if m.recorder != nil {
		m.recorder.ObserveToolCall(tool, outcome, time.Since(start))
	}
}
