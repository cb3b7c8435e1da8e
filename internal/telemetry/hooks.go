package telemetry

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Hooks wires mcp-go lifecycle callbacks into structured logs and the
// Prometheus collector. A nil collector keeps the log side only.
type Hooks struct {
	logger    zerolog.Logger
	collector *Collector
}

// NewHooks constructs a Hooks instance with the provided logger and collector.
func NewHooks(logger zerolog.Logger, collector *Collector) *Hooks {
	return &Hooks{logger: logger, collector: collector}
}

// OnServerStart is called when a transport begins accepting connections.
func (h *Hooks) OnServerStart(transport string) {
	h.logger.Info().Str("transport", transport).Msg("MCP server starting")
}

// OnServerStop is called during server shutdown.
func (h *Hooks) OnServerStop(transport string) {
	h.logger.Info().Str("transport", transport).Msg("MCP server stopping")
}

// Server builds the mcp-go hook set.
func (h *Hooks) Server() *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		h.collector.sessionStarted()
		h.logger.Info().Str("session_id", session.SessionID()).Msg("session registered")
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		h.collector.sessionEnded()
		h.logger.Info().Str("session_id", session.SessionID()).Msg("session unregistered")
	})

	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		// Keep it light: tool count only
		h.logger.Debug().Int("tools", len(res.Tools)).Msg("list_tools served")
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, res *mcp.CallToolResult) {
		evt := h.logger.Info()
		if res != nil && res.IsError {
			evt = h.logger.Warn()
		}
		evt.Str("tool", req.Params.Name).Msg("tool call served")
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		h.logger.Error().Str("method", string(method)).Err(err).Msg("request error")
	})

	return hooks
}
