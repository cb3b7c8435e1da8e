package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"

	"github.com/vinodismyname/emcregs/pkg/mcperr"
)

type entry struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

// Registry maintains tool definitions with their handlers. It feeds MCP
// discovery and the in-process Invoke dispatch.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]entry
	middleware []server.ToolHandlerMiddleware
	filter     *NetworkToolFilter
}

// New constructs an empty Registry ready for tool population.
func New() *Registry {
	return &Registry{
		entries: map[string]entry{},
	}
}

// Use appends handler middleware applied by Invoke. MCP transports apply
// their own middleware through server options.
func (r *Registry) Use(mw ...server.ToolHandlerMiddleware) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middleware = append(r.middleware, mw...)
}

// WithFilter assigns the discovery filter also honored by Invoke.
func (r *Registry) WithFilter(f *NetworkToolFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filter = f
}

// Register stores a tool definition and its handler.
func (r *Registry) Register(tool mcp.Tool, handler server.ToolHandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
}

// Get returns a tool by name when present.
func (r *Registry) Get(name string) (mcp.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.tool, ok
}

// Tools returns a stable-sorted list of registered tool definitions.
func (r *Registry) Tools(ctx context.Context) ([]mcp.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]mcp.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		tools = append(tools, e.tool)
	}

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	return tools, nil
}

// AddTo registers every tool with the MCP server.
func (r *Registry) AddTo(s *server.MCPServer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		s.AddTool(e.tool, e.handler)
	}
}

// Invoke runs the named tool with JSON-shaped arguments and returns its text.
// Unknown or filtered names produce a message rather than an error.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) string {
	r.mu.RLock()
	e, ok := r.entries[name]
	filter := r.filter
	mws := r.middleware
	r.mu.RUnlock()

	if !ok {
		return "Unknown tool: " + name
	}
	if !filter.Allowed(name) {
		return mcperr.Message(mcperr.DataUnavailable, name+" is disabled in offline mode")
	}

	h := e.handler
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := h(ctx, req)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("tool", name).Msg("tool handler failed")
		return mcperr.Message(mcperr.Internal, err.Error())
	}
	return resultText(res)
}

func resultText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	parts := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ModelContextSize reports the context window of modelName, used to log how
// much of it the tool catalog occupies.
func (r *Registry) ModelContextSize(modelName string) int {
	return llms.GetModelContextSize(modelName)
}

// CatalogTokens estimates the token footprint of the tool catalog with the
// tiktoken encoding langchaingo picks for modelName. When no encoding can be
// loaded langchaingo counts runes/4 and reports the fallback on the standard
// logger.
func (r *Registry) CatalogTokens(ctx context.Context, modelName string) int {
	tools, _ := r.Tools(ctx)
	var b strings.Builder
	for _, t := range tools {
		b.WriteString(t.Name)
		b.WriteString(" ")
		b.WriteString(t.Description)
		for name := range t.InputSchema.Properties {
			b.WriteString(" ")
			b.WriteString(name)
		}
		b.WriteString("\n")
	}
	return llms.CountTokens(modelName, b.String())
}
