package registry

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// networkTools reach outside the embedded reference snapshot.
var networkTools = map[string]struct{}{
	ToolECFRQuery: {},
}

// NetworkToolFilter hides tools that need network access when the server
// runs offline. Enable offline mode with EMC_OFFLINE=true or offline: true.
type NetworkToolFilter struct {
	offline bool
}

// NewNetworkToolFilter constructs a filter for the given offline setting.
func NewNetworkToolFilter(offline bool) *NetworkToolFilter {
	return &NetworkToolFilter{offline: offline}
}

// Allowed reports whether name may be listed and called. A nil filter allows
// everything.
func (f *NetworkToolFilter) Allowed(name string) bool {
	if f == nil || !f.offline {
		return true
	}
	_, network := networkTools[name]
	return !network
}

// FilterTools implements server tool filtering semantics.
func (f *NetworkToolFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f == nil || !f.offline {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if f.Allowed(t.Name) {
			out = append(out, t)
		}
	}
	return out
}
