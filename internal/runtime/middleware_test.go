package runtime

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type outcomes struct {
	mu  sync.Mutex
	got []string
}

func (o *outcomes) ObserveToolCall(tool, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, tool+":"+outcome)
}

func callRequest(name string) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	return req
}

func TestMiddleware_AllowsWhenCapacity(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.OperationTimeout = 200 * time.Millisecond
	limits.AcquireRequestTimeout = 50 * time.Millisecond

	rec := &outcomes{}
	mw := NewMiddleware(NewController(limits), rec)

	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := mw.ToolMiddleware(server.ToolHandlerFunc(next))

	res, err := wrapped(context.Background(), callRequest("fcc_part15_limit"))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.False(t, res.IsError)
	require.Equal(t, []string{"fcc_part15_limit:ok"}, rec.got)
}

func TestMiddleware_BusyWhenSaturated(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.AcquireRequestTimeout = 10 * time.Millisecond

	ctrl := NewController(limits)
	// Saturate the request semaphore.
	require.NoError(t, ctrl.AcquireRequest(context.Background()))
	defer ctrl.ReleaseRequest()

	rec := &outcomes{}
	mw := NewMiddleware(ctrl, rec)

	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t.Fatal("next should not be called when saturated")
		return nil, nil
	}

	wrapped := mw.ToolMiddleware(server.ToolHandlerFunc(next))

	res, err := wrapped(context.Background(), callRequest("ecfr_query"))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.True(t, res.IsError)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	require.Contains(t, text.Text, "BUSY_RESOURCE")
	require.Equal(t, []string{"ecfr_query:busy"}, rec.got)
}

func TestMiddleware_TimeoutApplied(t *testing.T) {
	limits := NewLimits(1, 1)
	limits.OperationTimeout = 20 * time.Millisecond
	limits.AcquireRequestTimeout = 20 * time.Millisecond

	rec := &outcomes{}
	mw := NewMiddleware(NewController(limits), rec)

	// This handler only returns when the context is done.
	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	wrapped := mw.ToolMiddleware(server.ToolHandlerFunc(next))

	res, err := wrapped(context.Background(), callRequest("ecfr_query"))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.True(t, res.IsError)
	require.Equal(t, []string{"ecfr_query:timeout"}, rec.got)
}

func TestMiddleware_StampsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	mw := NewMiddleware(NewController(NewLimits(1, 1)), nil)

	var seen string
	next := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		zerolog.Ctx(ctx).Info().Msg("inside")
		seen = buf.String()
		return mcp.NewToolResultText("ok"), nil
	}

	_, err := mw.ToolMiddleware(next)(logger.WithContext(context.Background()), callRequest("ism_bands_list"))
	require.NoError(t, err)
	require.Contains(t, seen, `"request_id":"`)
	require.Contains(t, seen, `"tool":"ism_bands_list"`)
}
