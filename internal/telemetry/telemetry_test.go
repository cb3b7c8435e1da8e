package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSession struct{ id string }

func (s fakeSession) Initialize()                                         {}
func (s fakeSession) Initialized() bool                                   { return true }
func (s fakeSession) NotificationChannel() chan<- mcp.JSONRPCNotification { return nil }
func (s fakeSession) SessionID() string                                   { return s.id }

func TestCollectorRecordsToolCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveToolCall("fcc_part15_limit", "ok", 3*time.Millisecond)
	c.ObserveToolCall("fcc_part15_limit", "ok", time.Millisecond)
	c.ObserveToolCall("ecfr_query", "busy", 0)

	require.Equal(t, 2.0, testutil.ToFloat64(c.ToolCalls.WithLabelValues("fcc_part15_limit", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.ToolCalls.WithLabelValues("ecfr_query", "busy")))
	require.Equal(t, uint64(2), histogramSampleCount(t, reg, "emc_tool_call_duration_seconds", map[string]string{"tool": "fcc_part15_limit"}))
}

func TestCollectorUpstreamAndTables(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveUpstream("200", 120*time.Millisecond)
	c.ObserveUpstream("error", time.Second)
	c.SetTableCounts(map[string]int{"restricted_bands": 66, "lte_bands": 33})

	require.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamCalls.WithLabelValues("200")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamCalls.WithLabelValues("error")))
	require.Equal(t, 66.0, testutil.ToFloat64(c.TableRecords.WithLabelValues("restricted_bands")))
	require.Equal(t, 33.0, testutil.ToFloat64(c.TableRecords.WithLabelValues("lte_bands")))
}

func TestCollectorReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	require.NoError(t, err)
	second, err := NewCollector(reg)
	require.NoError(t, err)

	second.ObserveToolCall("ism_bands_list", "ok", 0)
	require.Equal(t, 1.0, testutil.ToFloat64(first.ToolCalls.WithLabelValues("ism_bands_list", "ok")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	require.NotPanics(t, func() {
		c.ObserveToolCall("x", "ok", 0)
		c.ObserveUpstream("200", 0)
		c.SetTableCounts(map[string]int{"a": 1})
		c.sessionStarted()
		c.sessionEnded()
	})
	require.Equal(t, prometheus.DefaultGatherer, c.Gatherer())
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	c.ObserveToolCall("nr_band_lookup", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `emc_tool_calls_total{outcome="ok",tool="nr_band_lookup"} 1`)
}

func TestServerHooksTrackSessionsAndLog(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	var buf bytes.Buffer
	h := NewHooks(zerolog.New(&buf), c)
	hooks := h.Server()
	ctx := context.Background()

	require.Len(t, hooks.OnRegisterSession, 1)
	hooks.OnRegisterSession[0](ctx, fakeSession{id: "s1"})
	hooks.OnRegisterSession[0](ctx, fakeSession{id: "s2"})
	require.Equal(t, 2.0, testutil.ToFloat64(c.ActiveSessions))

	hooks.OnUnregisterSession[0](ctx, fakeSession{id: "s1"})
	require.Equal(t, 1.0, testutil.ToFloat64(c.ActiveSessions))

	req := &mcp.CallToolRequest{}
	req.Params.Name = "cispr_limit"
	hooks.OnAfterCallTool[0](ctx, 1, req, mcp.NewToolResultText("ok"))
	hooks.OnError[0](ctx, 2, mcp.MethodToolsCall, nil, errors.New("boom"))

	out := buf.String()
	require.Contains(t, out, `"session_id":"s1"`)
	require.Contains(t, out, `"tool":"cispr_limit"`)
	require.Contains(t, out, `"error":"boom"`)
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	require.NoError(t, err)
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
