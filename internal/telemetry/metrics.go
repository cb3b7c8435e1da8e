package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for tool calls, eCFR round trips and
// the loaded reference tables.
type Collector struct {
	gatherer prometheus.Gatherer

	ToolCalls     *prometheus.CounterVec
	ToolDurations *prometheus.HistogramVec

	UpstreamCalls     *prometheus.CounterVec
	UpstreamDurations *prometheus.HistogramVec

	TableRecords   *prometheus.GaugeVec
	ActiveSessions prometheus.Gauge
}

// NewCollector registers the server metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	calls, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emc_tool_calls_total",
		Help: "Total number of tool calls, labeled by tool and outcome.",
	}, []string{"tool", "outcome"}), "emc_tool_calls_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "emc_tool_call_duration_seconds",
		Help:    "Tool call latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"tool"}), "emc_tool_call_duration_seconds")
	if err != nil {
		return nil, err
	}

	upstream, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emc_ecfr_requests_total",
		Help: "Total number of eCFR API requests, labeled by HTTP status or error.",
	}, []string{"status"}), "emc_ecfr_requests_total")
	if err != nil {
		return nil, err
	}

	upstreamDur, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "emc_ecfr_request_duration_seconds",
		Help:    "eCFR API round trip latency in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"status"}), "emc_ecfr_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	records, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "emc_table_records",
		Help: "Number of records loaded per reference table.",
	}, []string{"table"}), "emc_table_records")
	if err != nil {
		return nil, err
	}

	sessions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "emc_active_sessions",
		Help: "Current number of registered MCP client sessions.",
	}), "emc_active_sessions")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		ToolCalls:         calls,
		ToolDurations:     durations,
		UpstreamCalls:     upstream,
		UpstreamDurations: upstreamDur,
		TableRecords:      records,
		ActiveSessions:    sessions,
	}, nil
}

// ObserveToolCall records one completed tool invocation.
func (c *Collector) ObserveToolCall(tool, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.ToolCalls.WithLabelValues(tool, outcome).Inc()
	c.ToolDurations.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveUpstream records one eCFR round trip.
func (c *Collector) ObserveUpstream(status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.UpstreamCalls.WithLabelValues(status).Inc()
	c.UpstreamDurations.WithLabelValues(status).Observe(elapsed.Seconds())
}

// SetTableCounts publishes the per-table record counts of the loaded store.
func (c *Collector) SetTableCounts(counts map[string]int) {
	if c == nil {
		return
	}
	for table, n := range counts {
		c.TableRecords.WithLabelValues(table).Set(float64(n))
	}
}

func (c *Collector) sessionStarted() {
	if c == nil {
		return
	}
	c.ActiveSessions.Inc()
}

func (c *Collector) sessionEnded() {
	if c == nil {
		return
	}
	c.ActiveSessions.Dec()
}

// Gatherer returns the gatherer paired with the registerer used at construction.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil || c.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Gatherer(), promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
