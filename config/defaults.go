package config

import "time"

// Default runtime limits and guardrails for the EMC regulations server.
// They apply when neither the config file nor the environment sets a value.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxUpstreamCalls      = 2

	// Output bounds
	DefaultOutputBudget = 8000 // characters of eCFR text per reply
	DefaultLTEPageSize  = 30
)

const (
	// Timeouts
	DefaultOperationTimeout      = 45 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
	DefaultUpstreamTimeout       = 30 * time.Second
	DefaultShutdownTimeout       = 10 * time.Second
)

const (
	DefaultECFRBaseURL = "https://www.ecfr.gov"
	DefaultMetricsPath = "/metrics"
	DefaultLogLevel    = "info"
)
