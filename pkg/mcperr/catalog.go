package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation    Code = "VALIDATION"
	UnknownTool   Code = "UNKNOWN_TOOL"
	CursorInvalid Code = "CURSOR_INVALID"

	// Resource & Limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"

	// Data
	DataUnavailable Code = "DATA_UNAVAILABLE"
	Internal        Code = "INTERNAL"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry", "See allowed values in the tool description"}},
	UnknownTool:   {Code: UnknownTool, Message: "tool not found", Retryable: false, NextSteps: []string{"Call tools/list for available tool names"}},
	CursorInvalid: {Code: CursorInvalid, Message: "cursor is invalid for current context", Retryable: true, NextSteps: []string{"Restart the listing from the first page"}},

	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Retry later", "Query a single section instead of a whole part"}},

	DataUnavailable: {Code: DataUnavailable, Message: "requested data is unavailable", Retryable: false, NextSteps: []string{"Use the offline lookup tools instead"}},
	Internal:        {Code: Internal, Message: "internal error", Retryable: false, NextSteps: []string{"Report the request id from the server log"}},
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		// Unknown code; preserve as-is
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// Message returns the normalized "CODE: message | nextSteps" text without
// wrapping it in an error result.
func Message(code Code, message string) string {
	return normalize(code, message)
}

// Split parses a "CODE: message" string. Text without a known code prefix is
// returned as a Validation message.
func Split(text string) (Code, string) {
	t := strings.TrimSpace(text)
	parts := strings.SplitN(t, ":", 2)
	if len(parts) == 2 {
		code := Code(strings.TrimSpace(parts[0]))
		if _, ok := catalog[code]; ok {
			return code, strings.TrimSpace(parts[1])
		}
	}
	return Validation, t
}

// FromText parses a "CODE: message" string, enriches it with catalog guidance,
// and returns an MCP tool error result.
func FromText(text string) *mcp.CallToolResult {
	code, msg := Split(text)
	return mcp.NewToolResultError(normalize(code, msg))
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}
