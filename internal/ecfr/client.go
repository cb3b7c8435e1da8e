// Package ecfr queries the public eCFR versioner API for regulatory text.
package ecfr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/emcregs/config"
	"github.com/vinodismyname/emcregs/pkg/version"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// Recorder observes upstream calls. status is the HTTP status code or "error".
type Recorder interface {
	ObserveUpstream(status string, elapsed time.Duration)
}

// Options configures a Client. Zero values take defaults from config.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxChars   int
	HTTPClient *http.Client
	Recorder   Recorder
}

// Client performs one GET per query. It never retries.
type Client struct {
	baseURL  string
	maxChars int
	http     *http.Client
	recorder Recorder
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = config.DefaultECFRBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultUpstreamTimeout
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = config.DefaultOutputBudget
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, maxChars: maxChars, http: hc, recorder: opts.Recorder}
}

// URL builds the request URL. With a section the full-text endpoint is used,
// otherwise the structure endpoint.
func (c *Client) URL(title, part int, section string) string {
	kind := "structure"
	q := url.Values{}
	q.Set("part", strconv.Itoa(part))
	if section != "" {
		kind = "full"
		q.Set("section", section)
	}
	return fmt.Sprintf("%s/api/versioner/v1/%s/current/title-%d.json?%s", c.baseURL, kind, title, q.Encode())
}

// Query fetches the title/part (and optional section) and renders it as text.
// Every failure is reported in the returned text.
func (c *Client) Query(ctx context.Context, title, part int, section string) string {
	logger := zerolog.Ctx(ctx)
	target := c.URL(title, part, section)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Sprintf("Error querying eCFR API: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe("error", start)
		logger.Warn().Err(err).Str("url", target).Msg("ecfr request failed")
		return fmt.Sprintf("Error querying eCFR API: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.observe(strconv.Itoa(resp.StatusCode), start)
	if err != nil {
		logger.Warn().Err(err).Str("url", target).Msg("ecfr body read failed")
		return fmt.Sprintf("Error querying eCFR API: %v", err)
	}

	logger.Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("ecfr response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("eCFR API returned status %d", resp.StatusCode)
		if text := strings.TrimSpace(string(body)); text != "" {
			msg += "\n\n" + c.truncate(text)
		}
		return msg
	}

	header := fmt.Sprintf("eCFR Query: Title %d, Part %d", title, part)
	if section != "" {
		header += ", Section " + section
	}
	return header + "\n" + strings.Repeat("=", 50) + "\n\n" + c.truncate(pretty(body))
}

func (c *Client) observe(status string, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveUpstream(status, time.Since(start))
	}
}

// pretty indents JSON bodies and returns anything else unchanged.
func pretty(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

// truncate keeps the first maxChars characters and notes what was dropped.
func (c *Client) truncate(s string) string {
	n := utf8.RuneCountInString(s)
	if n <= c.maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:c.maxChars]) +
		fmt.Sprintf("\n\n... [truncated: showing %d of %d characters]", c.maxChars, n)
}
