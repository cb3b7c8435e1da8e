package ecfr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorded struct {
	mu       sync.Mutex
	statuses []string
}

func (r *recorded) ObserveUpstream(status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func TestURLShapes(t *testing.T) {
	c := NewClient(Options{BaseURL: "https://www.ecfr.gov/"})
	require.Equal(t,
		"https://www.ecfr.gov/api/versioner/v1/full/current/title-47.json?part=15&section=15.209",
		c.URL(47, 15, "15.209"))
	require.Equal(t,
		"https://www.ecfr.gov/api/versioner/v1/structure/current/title-47.json?part=18",
		c.URL(47, 18, ""))
}

func TestQuerySuccessPrettyPrints(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotUA = r.URL.Path, r.URL.RawQuery, r.UserAgent()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"identifier":"15.209","label":"Radiated emission limits"}`))
	}))
	defer srv.Close()

	rec := &recorded{}
	c := NewClient(Options{BaseURL: srv.URL, Recorder: rec})
	out := c.Query(context.Background(), 47, 15, "15.209")

	require.Equal(t, "/api/versioner/v1/full/current/title-47.json", gotPath)
	require.Equal(t, "part=15&section=15.209", gotQuery)
	require.True(t, strings.HasPrefix(gotUA, "emc-regulations-mcp/"))
	require.True(t, strings.HasPrefix(out, "eCFR Query: Title 47, Part 15, Section 15.209\n"+strings.Repeat("=", 50)+"\n\n"))
	require.Contains(t, out, "{\n  \"identifier\": \"15.209\",\n  \"label\": \"Radiated emission limits\"\n}")
	require.Equal(t, []string{"200"}, rec.statuses)
}

func TestQueryTruncatesLongBodies(t *testing.T) {
	long := `{"text":"` + strings.Repeat("x", 200) + `"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, MaxChars: 50})
	out := c.Query(context.Background(), 47, 18, "")

	require.True(t, strings.HasPrefix(out, "eCFR Query: Title 47, Part 18\n"))
	require.Contains(t, out, "[truncated: showing 50 of")
}

func TestQueryNonJSONBodyPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<SECTION>15.209</SECTION>"))
	}))
	defer srv.Close()

	out := NewClient(Options{BaseURL: srv.URL}).Query(context.Background(), 47, 15, "15.209")
	require.True(t, strings.HasSuffix(out, "<SECTION>15.209</SECTION>"))
}

func TestQueryNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"part not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	rec := &recorded{}
	out := NewClient(Options{BaseURL: srv.URL, Recorder: rec}).Query(context.Background(), 47, 999, "")
	require.True(t, strings.HasPrefix(out, "eCFR API returned status 404"))
	require.Contains(t, out, "part not found")
	require.Equal(t, []string{"404"}, rec.statuses)
}

func TestQueryTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	rec := &recorded{}
	out := NewClient(Options{BaseURL: base, Recorder: rec}).Query(context.Background(), 47, 15, "")
	require.True(t, strings.HasPrefix(out, "Error querying eCFR API: "))
	require.Equal(t, []string{"error"}, rec.statuses)
}

func TestQueryHonorsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	out := c.Query(context.Background(), 47, 15, "")
	require.Less(t, time.Since(start), 5*time.Second)
	require.True(t, strings.HasPrefix(out, "Error querying eCFR API: "))
}
