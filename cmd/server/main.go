package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/emcregs/config"
	"github.com/vinodismyname/emcregs/data"
	"github.com/vinodismyname/emcregs/internal/ecfr"
	"github.com/vinodismyname/emcregs/internal/emc"
	"github.com/vinodismyname/emcregs/internal/refdata"
	"github.com/vinodismyname/emcregs/internal/registry"
	"github.com/vinodismyname/emcregs/internal/runtime"
	"github.com/vinodismyname/emcregs/internal/security"
	"github.com/vinodismyname/emcregs/internal/telemetry"
	"github.com/vinodismyname/emcregs/pkg/version"
)

// catalogModel is the model the startup log sizes the tool catalog against.
const catalogModel = "gpt-4"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		httpAddr        string
		configPath      string
		serveMetrics    bool
		callTool        string
		callArgs        string
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.StringVar(&httpAddr, "http", "", "Run streamable HTTP transport on this address (e.g. :8080); overrides http.addr")
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.BoolVar(&serveMetrics, "metrics", true, "Expose Prometheus metrics on the HTTP listener")
	flag.StringVar(&callTool, "call", "", "Invoke one tool, print its text and exit")
	flag.StringVar(&callArgs, "args", "{}", "JSON arguments for --call")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", config.DefaultShutdownTimeout, "Graceful shutdown timeout")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	httpAddr = cfg.HTTP.ListenAddr(httpAddr)

	// Logs go to stderr so the stdio transport stays clean.
	zlog.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(cfg.Level())
	logger := zlog.With().Str("service", version.ServiceName).Logger()
	// Library warnings written through the standard logger land in the same stream.
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger.With().Str("component", "stdlog").Logger())
	ctx := logger.WithContext(context.Background())

	collector, err := telemetry.NewCollector(nil)
	if err != nil {
		logger.Error().Err(err).Msg("telemetry: failed to register metrics")
		os.Exit(1)
	}

	store, err := loadStore(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("data_dir", cfg.DataDir).Msg("reference data: load failed")
		fmt.Fprintln(os.Stderr, "failed to load reference tables; check data_dir / EMC_DATA_DIR")
		os.Exit(1)
	}
	counts := store.Counts()
	collector.SetTableCounts(counts)
	logger.Info().Interface("tables", counts).Msg("reference tables loaded")

	limits := runtime.LimitsFromConfig(cfg.Runtime)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController, collector)

	var ecfrClient *ecfr.Client
	if !cfg.Offline {
		ecfrClient = ecfr.NewClient(ecfr.Options{
			BaseURL:  cfg.ECFR.BaseURL,
			Timeout:  cfg.ECFR.Timeout,
			MaxChars: cfg.ECFR.MaxChars,
			Recorder: collector,
		})
	}

	toolRegistry := registry.New()
	networkFilter := registry.NewNetworkToolFilter(cfg.Offline)
	toolRegistry.WithFilter(networkFilter)
	registry.RegisterTools(toolRegistry, registry.Deps{
		Service: emc.NewService(store, cfg.Runtime.LTEPageSize),
		ECFR:    ecfrClient,
		Runtime: runtimeController,
	})

	if callTool != "" {
		os.Exit(invokeOnce(ctx, toolRegistry, runtimeMW, callTool, callArgs))
	}

	hooks := telemetry.NewHooks(logger, collector)
	srv := server.NewMCPServer(
		"EMC Regulations Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(hooks.Server()),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return networkFilter.FilterTools(ctx, tools) }),
	)
	toolRegistry.AddTo(srv)

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_upstream_calls", limits.MaxUpstreamCalls).
		Str("token_model", catalogModel).
		Int("model_context_size", toolRegistry.ModelContextSize(catalogModel)).
		Int("catalog_tokens", toolRegistry.CatalogTokens(ctx, catalogModel)).
		Bool("offline", cfg.Offline).
		Bool("stdio", useStdio).
		Str("http", httpAddr).
		Msg("server bootstrap configured")

	if useStdio {
		hooks.OnServerStart("stdio")
		err := server.ServeStdio(srv, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return logger.WithContext(ctx)
		}))
		hooks.OnServerStop("stdio")
		if err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if httpAddr != "" {
		if err := serveHTTP(ctx, srv, collector, hooks, cfg.HTTP, httpAddr, serveMetrics, shutdownTimeout); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// If no transport flags provided, print usage and exit non-zero
	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio, --http :8080 or --call <tool>")
	os.Exit(2)
}

// loadStore reads the bundled tables, or the configured data directory after
// it passes the security checks.
func loadStore(ctx context.Context, cfg config.Config) (*refdata.Store, error) {
	var fsys fs.FS = data.Tables
	if cfg.DataDir != "" {
		mgr, err := security.NewManager(cfg.DataDir, nil)
		if err != nil {
			return nil, err
		}
		zerolog.Ctx(ctx).Info().Str("data_dir", mgr.Root()).Msg("using on-disk reference tables")
		fsys = mgr.TableFS()
	}
	return refdata.Load(ctx, fsys)
}

// invokeOnce runs a single tool through the same middleware the transports
// use and prints its text to stdout.
func invokeOnce(ctx context.Context, reg *registry.Registry, mw *runtime.Middleware, name, rawArgs string) int {
	args := map[string]any{}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		fmt.Fprintf(os.Stderr, "invalid --args JSON: %v\n", err)
		return 2
	}
	reg.Use(mw.ToolMiddleware)
	fmt.Println(reg.Invoke(ctx, name, args))
	return 0
}

func serveHTTP(ctx context.Context, srv *server.MCPServer, collector *telemetry.Collector, hooks *telemetry.Hooks,
	hc config.HTTPConfig, addr string, serveMetrics bool, shutdownTimeout time.Duration) error {
	logger := zerolog.Ctx(ctx)

	streamable := server.NewStreamableHTTPServer(srv,
		server.WithEndpointPath("/mcp"),
		server.WithHTTPContextFunc(func(rctx context.Context, r *http.Request) context.Context {
			return logger.WithContext(rctx)
		}),
	)

	var mcpHandler http.Handler = streamable
	if hc.Gzip {
		mcpHandler = gzhttp.GzipHandler(streamable)
	}
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpHandler)
	if serveMetrics {
		mux.Handle(hc.MetricsPath, collector.Handler())
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		hooks.OnServerStart("http")
		logger.Info().Str("addr", addr).Bool("metrics", serveMetrics).Msg("http listener started")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
	}

	hooks.OnServerStop("http")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
