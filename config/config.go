package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration. Values come from an optional YAML file,
// then EMC_* environment variables, then defaults.
type Config struct {
	// DataDir points at an on-disk table snapshot. Empty uses the bundled tables.
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`
	// Offline hides tools that need network access.
	Offline bool `yaml:"offline"`

	ECFR    ECFRConfig    `yaml:"ecfr"`
	Runtime RuntimeConfig `yaml:"runtime"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// ECFRConfig configures the eCFR bridge.
type ECFRConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	MaxChars int           `yaml:"max_chars"`
}

// RuntimeConfig bounds concurrency, timeouts and listing page size.
type RuntimeConfig struct {
	MaxConcurrentRequests int           `yaml:"max_concurrent_requests"`
	MaxUpstreamCalls      int           `yaml:"max_upstream_calls"`
	OperationTimeout      time.Duration `yaml:"operation_timeout"`
	AcquireTimeout        time.Duration `yaml:"acquire_timeout"`
	LTEPageSize           int           `yaml:"lte_page_size"`
}

// HTTPConfig configures the streamable HTTP listener. An empty Addr leaves
// HTTP off unless --http is given.
type HTTPConfig struct {
	Addr        string `yaml:"addr"`
	MetricsPath string `yaml:"metrics_path"`
	Gzip        bool   `yaml:"gzip"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		ECFR: ECFRConfig{
			BaseURL:  DefaultECFRBaseURL,
			Timeout:  DefaultUpstreamTimeout,
			MaxChars: DefaultOutputBudget,
		},
		Runtime: RuntimeConfig{
			MaxConcurrentRequests: DefaultMaxConcurrentRequests,
			MaxUpstreamCalls:      DefaultMaxUpstreamCalls,
			OperationTimeout:      DefaultOperationTimeout,
			AcquireTimeout:        DefaultAcquireRequestTimeout,
			LTEPageSize:           DefaultLTEPageSize,
		},
		HTTP: HTTPConfig{
			MetricsPath: DefaultMetricsPath,
			Gzip:        true,
		},
	}
}

// Load reads path (if non-empty) over the defaults and applies environment
// overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from EMC_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("EMC_DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := lookup("EMC_ECFR_BASE_URL"); ok && v != "" {
		c.ECFR.BaseURL = v
	}
	if v, ok := lookup("EMC_HTTP_ADDR"); ok {
		c.HTTP.Addr = v
	}
	if v, ok := lookup("EMC_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("EMC_OFFLINE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: EMC_OFFLINE: %w", err)
		}
		c.Offline = b
	}
	if v, ok := lookup("EMC_MAX_CONCURRENT_REQUESTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: EMC_MAX_CONCURRENT_REQUESTS: %w", err)
		}
		c.Runtime.MaxConcurrentRequests = n
	}
	return nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q: %w", c.LogLevel, err))
	}
	if !strings.HasPrefix(c.ECFR.BaseURL, "http://") && !strings.HasPrefix(c.ECFR.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("ecfr.base_url %q must be an http(s) URL", c.ECFR.BaseURL))
	}
	if c.Runtime.MaxConcurrentRequests < 1 {
		errs = append(errs, fmt.Errorf("runtime.max_concurrent_requests must be >= 1"))
	}
	if c.Runtime.LTEPageSize < 1 {
		errs = append(errs, fmt.Errorf("runtime.lte_page_size must be >= 1"))
	}
	if c.ECFR.MaxChars < 1 {
		errs = append(errs, fmt.Errorf("ecfr.max_chars must be >= 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ListenAddr returns the --http flag value when set, else the configured address.
func (h HTTPConfig) ListenAddr(flagAddr string) string {
	if flagAddr != "" {
		return flagAddr
	}
	return h.Addr
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
