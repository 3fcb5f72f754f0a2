// Package config loads service settings from defaults, an optional config
// file, TOOL_CATALOG_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "TOOL_CATALOG"

// Keys. Flags use the same names with "-" in place of "_".
const (
	KeyBackendURL      = "backend_url"
	KeyHTTPPort        = "http_port"
	KeyLogLevel        = "log_level"
	KeyHTTPTimeout     = "http_timeout"
	KeySuggestCacheTTL = "suggest_cache_ttl"
	KeySuggestCacheMax = "suggest_cache_max"
	KeySuggestRate     = "suggest_rate"
	KeySuggestBurst    = "suggest_burst"
	KeyClickHouseDSN   = "clickhouse_dsn"
)

type Config struct {
	BackendURL      string
	HTTPPort        int
	LogLevel        string
	HTTPTimeout     time.Duration
	SuggestCacheTTL time.Duration
	SuggestCacheMax int
	SuggestRate     float64 // suggestions per second on the API; 0 disables limiting
	SuggestBurst    int
	ClickHouseDSN   string // empty selects the log writer
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyBackendURL, "http://localhost:5000")
	v.SetDefault(KeyHTTPPort, 8081)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyHTTPTimeout, 10*time.Second)
	v.SetDefault(KeySuggestCacheTTL, time.Duration(0))
	v.SetDefault(KeySuggestCacheMax, 1024)
	v.SetDefault(KeySuggestRate, 5.0)
	v.SetDefault(KeySuggestBurst, 10)
	v.SetDefault(KeyClickHouseDSN, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// The DSN is shared with the other services, so the unprefixed name is honoured too.
	_ = v.BindEnv(KeyClickHouseDSN, EnvPrefix+"_CLICKHOUSE_DSN", "CLICKHOUSE_DSN")

	return v
}

// ReadFile merges a config file into v. The format follows the extension.
func ReadFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("ReadFile: %w", err)
	}
	return nil
}

// Load reads the resolved settings out of v and validates them.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		BackendURL:      strings.TrimRight(strings.TrimSpace(v.GetString(KeyBackendURL)), "/"),
		HTTPPort:        v.GetInt(KeyHTTPPort),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		HTTPTimeout:     v.GetDuration(KeyHTTPTimeout),
		SuggestCacheTTL: v.GetDuration(KeySuggestCacheTTL),
		SuggestCacheMax: v.GetInt(KeySuggestCacheMax),
		SuggestRate:     v.GetFloat64(KeySuggestRate),
		SuggestBurst:    v.GetInt(KeySuggestBurst),
		ClickHouseDSN:   strings.TrimSpace(v.GetString(KeyClickHouseDSN)),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("backend_url must not be empty"))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http_port %d out of range", c.HTTPPort))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, errors.New("http_timeout must not be negative"))
	}
	if c.SuggestCacheTTL < 0 {
		errs = append(errs, errors.New("suggest_cache_ttl must not be negative"))
	}
	if c.SuggestCacheMax < 1 {
		errs = append(errs, errors.New("suggest_cache_max must be at least 1"))
	}
	if c.SuggestRate < 0 {
		errs = append(errs, errors.New("suggest_rate must not be negative"))
	}
	if c.SuggestRate > 0 && c.SuggestBurst < 1 {
		errs = append(errs, errors.New("suggest_burst must be at least 1 when suggest_rate is set"))
	}
	return errors.Join(errs...)
}

// ListenAddr is the HTTP listen address for the configured port.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
