// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/oncoapp-gateway/config.toml",
	"configs/config.toml",
}

// Default backend base URLs, used when neither the config file nor the
// environment names one.
const (
	DefaultAuthURL           = "https://oncoapp-239j.onrender.com"
	DefaultPatientURL        = "https://patientoncoassist.onrender.com"
	DefaultRecommendationURL = "https://oncoai-4rec.onrender.com"
)

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config            string           `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host              string           `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port              int              `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel          string           `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	AuthURL           string           `kong:"name='auth-url',help='Authentication service base URL (overrides config).',env='AUTH_URL'"`
	PatientURL        string           `kong:"name='patient-url',help='Patient service base URL (overrides config).',env='PATIENT_URL'"`
	RecommendationURL string           `kong:"name='recommendation-url',help='Recommendation service base URL (overrides config).',env='RECOMMENDATION_URL'"`
	Version           kong.VersionFlag `kong:"help='Print version and exit.'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	CORS     CORSConfig     `toml:"cors"`
	Backends BackendsConfig `toml:"backends"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8000)
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// CORSConfig controls the cross-origin policy. A nil slice means "allow all".
type CORSConfig struct {
	AllowOrigins     []string `toml:"allow_origins"`
	AllowCredentials *bool    `toml:"allow_credentials"`
}

// BackendsConfig holds the three backend services and the shared client settings.
type BackendsConfig struct {
	TimeoutSeconds   int   `toml:"timeout_seconds"`
	IdleConnections  int   `toml:"idle_connections"`
	MaxResponseBytes int64 `toml:"max_response_bytes"`

	Auth           BackendConfig        `toml:"auth"`
	Patient        PatientBackendConfig `toml:"patient"`
	Recommendation BackendConfig        `toml:"recommendation"`
}

// BackendConfig describes one backend service.
type BackendConfig struct {
	BaseURL string `toml:"base_url"`
}

// PatientBackendConfig adds the group-wide auth decision for patient routes.
type PatientBackendConfig struct {
	BaseURL     string `toml:"base_url"`
	RequireAuth *bool  `toml:"require_auth"` // nil means true
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the optional TOML config file and applies CLI/env overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/oncoapp-gateway/config.toml then configs/config.toml; if neither exists
// the built-in defaults are used.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.AuthURL != "" {
		c.Backends.Auth.BaseURL = cli.AuthURL
	}
	if cli.PatientURL != "" {
		c.Backends.Patient.BaseURL = cli.PatientURL
	}
	if cli.RecommendationURL != "" {
		c.Backends.Recommendation.BaseURL = cli.RecommendationURL
	}
}

// setDefaults fills zero-valued fields with defaults. For integer fields zero
// means "unset" because TOML cannot distinguish an explicit 0 from an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1024 * 1024 // 1 MB
	}
	if len(c.CORS.AllowOrigins) == 0 {
		c.CORS.AllowOrigins = []string{"*"}
	}
	if c.CORS.AllowCredentials == nil {
		allow := true
		c.CORS.AllowCredentials = &allow
	}
	if c.Backends.TimeoutSeconds == 0 {
		c.Backends.TimeoutSeconds = 30
	}
	if c.Backends.IdleConnections == 0 {
		c.Backends.IdleConnections = 100
	}
	if c.Backends.MaxResponseBytes == 0 {
		c.Backends.MaxResponseBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Backends.Auth.BaseURL == "" {
		c.Backends.Auth.BaseURL = DefaultAuthURL
	}
	if c.Backends.Patient.BaseURL == "" {
		c.Backends.Patient.BaseURL = DefaultPatientURL
	}
	if c.Backends.Patient.RequireAuth == nil {
		require := true
		c.Backends.Patient.RequireAuth = &require
	}
	if c.Backends.Recommendation.BaseURL == "" {
		c.Backends.Recommendation.BaseURL = DefaultRecommendationURL
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// reservedPrefixes are route prefixes the metrics endpoint must not shadow.
var reservedPrefixes = []string{
	"/auth", "/patients", "/clinical_histories", "/recommendation",
	"/api/v1", "/healthz", "/gateway",
}

func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"backends.auth.base_url":           c.Backends.Auth.BaseURL,
		"backends.patient.base_url":        c.Backends.Patient.BaseURL,
		"backends.recommendation.base_url": c.Backends.Recommendation.BaseURL,
	} {
		if err := validateBaseURL(name, raw); err != nil {
			return err
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0-65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Backends.TimeoutSeconds < 0 {
		return fmt.Errorf("backends.timeout_seconds must be non-negative; got %d", c.Backends.TimeoutSeconds)
	}
	if c.Backends.IdleConnections < 0 {
		return fmt.Errorf("backends.idle_connections must be non-negative; got %d", c.Backends.IdleConnections)
	}
	if c.Backends.MaxResponseBytes < 0 {
		return fmt.Errorf("backends.max_response_bytes must be non-negative; got %d", c.Backends.MaxResponseBytes)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	if c.Metrics.Enabled {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		if p == "/" {
			return fmt.Errorf("metrics.path %q conflicts with the gateway root", p)
		}
		for _, reserved := range reservedPrefixes {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https; got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host; got %q", name, raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%s must not carry a query or fragment; got %q", name, raw)
	}
	return nil
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PatientAuthRequired reports whether patient and clinical-history routes
// reject requests without a bearer token.
func (c *Config) PatientAuthRequired() bool {
	return c.Backends.Patient.RequireAuth == nil || *c.Backends.Patient.RequireAuth
}

// PermissiveCORS reports whether the wildcard origin is combined with
// credentials. An empty origin list counts as the wildcard.
func (c *Config) PermissiveCORS() bool {
	if c.CORS.AllowCredentials == nil || !*c.CORS.AllowCredentials {
		return false
	}
	if len(c.CORS.AllowOrigins) == 0 {
		return true
	}
	for _, o := range c.CORS.AllowOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
