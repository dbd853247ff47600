package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

// writeConfig writes data to a config.toml in a fresh temp dir and returns its path.
func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
body_max_bytes = 5242880

[backends]
timeout_seconds = 15
idle_connections = 50

[backends.auth]
base_url = "http://auth.internal:8001"

[backends.patient]
base_url = "http://patients.internal:8002"
require_auth = false

[backends.recommendation]
base_url = "http://recommendation.internal:8003"

[log]
level = "debug"
format = "text"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Backends.TimeoutSeconds != 15 {
		t.Errorf("Backends.TimeoutSeconds = %d, want %d", cfg.Backends.TimeoutSeconds, 15)
	}
	if cfg.Backends.Auth.BaseURL != "http://auth.internal:8001" {
		t.Errorf("Backends.Auth.BaseURL = %q", cfg.Backends.Auth.BaseURL)
	}
	if cfg.Backends.Patient.BaseURL != "http://patients.internal:8002" {
		t.Errorf("Backends.Patient.BaseURL = %q", cfg.Backends.Patient.BaseURL)
	}
	if cfg.Backends.Recommendation.BaseURL != "http://recommendation.internal:8003" {
		t.Errorf("Backends.Recommendation.BaseURL = %q", cfg.Backends.Recommendation.BaseURL)
	}
	if cfg.PatientAuthRequired() {
		t.Error("PatientAuthRequired() = true, want false")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load(&CLI{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default Server.Port = %d, want %d", cfg.Server.Port, 8000)
	}
	if cfg.Server.BodyMaxBytes != 1024*1024 {
		t.Errorf("default Server.BodyMaxBytes = %d, want %d", cfg.Server.BodyMaxBytes, 1024*1024)
	}
	if cfg.Backends.TimeoutSeconds != 30 {
		t.Errorf("default Backends.TimeoutSeconds = %d, want 30", cfg.Backends.TimeoutSeconds)
	}
	if cfg.Backends.Auth.BaseURL != DefaultAuthURL {
		t.Errorf("default Auth.BaseURL = %q, want %q", cfg.Backends.Auth.BaseURL, DefaultAuthURL)
	}
	if cfg.Backends.Patient.BaseURL != DefaultPatientURL {
		t.Errorf("default Patient.BaseURL = %q, want %q", cfg.Backends.Patient.BaseURL, DefaultPatientURL)
	}
	if cfg.Backends.Recommendation.BaseURL != DefaultRecommendationURL {
		t.Errorf("default Recommendation.BaseURL = %q, want %q", cfg.Backends.Recommendation.BaseURL, DefaultRecommendationURL)
	}
	if !cfg.PatientAuthRequired() {
		t.Error("default PatientAuthRequired() = false, want true")
	}
	if !cfg.PermissiveCORS() {
		t.Error("default PermissiveCORS() = false, want true")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("default Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(cliWithPath("/nonexistent/config.toml"))
	if err == nil {
		t.Fatal("Load() expected error for missing explicit file, got nil")
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 8000

[backends.auth]
base_url = "http://file-auth:8001"

[log]
level = "info"
`)

	cli := &CLI{
		Config:            path,
		Host:              "127.0.0.1",
		Port:              3000,
		LogLevel:          "debug",
		AuthURL:           "http://env-auth:9001",
		PatientURL:        "http://env-patient:9002",
		RecommendationURL: "http://env-recommendation:9003",
	}

	cfg, err := Load(cli)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q (CLI override)", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d (CLI override)", cfg.Server.Port, 3000)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (CLI override)", cfg.Log.Level, "debug")
	}
	if cfg.Backends.Auth.BaseURL != "http://env-auth:9001" {
		t.Errorf("Auth.BaseURL = %q, want env override", cfg.Backends.Auth.BaseURL)
	}
	if cfg.Backends.Patient.BaseURL != "http://env-patient:9002" {
		t.Errorf("Patient.BaseURL = %q, want env override", cfg.Backends.Patient.BaseURL)
	}
	if cfg.Backends.Recommendation.BaseURL != "http://env-recommendation:9003" {
		t.Errorf("Recommendation.BaseURL = %q, want env override", cfg.Backends.Recommendation.BaseURL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "non-http backend scheme",
			data:    "[backends.auth]\nbase_url = \"ftp://auth.internal\"\n",
			wantErr: "backends.auth.base_url",
		},
		{
			name:    "backend without host",
			data:    "[backends.patient]\nbase_url = \"http://\"\n",
			wantErr: "backends.patient.base_url",
		},
		{
			name:    "backend with query",
			data:    "[backends.recommendation]\nbase_url = \"http://rec.internal/?x=1\"\n",
			wantErr: "backends.recommendation.base_url",
		},
		{
			name:    "negative port",
			data:    "[server]\nport = -1\n",
			wantErr: "server.port",
		},
		{
			name:    "negative body_max_bytes",
			data:    "[server]\nbody_max_bytes = -1\n",
			wantErr: "server.body_max_bytes",
		},
		{
			name:    "negative timeout",
			data:    "[backends]\ntimeout_seconds = -5\n",
			wantErr: "backends.timeout_seconds",
		},
		{
			name:    "negative max_response_bytes",
			data:    "[backends]\nmax_response_bytes = -5\n",
			wantErr: "backends.max_response_bytes",
		},
		{
			name:    "invalid log level",
			data:    "[log]\nlevel = \"verbose\"\n",
			wantErr: "log.level",
		},
		{
			name:    "invalid log format",
			data:    "[log]\nformat = \"xml\"\n",
			wantErr: "log.format",
		},
		{
			name:    "rate limit enabled without rps",
			data:    "[server.rate_limit]\nenabled = true\nrequests_per_second = 0\n",
			wantErr: "requests_per_second",
		},
		{
			name:    "metrics path without slash",
			data:    "[metrics]\nenabled = true\npath = \"metrics\"\n",
			wantErr: "metrics.path",
		},
		{
			name:    "metrics path shadows patient routes",
			data:    "[metrics]\nenabled = true\npath = \"/patients/metrics\"\n",
			wantErr: "reserved route",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(cliWithPath(writeConfig(t, tt.data)))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_RateLimitConfig_Enabled(t *testing.T) {
	path := writeConfig(t, `
[server.rate_limit]
enabled = true
requests_per_second = 50.0
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Server.RateLimit.Enabled {
		t.Error("expected RateLimit.Enabled = true")
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 50.0 {
		t.Errorf("RateLimit.RequestsPerSecond = %v, want 50.0", cfg.Server.RateLimit.RequestsPerSecond)
	}
}

func TestLoad_CORSRestricted(t *testing.T) {
	path := writeConfig(t, `
[cors]
allow_origins = ["https://app.oncoapp.example"]
allow_credentials = true
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PermissiveCORS() {
		t.Error("PermissiveCORS() = true for an explicit origin list, want false")
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "https://app.oncoapp.example" {
		t.Errorf("CORS.AllowOrigins = %v", cfg.CORS.AllowOrigins)
	}
}

func TestLoad_CORSEmptyOriginsIsWildcard(t *testing.T) {
	path := writeConfig(t, `
[cors]
allow_origins = []
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "*" {
		t.Errorf("CORS.AllowOrigins = %v, want [*]", cfg.CORS.AllowOrigins)
	}
	if !cfg.PermissiveCORS() {
		t.Error("PermissiveCORS() = false for an empty origin list with credentials, want true")
	}
}

func TestWarnPermissions_Loose(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	path := writeConfig(t, "# test")
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	if !strings.Contains(buf.String(), "readable by group/others") {
		t.Errorf("expected permission warning, got: %q", buf.String())
	}
}

func TestWarnPermissions_Strict(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	path := writeConfig(t, "# test")
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	if buf.Len() != 0 {
		t.Errorf("expected no warning for 0600 file, got: %q", buf.String())
	}
}

func TestFindConfigInPaths(t *testing.T) {
	existing := writeConfig(t, "")
	missing := filepath.Join(t.TempDir(), "absent.toml")

	if got := findConfigInPaths([]string{missing, existing}); got != existing {
		t.Errorf("findConfigInPaths() = %q, want %q", got, existing)
	}
	if got := findConfigInPaths([]string{missing}); got != "" {
		t.Errorf("findConfigInPaths() = %q, want empty", got)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	s := &ServerConfig{Host: "127.0.0.1", Port: 8000}
	if got := s.Addr(); got != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8000")
	}
}
