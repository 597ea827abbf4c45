package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %q", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.Engine != "google" {
		t.Errorf("expected engine google, got %q", cfg.Engine)
	}
	if cfg.ProviderTimeout != 30*time.Second {
		t.Errorf("expected 30s provider timeout, got %s", cfg.ProviderTimeout)
	}
	if cfg.GRPCPort != 0 {
		t.Errorf("expected grpc disabled, got port %d", cfg.GRPCPort)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TRANSLATEAPI_PORT", "9090")
	t.Setenv("TRANSLATEAPI_ENGINE", "libretranslate")
	t.Setenv("TRANSLATEAPI_PROVIDER_TIMEOUT", "5s")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.Engine != "libretranslate" {
		t.Errorf("expected engine libretranslate, got %q", cfg.Engine)
	}
	if cfg.ProviderTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.ProviderTimeout)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("TRANSLATEAPI_PORT", "9090")

	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := BindFlags(v, fs); err != nil {
		t.Fatalf("bind flags: %v", err)
	}
	if err := fs.Parse([]string{"--port", "7070", "--engine-url", "http://lt:5000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("expected flag port 7070, got %d", cfg.Port)
	}
	if cfg.EngineURL != "http://lt:5000" {
		t.Errorf("expected engine url from flag, got %q", cfg.EngineURL)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "translateapi.yaml")
	content := "port: 8181\nengine: mymemory\nemail: ops@example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8181 || cfg.Engine != "mymemory" || cfg.Email != "ops@example.com" {
		t.Errorf("config file values not applied: %+v", cfg)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"negative grpc port", func(c *Config) { c.GRPCPort = -1 }},
		{"grpc port collides", func(c *Config) { c.GRPCPort = c.Port }},
		{"zero provider timeout", func(c *Config) { c.ProviderTimeout = 0 }},
		{"zero body limit", func(c *Config) { c.MaxBodyBytes = 0 }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
		{"zero health interval with grpc", func(c *Config) { c.GRPCPort = 50051; c.HealthInterval = 0 }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Config{LogLevel: "debug", LogFormat: "json"}
	logger := cfg.NewLogger()
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("expected JSON formatter, got %T", logger.Formatter)
	}

	cfg = Config{LogLevel: "loud", LogFormat: "text"}
	logger = cfg.NewLogger()
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info fallback, got %s", logger.GetLevel())
	}
}
