package observability

import (
	"testing"

	"github.com/smallbiznis/ticketbot/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("DEPLOYMENT_ENV", "")
	t.Setenv("SERVICE_VERSION", "")

	cfg := LoadConfig(config.Config{Environment: "production", AppVersion: "1.2.3"})
	if cfg.ServiceName != "ticketbot" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected log defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.Version != "1.2.3" {
		t.Fatalf("expected version from app config, got %q", cfg.Version)
	}
	if cfg.Debug() {
		t.Fatalf("production info level should not be debug")
	}
}

func TestDebugInDevelopment(t *testing.T) {
	cfg := Config{Environment: "development", LogLevel: "info"}
	if !cfg.Debug() {
		t.Fatalf("expected debug in development")
	}
	cfg = Config{Environment: "production", LogLevel: "DEBUG"}
	if !cfg.Debug() {
		t.Fatalf("expected debug for debug level")
	}
}
