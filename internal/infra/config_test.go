package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("MODEL_MAX_ATTEMPTS", "")
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ModelMaxAttempts != 3 {
		t.Errorf("ModelMaxAttempts = %d, want 3", cfg.ModelMaxAttempts)
	}
	if cfg.HTTPWriteTimeout != 0 {
		t.Errorf("HTTPWriteTimeout = %v, want 0 for streaming", cfg.HTTPWriteTimeout)
	}
	if cfg.StreamKeepAlive != 15*time.Second {
		t.Errorf("StreamKeepAlive = %v, want 15s", cfg.StreamKeepAlive)
	}
	if cfg.QueueClaimLease != 5*time.Minute {
		t.Errorf("QueueClaimLease = %v, want 5m", cfg.QueueClaimLease)
	}
	if cfg.DefaultLocale != "en" {
		t.Errorf("DefaultLocale = %q, want en", cfg.DefaultLocale)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadConfigParsesOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com ,")
	t.Setenv("WORKER_POLL_INTERVAL_MS", "250")
	t.Setenv("REPAIR_MAX_ATTEMPTS", "4")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("AllowedOrigins = %#v", cfg.AllowedOrigins)
	}
	if cfg.WorkerPollInterval != 250*time.Millisecond {
		t.Errorf("WorkerPollInterval = %v", cfg.WorkerPollInterval)
	}
	if cfg.RepairMaxAttempts != 4 {
		t.Errorf("RepairMaxAttempts = %d", cfg.RepairMaxAttempts)
	}
}
