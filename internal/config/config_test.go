package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Create temporary config file
	content := `
server:
  port: 9090
  host: "127.0.0.1"

database:
  driver: "sqlite"
  path: "/tmp/ytclipper-test.db"

clipper:
  workDir: "/tmp/clips"
  maxClipDuration: 600
  fallbackAuthContexts: ["brave", "opera"]
`

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Load config
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Expected driver sqlite, got %s", cfg.Database.Driver)
	}

	if cfg.Clipper.MaxClipDuration != 600 {
		t.Errorf("Expected max clip duration 600, got %v", cfg.Clipper.MaxClipDuration)
	}

	if len(cfg.Clipper.FallbackAuthContexts) != 2 || cfg.Clipper.FallbackAuthContexts[0] != "brave" {
		t.Errorf("Expected fallback contexts [brave opera], got %v", cfg.Clipper.FallbackAuthContexts)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	if cfg.Clipper.WorkDir != "uploads" {
		t.Errorf("Expected workDir uploads, got %s", cfg.Clipper.WorkDir)
	}
	if cfg.Clipper.MaxClipDuration != 3600 {
		t.Errorf("Expected max clip duration 3600, got %v", cfg.Clipper.MaxClipDuration)
	}
	if cfg.Clipper.ClipRetention != time.Hour {
		t.Errorf("Expected retention 1h, got %v", cfg.Clipper.ClipRetention)
	}
	if cfg.Clipper.PrimaryAuthContext != "chrome" {
		t.Errorf("Expected primary auth context chrome, got %s", cfg.Clipper.PrimaryAuthContext)
	}
	want := []string{"firefox", "edge", "safari"}
	if len(cfg.Clipper.FallbackAuthContexts) != len(want) {
		t.Fatalf("Expected fallback contexts %v, got %v", want, cfg.Clipper.FallbackAuthContexts)
	}
	for i := range want {
		if cfg.Clipper.FallbackAuthContexts[i] != want[i] {
			t.Errorf("Fallback context %d: expected %s, got %s", i, want[i], cfg.Clipper.FallbackAuthContexts[i])
		}
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	cfg.Clipper.MaxClipDuration = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero max clip duration")
	}

	cfg.Clipper.MaxClipDuration = 60
	cfg.Database.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unsupported driver")
	}

	cfg.Database.Driver = "postgres"
	cfg.Auth.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for auth without secret")
	}

	cfg.Auth.JWTSecret = "s3cret"
	cfg.Webhook.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for webhooks without urls")
	}

	cfg.Webhook.URLs = []string{"https://hooks.example.com/clips"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}
