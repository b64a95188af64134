package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  name: test\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "test" {
		t.Errorf("app.name = %q", cfg.App.Name)
	}
	if cfg.Electrum.MaxAttempts != 5 {
		t.Errorf("max_attempts = %d", cfg.Electrum.MaxAttempts)
	}
	if cfg.Electrum.RetryDelay != 500*time.Millisecond {
		t.Errorf("retry_delay = %s", cfg.Electrum.RetryDelay)
	}
	if cfg.Electrum.OnionDelay != 4*time.Second {
		t.Errorf("onion delay = %s", cfg.Electrum.OnionDelay)
	}
	if cfg.Cache.Backend != "bbolt" {
		t.Errorf("cache.backend = %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Passphrase != DefaultCachePassphrase {
		t.Error("expected default cache passphrase")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ELC_CACHE_BACKEND", "sqlite")
	t.Setenv("ELC_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("electrum:\n  peers: [\"tls://electrum.example.com:50002\"]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("cache.backend = %q", cfg.Cache.Backend)
	}
	if cfg.App.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.App.LogLevel)
	}
	if len(cfg.Electrum.Peers) != 1 || cfg.Electrum.Peers[0] != "tls://electrum.example.com:50002" {
		t.Errorf("peers = %v", cfg.Electrum.Peers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no peers", func(c *Config) { c.Electrum.Peers = nil }, true},
		{"zero attempts", func(c *Config) { c.Electrum.MaxAttempts = 0 }, true},
		{"bad backend", func(c *Config) { c.Cache.Backend = "redis" }, true},
		{"no passphrase", func(c *Config) { c.Cache.Passphrase = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Electrum: ElectrumConfig{Peers: []string{"tcp://a:1"}, MaxAttempts: 5},
				Cache:    CacheConfig{Backend: "bbolt", Passphrase: "x"},
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
