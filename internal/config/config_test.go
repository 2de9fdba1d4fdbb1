package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 7315},
		Remote: RemoteConfig{BaseURL: "https://api.example.test", Timeout: 15 * time.Second},
		Cache: CacheConfig{
			PatientMaxEntries:     500,
			PatientTTL:            10 * time.Minute,
			AppointmentMaxEntries: 2500,
			AppointmentTTL:        30 * time.Second,
			SuggestionMaxEntries:  300,
			SuggestionTTL:         5 * time.Minute,
			MasterDataMaxEntries:  150,
			MasterDataTTL:         5 * time.Minute,
		},
		Search: SearchConfig{Debounce: 300 * time.Millisecond},
		Queue: QueueConfig{
			FilePath:      "./data/pending_uploads.json",
			RetryInterval: 20 * time.Second,
			MaxAttempts:   20,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"missing remote base URL", func(c *Config) { c.Remote.BaseURL = "" }, true},
		{"zero remote timeout", func(c *Config) { c.Remote.Timeout = 0 }, true},
		{"zero patient cache size", func(c *Config) { c.Cache.PatientMaxEntries = 0 }, true},
		{"negative appointment TTL", func(c *Config) { c.Cache.AppointmentTTL = -time.Second }, true},
		{"negative debounce", func(c *Config) { c.Search.Debounce = -time.Millisecond }, true},
		{"zero debounce is allowed", func(c *Config) { c.Search.Debounce = 0 }, false},
		{"missing queue file path", func(c *Config) { c.Queue.FilePath = "" }, true},
		{"zero retry interval", func(c *Config) { c.Queue.RetryInterval = 0 }, true},
		{"zero max attempts", func(c *Config) { c.Queue.MaxAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfig_DefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("CHARTCACHE_REMOTE_BASE_URL", "https://api.example.test")
	t.Setenv("CHARTCACHE_SERVER_PORT", "9100")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("expected env override port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Remote.BaseURL != "https://api.example.test" {
		t.Errorf("unexpected remote base URL %q", cfg.Remote.BaseURL)
	}
	if cfg.Cache.PatientMaxEntries != 500 {
		t.Errorf("expected default patient cache size 500, got %d", cfg.Cache.PatientMaxEntries)
	}
	if cfg.Cache.AppointmentTTL != 30*time.Second {
		t.Errorf("expected default appointment TTL 30s, got %v", cfg.Cache.AppointmentTTL)
	}
	if cfg.Search.Debounce != 300*time.Millisecond {
		t.Errorf("expected default debounce 300ms, got %v", cfg.Search.Debounce)
	}
	if cfg.Queue.MaxAttempts != 20 {
		t.Errorf("expected default max attempts 20, got %d", cfg.Queue.MaxAttempts)
	}
}

func TestLoadConfig_MissingRemoteBaseURL(t *testing.T) {
	if _, err := LoadConfig(); err == nil {
		t.Error("expected an error without a remote base URL")
	}
}
