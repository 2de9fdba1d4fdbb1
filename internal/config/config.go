package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full agent configuration, loaded from config.yaml with
// CHARTCACHE_* environment variables overriding individual keys.
type Config struct {
	Server ServerConfig
	Remote RemoteConfig
	Cache  CacheConfig
	Search SearchConfig
	Queue  QueueConfig
	Tenant TenantConfig
	Misc   MiscConfig
}

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
}

type RemoteConfig struct {
	BaseURL             string
	Timeout             time.Duration
	AuthToken           string
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerCooldown     time.Duration
}

// CacheConfig carries per-resource cache bounds. TTLs follow the churn of
// each resource: appointments are date-driven and go stale fast, patient
// details are re-read constantly and can live longer.
type CacheConfig struct {
	PatientMaxEntries     int
	PatientTTL            time.Duration
	AppointmentMaxEntries int
	AppointmentTTL        time.Duration
	SuggestionMaxEntries  int
	SuggestionTTL         time.Duration
	MasterDataMaxEntries  int
	MasterDataTTL         time.Duration
}

type SearchConfig struct {
	Debounce time.Duration
}

type QueueConfig struct {
	FilePath      string
	RetryInterval time.Duration
	MaxAttempts   int
}

// TenantConfig provides the fallback scope used when a request carries no
// tenant headers (single-doctor desktop installs).
type TenantConfig struct {
	ClinicID string
	DoctorID string
}

type MiscConfig struct {
	GinMode  string
	LogLevel string
}

// LoadConfig reads config.yaml (if present) and environment overrides.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	// Environment variables automatically override config file values,
	// e.g. CHARTCACHE_SERVER_PORT, CHARTCACHE_QUEUE_FILE_PATH.
	viper.AutomaticEnv()
	viper.SetEnvPrefix("CHARTCACHE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file is fine: defaults plus env vars.
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               viper.GetInt("server.port"),
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    viper.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     viper.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: viper.GetString("server.cors_allowed_origins"),
		},
		Remote: RemoteConfig{
			BaseURL:             viper.GetString("remote.base_url"),
			Timeout:             viper.GetDuration("remote.timeout"),
			AuthToken:           viper.GetString("remote.auth_token"),
			BreakerMinRequests:  uint32(viper.GetUint("remote.breaker_min_requests")),
			BreakerFailureRatio: viper.GetFloat64("remote.breaker_failure_ratio"),
			BreakerCooldown:     viper.GetDuration("remote.breaker_cooldown"),
		},
		Cache: CacheConfig{
			PatientMaxEntries:     viper.GetInt("cache.patient_max_entries"),
			PatientTTL:            viper.GetDuration("cache.patient_ttl"),
			AppointmentMaxEntries: viper.GetInt("cache.appointment_max_entries"),
			AppointmentTTL:        viper.GetDuration("cache.appointment_ttl"),
			SuggestionMaxEntries:  viper.GetInt("cache.suggestion_max_entries"),
			SuggestionTTL:         viper.GetDuration("cache.suggestion_ttl"),
			MasterDataMaxEntries:  viper.GetInt("cache.masterdata_max_entries"),
			MasterDataTTL:         viper.GetDuration("cache.masterdata_ttl"),
		},
		Search: SearchConfig{
			Debounce: viper.GetDuration("search.debounce"),
		},
		Queue: QueueConfig{
			FilePath:      viper.GetString("queue.file_path"),
			RetryInterval: viper.GetDuration("queue.retry_interval"),
			MaxAttempts:   viper.GetInt("queue.max_attempts"),
		},
		Tenant: TenantConfig{
			ClinicID: viper.GetString("tenant.clinic_id"),
			DoctorID: viper.GetString("tenant.doctor_id"),
		},
		Misc: MiscConfig{
			GinMode:  viper.GetString("misc.gin_mode"),
			LogLevel: viper.GetString("misc.log_level"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 7315)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("server.idle_timeout", 120*time.Second)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("server.request_timeout", 15*time.Second)
	viper.SetDefault("server.cors_allowed_origins", "*")

	viper.SetDefault("remote.timeout", 15*time.Second)
	viper.SetDefault("remote.breaker_min_requests", 5)
	viper.SetDefault("remote.breaker_failure_ratio", 0.8)
	viper.SetDefault("remote.breaker_cooldown", 60*time.Second)

	viper.SetDefault("cache.patient_max_entries", 500)
	viper.SetDefault("cache.patient_ttl", 10*time.Minute)
	viper.SetDefault("cache.appointment_max_entries", 2500)
	viper.SetDefault("cache.appointment_ttl", 30*time.Second)
	viper.SetDefault("cache.suggestion_max_entries", 300)
	viper.SetDefault("cache.suggestion_ttl", 5*time.Minute)
	viper.SetDefault("cache.masterdata_max_entries", 150)
	viper.SetDefault("cache.masterdata_ttl", 5*time.Minute)

	viper.SetDefault("search.debounce", 300*time.Millisecond)

	viper.SetDefault("queue.file_path", "./data/pending_uploads.json")
	viper.SetDefault("queue.retry_interval", 20*time.Second)
	viper.SetDefault("queue.max_attempts", 20)

	viper.SetDefault("misc.gin_mode", "release")
	viper.SetDefault("misc.log_level", "info")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Remote.BaseURL == "" {
		return errors.New("remote base URL is required")
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("remote timeout must be positive")
	}
	if c.Cache.PatientMaxEntries <= 0 || c.Cache.AppointmentMaxEntries <= 0 ||
		c.Cache.SuggestionMaxEntries <= 0 || c.Cache.MasterDataMaxEntries <= 0 {
		return errors.New("cache max entries must be positive")
	}
	if c.Cache.PatientTTL <= 0 || c.Cache.AppointmentTTL <= 0 ||
		c.Cache.SuggestionTTL <= 0 || c.Cache.MasterDataTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}
	if c.Search.Debounce < 0 {
		return errors.New("search debounce must not be negative")
	}
	if c.Queue.FilePath == "" {
		return errors.New("queue file path is required")
	}
	if c.Queue.RetryInterval <= 0 {
		return errors.New("queue retry interval must be positive")
	}
	if c.Queue.MaxAttempts <= 0 {
		return errors.New("queue max attempts must be positive")
	}
	return nil
}
