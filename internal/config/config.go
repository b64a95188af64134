// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Electrum  ElectrumConfig  `mapstructure:"electrum"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Support   SupportConfig   `mapstructure:"support"`
	OTP       OTPConfig       `mapstructure:"otp"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	Locale      string `mapstructure:"locale"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime by the monitor command
}

// ElectrumConfig holds Electrum server and client settings.
type ElectrumConfig struct {
	// Peers is the rotation list, each entry "scheme://host:port" with scheme
	// one of tcp, tls, ws or wss.
	Peers             []string      `mapstructure:"peers"`
	ClientName        string        `mapstructure:"client_name"`
	ProtocolVersion   string        `mapstructure:"protocol_version"`
	DialTimeout       time.Duration `mapstructure:"dial_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	TLSVerify         bool          `mapstructure:"tls_verify"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	OnionDelay        time.Duration `mapstructure:"onion_reconnect_delay"`
	WaitTimeout       time.Duration `mapstructure:"wait_timeout"`
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval"`
	FanOutRPS         float64       `mapstructure:"fan_out_rps"`
	FanOutBurst       int           `mapstructure:"fan_out_burst"`
	HistogramTimeout  time.Duration `mapstructure:"histogram_timeout"`
	Network           string        `mapstructure:"network"`
}

// CacheConfig holds local result cache settings.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"` // bbolt or sqlite
	Path       string `mapstructure:"path"`
	Passphrase string `mapstructure:"passphrase"`
}

// SupportConfig holds support server settings.
type SupportConfig struct {
	Servers []string      `mapstructure:"servers"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OTPConfig holds the wallets the CLI can decrypt OTP payloads for.
type OTPConfig struct {
	WIFs []string `mapstructure:"wifs"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin, otlp-grpc, otlp-http, console, none
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ELC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ELC_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ELC_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ELC_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.locale", "ELC_LOCALE", "LANG")

	// Electrum
	v.BindEnv("electrum.peers", "ELC_ELECTRUM_PEERS")
	v.BindEnv("electrum.tls_verify", "ELC_ELECTRUM_TLS_VERIFY")
	v.BindEnv("electrum.network", "ELC_NETWORK")

	// Cache
	v.BindEnv("cache.backend", "ELC_CACHE_BACKEND")
	v.BindEnv("cache.path", "ELC_CACHE_PATH")
	v.BindEnv("cache.passphrase", "ELC_CACHE_PASSPHRASE")

	// Support / OTP
	v.BindEnv("support.servers", "ELC_SUPPORT_SERVERS")
	v.BindEnv("otp.wifs", "ELC_OTP_WIFS")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ELC_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ELC_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ELC_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "electrum-core")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.locale", "en")

	// Electrum defaults
	v.SetDefault("electrum.peers", []string{"tcp://1.tcp.ap.ngrok.io:21920"})
	v.SetDefault("electrum.client_name", "bluewallet")
	v.SetDefault("electrum.protocol_version", "1.4")
	v.SetDefault("electrum.dial_timeout", "5s")
	v.SetDefault("electrum.request_timeout", "30s")
	v.SetDefault("electrum.tls_verify", false)
	v.SetDefault("electrum.max_attempts", 5)
	v.SetDefault("electrum.retry_delay", "500ms")
	v.SetDefault("electrum.reconnect_delay", "500ms")
	v.SetDefault("electrum.onion_reconnect_delay", "4s")
	v.SetDefault("electrum.wait_timeout", "30s")
	v.SetDefault("electrum.keep_alive_interval", "60s")
	v.SetDefault("electrum.fan_out_rps", 50)
	v.SetDefault("electrum.fan_out_burst", 10)
	v.SetDefault("electrum.histogram_timeout", "15s")
	v.SetDefault("electrum.network", "kbunet")

	// Cache defaults
	v.SetDefault("cache.backend", "bbolt")
	v.SetDefault("cache.path", "electrum-cache.db")
	v.SetDefault("cache.passphrase", DefaultCachePassphrase)

	// Support defaults
	v.SetDefault("support.timeout", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "electrum-core")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health defaults
	v.SetDefault("health.enabled", false)
	v.SetDefault("health.port", 8081)
}

// DefaultCachePassphrase keeps caches written by older clients readable.
const DefaultCachePassphrase = "fyegjitkyf[eqjnc.lf"

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Electrum.Peers) == 0 {
		return fmt.Errorf("electrum.peers cannot be empty")
	}
	if c.Electrum.MaxAttempts < 1 {
		return fmt.Errorf("electrum.max_attempts must be at least 1, got %d", c.Electrum.MaxAttempts)
	}
	switch c.Cache.Backend {
	case "bbolt", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid cache.backend: %s", c.Cache.Backend)
	}
	if c.Cache.Passphrase == "" {
		return fmt.Errorf("cache.passphrase is required")
	}
	return nil
}
