// Package config provides configuration management for the evidence
// service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the evidence service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Providers contains bibliographic provider configurations.
	Providers ProvidersConfig `mapstructure:"providers"`
	// Search contains engine, cache, and scoring settings.
	Search SearchConfig `mapstructure:"search"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// Port is the HTTP server port (default: 8080).
	Port int `mapstructure:"port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum idle time for keep-alive connections.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes all metric names.
	Namespace string `mapstructure:"namespace"`
}

// ProvidersConfig holds bibliographic provider configurations.
type ProvidersConfig struct {
	// PubMed contains NCBI E-utilities settings.
	PubMed ProviderConfig `mapstructure:"pubmed"`
	// EuropePMC contains Europe PMC REST settings.
	EuropePMC ProviderConfig `mapstructure:"europepmc"`
}

// ProviderConfig holds the settings of one provider.
type ProviderConfig struct {
	// Enabled indicates whether this provider is queried.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the provider API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the provider API key, loaded exclusively from
	// environment variables (see loadSecrets).
	APIKey string `mapstructure:"-"`
	// Tool identifies the calling application to the provider.
	Tool string `mapstructure:"tool"`
	// Email is the contact address sent with requests.
	Email string `mapstructure:"email"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// MinInterval is the minimum interval between requests.
	MinInterval time.Duration `mapstructure:"min_interval"`
	// PageSize caps results requested per search.
	PageSize int `mapstructure:"page_size"`
}

// SearchConfig holds engine, cache, and scoring settings.
type SearchConfig struct {
	// TopK bounds the final result list.
	TopK int `mapstructure:"top_k"`
	// QueryTimeout bounds a whole aggregation.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	// FailureThreshold is consecutive provider failures before degradation.
	FailureThreshold int `mapstructure:"failure_threshold"`
	// CacheTTL is the result cache time-to-live.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// CacheCapacity bounds the result cache entry count.
	CacheCapacity int `mapstructure:"cache_capacity"`
	// MinScore is the inclusion threshold for scored records.
	MinScore float64 `mapstructure:"min_score"`
	// RelaxedMinScore replaces MinScore when fewer than TopK records remain.
	RelaxedMinScore float64 `mapstructure:"relaxed_min_score"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MEDEVIDENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/medconnect-evidence")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, env vars and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment
// variables. These fields use mapstructure:"-" so they can never come
// from config files.
func loadSecrets(cfg *Config) {
	cfg.Providers.PubMed.APIKey = os.Getenv("MEDEVIDENCE_PROVIDERS_PUBMED_API_KEY")
	cfg.Providers.EuropePMC.APIKey = os.Getenv("MEDEVIDENCE_PROVIDERS_EUROPEPMC_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "medevidence")

	// Provider defaults - PubMed
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("providers.pubmed.enabled", true)
	v.SetDefault("providers.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("providers.pubmed.tool", "medconnect-evidence")
	v.SetDefault("providers.pubmed.email", "")
	v.SetDefault("providers.pubmed.timeout", "15s")
	v.SetDefault("providers.pubmed.min_interval", "400ms") // NCBI allows 3 req/sec without an API key
	v.SetDefault("providers.pubmed.page_size", 20)

	// Provider defaults - Europe PMC
	v.SetDefault("providers.europepmc.enabled", true)
	v.SetDefault("providers.europepmc.base_url", "https://www.ebi.ac.uk/europepmc/webservices/rest")
	v.SetDefault("providers.europepmc.timeout", "15s")
	v.SetDefault("providers.europepmc.min_interval", "350ms")
	v.SetDefault("providers.europepmc.page_size", 20)

	// Search defaults. Scoring weights are tunable constants chosen
	// empirically; see search.DefaultScoreWeights.
	v.SetDefault("search.top_k", 10)
	v.SetDefault("search.query_timeout", "12s")
	v.SetDefault("search.failure_threshold", 3)
	v.SetDefault("search.cache_ttl", "30m")
	v.SetDefault("search.cache_capacity", 100)
	v.SetDefault("search.min_score", 15.0)
	v.SetDefault("search.relaxed_min_score", 8.0)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.Port)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if !c.Providers.PubMed.Enabled && !c.Providers.EuropePMC.Enabled {
		return fmt.Errorf("at least one provider must be enabled")
	}

	if c.Search.TopK <= 0 {
		return fmt.Errorf("search top_k must be positive")
	}
	if c.Search.QueryTimeout <= 0 {
		return fmt.Errorf("search query_timeout must be positive")
	}
	if c.Search.CacheCapacity <= 0 {
		return fmt.Errorf("search cache_capacity must be positive")
	}
	if c.Search.RelaxedMinScore > c.Search.MinScore {
		return fmt.Errorf("relaxed_min_score (%v) must be <= min_score (%v)", c.Search.RelaxedMinScore, c.Search.MinScore)
	}

	return nil
}
