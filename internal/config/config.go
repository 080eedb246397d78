// Package config handles configuration loading for EvaScan.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	yaml "go.yaml.in/yaml/v3"

	"github.com/evametrics/evascan/pkg/models"
)

// Config represents the complete application configuration.
type Config struct {
	Assumptions AssumptionsConfig `mapstructure:"assumptions" yaml:"assumptions" json:"assumptions"`
	Batch       BatchConfig       `mapstructure:"batch"       yaml:"batch"       json:"batch"`
	Source      SourceConfig      `mapstructure:"source"      yaml:"source"      json:"source"`
	News        NewsConfig        `mapstructure:"news"        yaml:"news"        json:"news"`
	API         APIConfig         `mapstructure:"api"         yaml:"api"         json:"api"`
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"     json:"logging"`
}

// AssumptionsConfig holds the rate assumptions fed to the calculators.
// All rates are fractions: 0.0435 means 4.35%.
type AssumptionsConfig struct {
	RiskFreeRate float64 `mapstructure:"risk_free_rate" yaml:"risk_free_rate" json:"risk_free_rate"`
	MarketReturn float64 `mapstructure:"market_return"  yaml:"market_return"  json:"market_return"`
	TaxRate      float64 `mapstructure:"tax_rate"       yaml:"tax_rate"       json:"tax_rate"`
	DebtRate     float64 `mapstructure:"debt_rate"      yaml:"debt_rate"      json:"debt_rate"`
	DefaultBeta  float64 `mapstructure:"default_beta"   yaml:"default_beta"   json:"default_beta"`
}

// ToAssumptions converts the config group into the calculator input type.
func (a AssumptionsConfig) ToAssumptions() models.Assumptions {
	return models.Assumptions{
		RiskFreeRate: a.RiskFreeRate,
		MarketReturn: a.MarketReturn,
		TaxRate:      a.TaxRate,
		DebtRate:     a.DebtRate,
		DefaultBeta:  a.DefaultBeta,
	}
}

// BatchConfig holds batch orchestration settings.
type BatchConfig struct {
	MaxTickers      int `mapstructure:"max_tickers"       yaml:"max_tickers"       json:"max_tickers"`       // hard-capped at 50
	FetchIntervalMS int `mapstructure:"fetch_interval_ms" yaml:"fetch_interval_ms" json:"fetch_interval_ms"` // pause between ticker fetches
}

// SourceConfig holds market data source settings.
type SourceConfig struct {
	BaseURL           string `mapstructure:"base_url"            yaml:"base_url"            json:"base_url"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec" json:"request_timeout_sec"`
	ScrapeFallback    bool   `mapstructure:"scrape_fallback"     yaml:"scrape_fallback"     json:"scrape_fallback"` // scrape key statistics when the API omits scalars
}

// NewsConfig holds RSS headline feed settings.
type NewsConfig struct {
	CacheTTLSec int `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec" json:"cache_ttl_sec"`
	MaxArticles int `mapstructure:"max_articles"  yaml:"max_articles"  json:"max_articles"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// MaxTickersCap is the hard upper bound on tickers per batch, whatever
// the config file says.
const MaxTickersCap = 50

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.evascan/config.yaml (home directory)
//  3. /etc/evascan/config.yaml (system)
//
// Environment variables override config file values.
// Format: EVASCAN_<SECTION>_<KEY>, e.g., EVASCAN_ASSUMPTIONS_TAX_RATE
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".evascan"))
	v.AddConfigPath("/etc/evascan")

	v.SetEnvPrefix("EVASCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Normalize()
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("EVASCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Normalize()
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Rate assumptions
	v.SetDefault("assumptions.risk_free_rate", 0.0435)
	v.SetDefault("assumptions.market_return", 0.085)
	v.SetDefault("assumptions.tax_rate", 0.21)
	v.SetDefault("assumptions.debt_rate", 0.055)
	v.SetDefault("assumptions.default_beta", 1.0)

	// Batch defaults
	v.SetDefault("batch.max_tickers", 10)
	v.SetDefault("batch.fetch_interval_ms", 1000)

	// Data source defaults
	v.SetDefault("source.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("source.request_timeout_sec", 30)
	v.SetDefault("source.scrape_fallback", false)

	// News defaults
	v.SetDefault("news.cache_ttl_sec", 300) // 5 minutes
	v.SetDefault("news.max_articles", 20)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8090)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Normalize clamps values the rest of the program assumes are sane.
// Load applies it automatically; callers that mutate a Config afterwards
// should re-apply it.
func (c *Config) Normalize() {
	if c.Batch.MaxTickers < 1 {
		c.Batch.MaxTickers = 10
	}
	if c.Batch.MaxTickers > MaxTickersCap {
		c.Batch.MaxTickers = MaxTickersCap
	}
	if c.Batch.FetchIntervalMS < 0 {
		c.Batch.FetchIntervalMS = 0
	}
	if c.Source.RequestTimeoutSec < 1 {
		c.Source.RequestTimeoutSec = 30
	}
	if c.News.MaxArticles < 1 {
		c.News.MaxArticles = 20
	}
}

// ConfigFilePath returns the file the running configuration persists to:
// the first existing file in the search order, else the per-user default.
func ConfigFilePath() string {
	candidates := []string{
		filepath.Join("config", "config.yaml"),
		filepath.Join(homeDir(), ".evascan", "config.yaml"),
		"/etc/evascan/config.yaml",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return candidates[1]
}

// SaveToFile writes the configuration to path as YAML, creating parent
// directories as needed.
func SaveToFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
