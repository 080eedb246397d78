package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	// Unset any env vars that would interfere
	envVars := []string{
		"EVASCAN_ASSUMPTIONS_RISK_FREE_RATE", "EVASCAN_ASSUMPTIONS_MARKET_RETURN",
		"EVASCAN_ASSUMPTIONS_TAX_RATE", "EVASCAN_BATCH_MAX_TICKERS", "EVASCAN_API_PORT",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Assumption defaults
	if cfg.Assumptions.RiskFreeRate != 0.0435 {
		t.Errorf("Assumptions.RiskFreeRate: got %f, want 0.0435", cfg.Assumptions.RiskFreeRate)
	}
	if cfg.Assumptions.MarketReturn != 0.085 {
		t.Errorf("Assumptions.MarketReturn: got %f, want 0.085", cfg.Assumptions.MarketReturn)
	}
	if cfg.Assumptions.TaxRate != 0.21 {
		t.Errorf("Assumptions.TaxRate: got %f, want 0.21", cfg.Assumptions.TaxRate)
	}
	if cfg.Assumptions.DebtRate != 0.055 {
		t.Errorf("Assumptions.DebtRate: got %f, want 0.055", cfg.Assumptions.DebtRate)
	}
	if cfg.Assumptions.DefaultBeta != 1.0 {
		t.Errorf("Assumptions.DefaultBeta: got %f, want 1.0", cfg.Assumptions.DefaultBeta)
	}

	// Batch defaults
	if cfg.Batch.MaxTickers != 10 {
		t.Errorf("Batch.MaxTickers: got %d, want 10", cfg.Batch.MaxTickers)
	}
	if cfg.Batch.FetchIntervalMS != 1000 {
		t.Errorf("Batch.FetchIntervalMS: got %d, want 1000", cfg.Batch.FetchIntervalMS)
	}

	// Source defaults
	if cfg.Source.BaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("Source.BaseURL: got %q", cfg.Source.BaseURL)
	}
	if cfg.Source.RequestTimeoutSec != 30 {
		t.Errorf("Source.RequestTimeoutSec: got %d, want 30", cfg.Source.RequestTimeoutSec)
	}
	if cfg.Source.ScrapeFallback {
		t.Error("Source.ScrapeFallback should default to false")
	}

	// News defaults
	if cfg.News.CacheTTLSec != 300 {
		t.Errorf("News.CacheTTLSec: got %d, want 300", cfg.News.CacheTTLSec)
	}
	if cfg.News.MaxArticles != 20 {
		t.Errorf("News.MaxArticles: got %d, want 20", cfg.News.MaxArticles)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port: got %d, want 8090", cfg.API.Port)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
assumptions:
  risk_free_rate: 0.02
  market_return: 0.07
  tax_rate: 0.25
batch:
  max_tickers: 25
  fetch_interval_ms: 250
source:
  scrape_fallback: true
api:
  port: 9090
logging:
  level: "debug"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Assumptions.RiskFreeRate != 0.02 {
		t.Errorf("Assumptions.RiskFreeRate: got %f, want 0.02", cfg.Assumptions.RiskFreeRate)
	}
	if cfg.Assumptions.MarketReturn != 0.07 {
		t.Errorf("Assumptions.MarketReturn: got %f, want 0.07", cfg.Assumptions.MarketReturn)
	}
	if cfg.Assumptions.TaxRate != 0.25 {
		t.Errorf("Assumptions.TaxRate: got %f, want 0.25", cfg.Assumptions.TaxRate)
	}
	// Untouched keys keep their defaults
	if cfg.Assumptions.DebtRate != 0.055 {
		t.Errorf("Assumptions.DebtRate: got %f, want default 0.055", cfg.Assumptions.DebtRate)
	}
	if cfg.Batch.MaxTickers != 25 {
		t.Errorf("Batch.MaxTickers: got %d, want 25", cfg.Batch.MaxTickers)
	}
	if cfg.Batch.FetchIntervalMS != 250 {
		t.Errorf("Batch.FetchIntervalMS: got %d, want 250", cfg.Batch.FetchIntervalMS)
	}
	if !cfg.Source.ScrapeFallback {
		t.Error("Source.ScrapeFallback: got false, want true")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── normalize ──

func TestNormalizeClampsBatchLimits(t *testing.T) {
	cfg := &Config{}
	cfg.Batch.MaxTickers = 500
	cfg.Batch.FetchIntervalMS = -5
	cfg.Normalize()

	if cfg.Batch.MaxTickers != MaxTickersCap {
		t.Errorf("MaxTickers: got %d, want cap %d", cfg.Batch.MaxTickers, MaxTickersCap)
	}
	if cfg.Batch.FetchIntervalMS != 0 {
		t.Errorf("FetchIntervalMS: got %d, want 0", cfg.Batch.FetchIntervalMS)
	}

	cfg.Batch.MaxTickers = 0
	cfg.Normalize()
	if cfg.Batch.MaxTickers != 10 {
		t.Errorf("MaxTickers: got %d, want fallback 10", cfg.Batch.MaxTickers)
	}
}

// ── ToAssumptions ──

func TestToAssumptions(t *testing.T) {
	ac := AssumptionsConfig{
		RiskFreeRate: 0.03,
		MarketReturn: 0.09,
		TaxRate:      0.28,
		DebtRate:     0.06,
		DefaultBeta:  1.1,
	}
	a := ac.ToAssumptions()
	if a.RiskFreeRate != 0.03 || a.MarketReturn != 0.09 || a.TaxRate != 0.28 {
		t.Errorf("rates did not carry over: %+v", a)
	}
	if a.DebtRate != 0.06 || a.DefaultBeta != 1.1 {
		t.Errorf("debt rate / beta did not carry over: %+v", a)
	}
}

// ── Save / ConfigFilePath ──

func TestSaveToFileRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	cfg.Assumptions.TaxRate = 0.30
	cfg.API.Port = 7070

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() after save error: %v", err)
	}
	if loaded.Assumptions.TaxRate != 0.30 {
		t.Errorf("TaxRate after roundtrip: got %f, want 0.30", loaded.Assumptions.TaxRate)
	}
	if loaded.API.Port != 7070 {
		t.Errorf("API.Port after roundtrip: got %d, want 7070", loaded.API.Port)
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
