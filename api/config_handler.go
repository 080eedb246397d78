// Configuration endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/evametrics/evascan/internal/config"
)

// configMu serialises writes to the config file.
var configMu sync.Mutex

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config     *config.Config `json:"config"`
	ConfigFile string         `json:"config_file"` // path the configuration persists to
}

// ConfigPatch is the body for PUT /api/v1/config. Null fields keep
// their current values. Zero is a legitimate value for every rate, so
// the patch uses pointers instead of a non-zero merge.
type ConfigPatch struct {
	Assumptions *AssumptionsPatch `json:"assumptions,omitempty"`
	Batch       *BatchPatch       `json:"batch,omitempty"`
	Source      *SourcePatch      `json:"source,omitempty"`
	News        *NewsPatch        `json:"news,omitempty"`
	API         *APIPatch         `json:"api,omitempty"`
	Logging     *LoggingPatch     `json:"logging,omitempty"`
}

// AssumptionsPatch updates the rate assumptions. Fractions, not
// percentages: 0.0435 means 4.35%.
type AssumptionsPatch struct {
	RiskFreeRate *float64 `json:"risk_free_rate,omitempty"`
	MarketReturn *float64 `json:"market_return,omitempty"`
	TaxRate      *float64 `json:"tax_rate,omitempty"`
	DebtRate     *float64 `json:"debt_rate,omitempty"`
	DefaultBeta  *float64 `json:"default_beta,omitempty"`
}

// BatchPatch updates batch orchestration settings.
type BatchPatch struct {
	MaxTickers      *int `json:"max_tickers,omitempty"`
	FetchIntervalMS *int `json:"fetch_interval_ms,omitempty"`
}

// SourcePatch updates data source settings. BaseURL and the request
// timeout apply on the next server start.
type SourcePatch struct {
	BaseURL           *string `json:"base_url,omitempty"`
	RequestTimeoutSec *int    `json:"request_timeout_sec,omitempty"`
	ScrapeFallback    *bool   `json:"scrape_fallback,omitempty"`
}

// NewsPatch updates headline feed settings.
type NewsPatch struct {
	CacheTTLSec *int `json:"cache_ttl_sec,omitempty"`
	MaxArticles *int `json:"max_articles,omitempty"`
}

// APIPatch updates server settings; applied on the next start.
type APIPatch struct {
	Host        *string  `json:"host,omitempty"`
	Port        *int     `json:"port,omitempty"`
	CORSOrigins []string `json:"cors_origins,omitempty"`
}

// LoggingPatch updates logging settings.
type LoggingPatch struct {
	Level  *string `json:"level,omitempty"`
	Format *string `json:"format,omitempty"`
}

// handleGetConfig returns the current (running) configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:     s.cfg,
			ConfigFile: s.cfgPath,
		},
	})
}

// handleUpdateConfig merges the provided partial configuration into the
// running config, persists it to disk, and returns the updated config.
// Assumption and batch changes take effect on the next analyze request.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch ConfigPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	configMu.Lock()
	defer configMu.Unlock()

	patch.apply(s.cfg)
	s.cfg.Normalize()

	if err := config.SaveToFile(s.cfg, s.cfgPath); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save config: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:     s.cfg,
			ConfigFile: s.cfgPath,
		},
	})
}

// apply copies every non-null patch field into dst.
func (p *ConfigPatch) apply(dst *config.Config) {
	if a := p.Assumptions; a != nil {
		if a.RiskFreeRate != nil {
			dst.Assumptions.RiskFreeRate = *a.RiskFreeRate
		}
		if a.MarketReturn != nil {
			dst.Assumptions.MarketReturn = *a.MarketReturn
		}
		if a.TaxRate != nil {
			dst.Assumptions.TaxRate = *a.TaxRate
		}
		if a.DebtRate != nil {
			dst.Assumptions.DebtRate = *a.DebtRate
		}
		if a.DefaultBeta != nil {
			dst.Assumptions.DefaultBeta = *a.DefaultBeta
		}
	}

	if b := p.Batch; b != nil {
		if b.MaxTickers != nil {
			dst.Batch.MaxTickers = *b.MaxTickers
		}
		if b.FetchIntervalMS != nil {
			dst.Batch.FetchIntervalMS = *b.FetchIntervalMS
		}
	}

	if src := p.Source; src != nil {
		if src.BaseURL != nil {
			dst.Source.BaseURL = *src.BaseURL
		}
		if src.RequestTimeoutSec != nil {
			dst.Source.RequestTimeoutSec = *src.RequestTimeoutSec
		}
		if src.ScrapeFallback != nil {
			dst.Source.ScrapeFallback = *src.ScrapeFallback
		}
	}

	if n := p.News; n != nil {
		if n.CacheTTLSec != nil {
			dst.News.CacheTTLSec = *n.CacheTTLSec
		}
		if n.MaxArticles != nil {
			dst.News.MaxArticles = *n.MaxArticles
		}
	}

	if a := p.API; a != nil {
		if a.Host != nil {
			dst.API.Host = *a.Host
		}
		if a.Port != nil {
			dst.API.Port = *a.Port
		}
		if len(a.CORSOrigins) > 0 {
			dst.API.CORSOrigins = a.CORSOrigins
		}
	}

	if l := p.Logging; l != nil {
		if l.Level != nil {
			dst.Logging.Level = *l.Level
		}
		if l.Format != nil {
			dst.Logging.Format = *l.Format
		}
	}
}
