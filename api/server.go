// Package api provides the HTTP REST API server for EvaScan.
//
// It exposes endpoints for batch analysis, single-ticker metrics, raw
// snapshots, headline feeds, runtime configuration, and WebSocket
// progress streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/evametrics/evascan/internal/analysis"
	"github.com/evametrics/evascan/internal/batch"
	"github.com/evametrics/evascan/internal/config"
	"github.com/evametrics/evascan/internal/datasource"
	"github.com/evametrics/evascan/pkg/models"
	"github.com/evametrics/evascan/pkg/utils"
)

// Version is reported by /health. The CLI stamps it at startup.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	source  datasource.SnapshotSource
	news    *datasource.News
	wsHub   *WSHub
	cfgPath string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) *Server {
	source := datasource.NewYahooSource(datasource.YahooConfig{
		BaseURL:        cfg.Source.BaseURL,
		RequestTimeout: time.Duration(cfg.Source.RequestTimeoutSec) * time.Second,
		ScrapeFallback: cfg.Source.ScrapeFallback,
	})
	news := datasource.NewNewsWithOptions(datasource.DefaultNewsSources,
		time.Duration(cfg.News.CacheTTLSec)*time.Second, cfg.News.MaxArticles)

	srv := &Server{
		cfg:     cfg,
		source:  source,
		news:    news,
		wsHub:   NewWSHub(),
		cfgPath: config.ConfigFilePath(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// SetSource replaces the snapshot source. Must be called before
// ListenAndServe; intended for tests.
func (s *Server) SetSource(src datasource.SnapshotSource) {
	s.source = src
}

// SetConfigPath overrides where PUT /api/v1/config persists the merged
// configuration.
func (s *Server) SetConfigPath(path string) {
	s.cfgPath = path
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Batch analysis
		r.Post("/analyze", s.handleAnalyze)

		// Single-ticker convenience
		r.Get("/metrics/{ticker}", s.handleMetrics)
		r.Get("/snapshot/{ticker}", s.handleSnapshot)

		// Headlines
		r.Get("/news", s.handleMarketNews)
		r.Get("/news/{ticker}", s.handleTickerNews)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handleUpdateConfig)

		// WebSocket progress stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze. Null assumption
// fields fall back to the configured values; the overrides apply to
// this run only.
type AnalyzeRequest struct {
	Tickers      []string `json:"tickers"`
	RiskFreeRate *float64 `json:"risk_free_rate,omitempty"`
	MarketReturn *float64 `json:"market_return,omitempty"`
	TaxRate      *float64 `json:"tax_rate,omitempty"`
	DebtRate     *float64 `json:"debt_rate,omitempty"`
	DefaultBeta  *float64 `json:"default_beta,omitempty"`
}

// assumptions merges the request's overrides onto the configured base.
func (r AnalyzeRequest) assumptions(base models.Assumptions) models.Assumptions {
	if r.RiskFreeRate != nil {
		base.RiskFreeRate = *r.RiskFreeRate
	}
	if r.MarketReturn != nil {
		base.MarketReturn = *r.MarketReturn
	}
	if r.TaxRate != nil {
		base.TaxRate = *r.TaxRate
	}
	if r.DebtRate != nil {
		base.DebtRate = *r.DebtRate
	}
	if r.DefaultBeta != nil {
		base.DefaultBeta = *r.DefaultBeta
	}
	return base
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":        "ok",
			"version":       Version,
			"source":        s.source.Name(),
			"market_status": utils.MarketStatus(),
			"time_et":       utils.FormatDateTimeET(utils.NowET()),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Tickers) == 0 {
		writeError(w, http.StatusBadRequest, "tickers is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	runner := batch.NewRunner(s.source, batch.Config{
		MaxTickers:    s.cfg.Batch.MaxTickers,
		FetchInterval: time.Duration(s.cfg.Batch.FetchIntervalMS) * time.Millisecond,
		Assumptions:   req.assumptions(s.cfg.Assumptions.ToAssumptions()),
		OnProgress: func(ev batch.Progress) {
			s.wsHub.Broadcast(WSMessage{Type: "progress", Data: ev})
		},
	})

	result, err := runner.Run(ctx, req.Tickers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    result,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	ticker = utils.NormalizeTicker(ticker)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	snap, err := s.source.GetSnapshot(ctx, ticker)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    analysis.Derive(snap, s.cfg.Assumptions.ToAssumptions()),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	ticker = utils.NormalizeTicker(ticker)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	snap, err := s.source.GetSnapshot(ctx, ticker)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    snap,
	})
}

func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	articles, err := s.news.GetMarketNews(ctx, queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    articles,
	})
}

func (s *Server) handleTickerNews(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	articles, err := s.news.GetTickerNews(ctx, ticker, queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    articles,
	})
}

// ============================================================
// Helpers
// ============================================================

// statusFor maps fetch errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, datasource.ErrTickerNotFound):
		return http.StatusNotFound
	case errors.Is(err, datasource.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// queryInt reads an integer query parameter, falling back on def when
// absent or unparseable.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
