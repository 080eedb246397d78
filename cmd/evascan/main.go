// EvaScan — value-creation metrics for US equities
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/evametrics/evascan/api"
	"github.com/evametrics/evascan/internal/analysis"
	"github.com/evametrics/evascan/internal/batch"
	"github.com/evametrics/evascan/internal/config"
	"github.com/evametrics/evascan/internal/datasource"
	"github.com/evametrics/evascan/internal/report"
	"github.com/evametrics/evascan/pkg/models"
	"github.com/evametrics/evascan/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "evascan",
	Short: "EvaScan — cost of capital and value-creation metrics for US equities",
	Long: `EvaScan fetches raw financial statements and derives cost-of-capital
and value-creation metrics (WACC, ROIC, EVA, growth rates) for one
ticker or a comma-separated batch. Every metric stays a raw fraction
until it is printed; a value the provider did not report renders as
n/a, never as zero.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("EvaScan %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [tickers]",
	Short: "Derive value metrics for one or more tickers",
	Long: `Fetch statements and derive metrics for a comma-separated ticker list.

Examples:
  evascan analyze AAPL
  evascan analyze AAPL,MSFT,INTC --tax-rate 0.25
  evascan analyze NVDA --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		runner := batch.NewRunner(newSource(), batch.Config{
			MaxTickers:    cfg.Batch.MaxTickers,
			FetchInterval: time.Duration(cfg.Batch.FetchIntervalMS) * time.Millisecond,
			Assumptions:   flagAssumptions(cmd, cfg.Assumptions.ToAssumptions()),
			OnProgress:    progressPrinter(asJSON),
		})

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		result, err := runner.Run(ctx, args)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		text, err := report.GenerateBatch(result)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "emit the raw batch result as JSON")
	addAssumptionFlags(analyzeCmd)
}

func addAssumptionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("risk-free", 0, "risk-free rate override (fraction, e.g. 0.0435)")
	cmd.Flags().Float64("market-return", 0, "expected market return override (fraction)")
	cmd.Flags().Float64("tax-rate", 0, "corporate tax rate override (fraction)")
	cmd.Flags().Float64("debt-rate", 0, "pre-tax cost of debt override (fraction)")
}

// flagAssumptions merges explicitly-set flags onto the configured base.
// Changed() rather than the value decides, so --tax-rate 0 is a real
// override.
func flagAssumptions(cmd *cobra.Command, base models.Assumptions) models.Assumptions {
	if cmd.Flags().Changed("risk-free") {
		base.RiskFreeRate, _ = cmd.Flags().GetFloat64("risk-free")
	}
	if cmd.Flags().Changed("market-return") {
		base.MarketReturn, _ = cmd.Flags().GetFloat64("market-return")
	}
	if cmd.Flags().Changed("tax-rate") {
		base.TaxRate, _ = cmd.Flags().GetFloat64("tax-rate")
	}
	if cmd.Flags().Changed("debt-rate") {
		base.DebtRate, _ = cmd.Flags().GetFloat64("debt-rate")
	}
	return base
}

// progressPrinter renders batch progress as status lines. JSON mode
// stays silent so stdout remains parseable.
func progressPrinter(quiet bool) batch.ProgressFunc {
	if quiet {
		return nil
	}
	return func(ev batch.Progress) {
		switch ev.Stage {
		case batch.StageStarted:
			fmt.Printf("🔍 Analyzing %d ticker(s)...\n", ev.Total)
		case batch.StageTicker:
			if ev.Err != "" {
				fmt.Printf("   [%d/%d] %s — %s\n", ev.Completed, ev.Total, ev.Ticker, ev.Err)
			} else {
				fmt.Printf("   [%d/%d] %s ✓\n", ev.Completed, ev.Total, ev.Ticker)
			}
		}
	}
}

// newSource builds the configured snapshot source.
func newSource() datasource.SnapshotSource {
	return datasource.NewYahooSource(datasource.YahooConfig{
		BaseURL:        cfg.Source.BaseURL,
		RequestTimeout: time.Duration(cfg.Source.RequestTimeoutSec) * time.Second,
		ScrapeFallback: cfg.Source.ScrapeFallback,
	})
}

// --- Metrics Command ---

var metricsCmd = &cobra.Command{
	Use:   "metrics [ticker]",
	Short: "Derive value metrics for a single ticker",
	Long: `Fetch one company's statements and print the full metric breakdown.

Examples:
  evascan metrics AAPL
  evascan metrics KO --tax-rate 0.25
  evascan metrics NVDA --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		ticker := utils.NormalizeTicker(args[0])

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		snap, err := newSource().GetSnapshot(ctx, ticker)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", ticker, err)
		}
		m := analysis.Derive(snap, flagAssumptions(cmd, cfg.Assumptions.ToAssumptions()))

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}

		text, err := report.GenerateTicker(m)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	metricsCmd.Flags().Bool("json", false, "emit the metrics record as JSON")
	addAssumptionFlags(metricsCmd)
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [ticker]",
	Short: "Show recent headlines",
	Long:  "Show recent market headlines, or headlines for one ticker.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		feed := datasource.NewNewsWithOptions(datasource.DefaultNewsSources,
			time.Duration(cfg.News.CacheTTLSec)*time.Second, cfg.News.MaxArticles)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var (
			articles []models.NewsArticle
			err      error
		)
		if len(args) == 1 {
			ticker := utils.NormalizeTicker(args[0])
			fmt.Printf("📰 Headlines: %s\n\n", ticker)
			articles, err = feed.GetTickerNews(ctx, ticker, limit)
		} else {
			fmt.Print("📰 Market Headlines\n\n")
			articles, err = feed.GetMarketNews(ctx, limit)
		}
		if err != nil {
			return err
		}

		if len(articles) == 0 {
			fmt.Println("No headlines right now.")
			return nil
		}
		for _, a := range articles {
			fmt.Printf("• %s\n", a.Title)
			fmt.Printf("  %s — %s\n", a.Source, a.PublishedAt.Format("Jan 2 15:04"))
			if a.URL != "" {
				fmt.Printf("  %s\n", a.URL)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 10, "maximum number of headlines")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		api.Version = version
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting EvaScan API server on %s\n", addr)
		return api.NewServer(cfg).ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  EvaScan — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus())
		fmt.Printf("  Time (ET):     %s\n", utils.FormatDateTimeET(utils.NowET()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Data Source:    %s\n", cfg.Source.BaseURL)
		fmt.Printf("    Scrape Backup:  %v\n", cfg.Source.ScrapeFallback)
		fmt.Printf("    Batch Cap:      %d tickers\n", cfg.Batch.MaxTickers)
		fmt.Printf("    API Server:     %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		a := cfg.Assumptions
		fmt.Println("  Assumptions:")
		fmt.Printf("    Risk-Free Rate: %.2f%%\n", a.RiskFreeRate*100)
		fmt.Printf("    Market Return:  %.2f%%\n", a.MarketReturn*100)
		fmt.Printf("    Tax Rate:       %.2f%%\n", a.TaxRate*100)
		fmt.Printf("    Debt Rate:      %.2f%%\n", a.DebtRate*100)
		fmt.Printf("    Default Beta:   %.2f\n", a.DefaultBeta)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
