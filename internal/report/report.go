// Package report renders batch results and per-ticker metrics as plain
// text for terminal output. All value formatting goes through
// internal/format; nothing here touches raw numbers.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/evametrics/evascan/internal/format"
	"github.com/evametrics/evascan/pkg/models"
)

const reportWidth = 72

// GenerateBatch renders the full batch report: header, summary table,
// one section per successful ticker, and the error list.
func GenerateBatch(result *models.BatchResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("batch result is nil")
	}

	var sb strings.Builder
	line := strings.Repeat("═", reportWidth)
	thinLine := strings.Repeat("─", reportWidth)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  EvaScan — Derived Value Metrics\n")
	sb.WriteString(fmt.Sprintf("  Tickers: %d | Succeeded: %d | Failed: %d | Took: %s\n",
		len(result.Tickers), result.Succeeded(), result.Failed(),
		FormatDuration(result.FinishedAt.Sub(result.StartedAt))))
	sb.WriteString(fmt.Sprintf("  Assumptions: Rf %s | Rm %s | Tax %s | Rd %s | Beta* %.2f\n",
		format.Percent(models.Float(result.Assumptions.RiskFreeRate)),
		format.Percent(models.Float(result.Assumptions.MarketReturn)),
		format.Percent(models.Float(result.Assumptions.TaxRate)),
		format.Percent(models.Float(result.Assumptions.DebtRate)),
		result.Assumptions.DefaultBeta))
	sb.WriteString(line + "\n")

	writeSummaryTable(&sb, result)

	// Per-ticker detail sections, in request order.
	for _, ticker := range result.Tickers {
		m, ok := result.Metrics[ticker]
		if !ok {
			continue
		}
		sb.WriteString(thinLine + "\n")
		writeTickerSection(&sb, m)
	}

	if result.Failed() > 0 {
		sb.WriteString(thinLine + "\n")
		sb.WriteString("\n  ■ ERRORS\n")
		for _, ticker := range result.Tickers {
			if rec, ok := result.Errors[ticker]; ok {
				sb.WriteString(fmt.Sprintf("    %-10s %s\n", rec.Ticker, rec.Reason))
			}
		}
	}

	sb.WriteString("\n" + line + "\n")
	return sb.String(), nil
}

// GenerateTicker renders one company's metrics as a standalone report.
func GenerateTicker(m *models.DerivedMetrics) (string, error) {
	if m == nil {
		return "", fmt.Errorf("metrics are nil")
	}

	var sb strings.Builder
	line := strings.Repeat("═", reportWidth)

	sb.WriteString("\n" + line + "\n")
	writeTickerSection(&sb, m)
	sb.WriteString(line + "\n")
	return sb.String(), nil
}

// writeSummaryTable writes the one-line-per-ticker overview.
func writeSummaryTable(sb *strings.Builder, result *models.BatchResult) {
	sb.WriteString("\n  ■ SUMMARY\n")
	sb.WriteString(fmt.Sprintf("    %-8s %10s %10s %12s %8s\n",
		"Ticker", "ROIC", "WACC", "EVA", "Value?"))
	for _, ticker := range result.Tickers {
		if m, ok := result.Metrics[ticker]; ok {
			sb.WriteString(fmt.Sprintf("    %-8s %10s %10s %12s %8s\n",
				m.Ticker,
				format.Percent(m.ROIC),
				format.Percent(m.WACC),
				format.Compact(m.EVA),
				format.Verdict(m.CreatesValue)))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %-8s %10s %10s %12s %8s\n",
			ticker, format.NA, format.NA, format.NA, "error"))
	}
}

// writeTickerSection writes the full metric breakdown for one company.
func writeTickerSection(sb *strings.Builder, m *models.DerivedMetrics) {
	name := m.Name
	if name == "" {
		name = m.Ticker
	}
	sb.WriteString(fmt.Sprintf("\n  %s (%s)\n", name, m.Ticker))
	if m.Sector != "" || m.Industry != "" {
		sb.WriteString(fmt.Sprintf("  Sector: %s | Industry: %s\n", orDash(m.Sector), orDash(m.Industry)))
	}

	row := func(label, value string) {
		sb.WriteString(fmt.Sprintf("    %-22s %s\n", label, value))
	}

	sb.WriteString("\n  ■ MARKET\n")
	row("Price", format.Number(m.Price))
	row("Market Cap", format.Compact(m.MarketCap))
	row("Beta", format.Number(m.Beta))
	row("Trailing P/E", format.Number(m.TrailingPE))
	row("Price/Book", format.Number(m.PriceToBook))
	row("Dividend Rate", format.Number(m.DividendRate))
	row("Payout Ratio", format.Percent(m.PayoutRatio))

	sb.WriteString("\n  ■ COST OF CAPITAL\n")
	row("Cost of Equity", format.Percent(m.CostOfEquity))
	row("Cost of Debt", format.Percent(m.CostOfDebt))
	row("Total Debt", format.Compact(m.TotalDebt))
	row("WACC", format.Percent(m.WACC))

	sb.WriteString("\n  ■ RETURNS ON CAPITAL\n")
	row("NOPAT", format.Compact(m.NOPAT))
	row("Invested Capital", format.Compact(m.InvestedCapital))
	row("ROIC", format.Percent(m.ROIC))
	row("EVA", format.Compact(m.EVA))
	row("Creates Value", format.Verdict(m.CreatesValue))

	sb.WriteString("\n  ■ GROWTH (annual)\n")
	row("Revenue CAGR", format.Percent(m.RevenueCAGR))
	row("Net Income CAGR", format.Percent(m.NetIncomeCAGR))
	row("Free Cash Flow CAGR", format.Percent(m.FreeCashFlowCAGR))

	sb.WriteString("\n  ■ PROFITABILITY & LIQUIDITY\n")
	row("Return on Assets", format.Percent(m.ReturnOnAssets))
	row("Return on Equity", format.Percent(m.ReturnOnEquity))
	row("Operating Margin", format.Percent(m.OperatingMargin))
	row("Profit Margin", format.Percent(m.ProfitMargin))
	row("Current Ratio", format.Number(m.CurrentRatio))
	row("Quick Ratio", format.Number(m.QuickRatio))
	row("Cash Ratio", format.Number(m.CashRatio))
	row("Debt/Equity", format.Number(m.DebtToEquity))
	row("LT Debt/Equity", format.Number(m.LTDebtToEquity))
	row("Effective Tax Rate", format.Percent(m.EffectiveTaxRate))

	sb.WriteString("\n  ■ VALUATION\n")
	row("Equity Book Value", format.Compact(m.EquityBookValue))
	row("P/FCF", format.Number(m.PriceToFCF))
	row("Cash Flow Ratio", format.Number(m.CashFlowRatio))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatDuration formats a duration for report headers.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
