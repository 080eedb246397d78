// Package models defines the core data structures used throughout EvaScan.
package models

import "time"

// Canonical statement line-item names. The data source translates provider
// row labels into these; the calculators look values up by them. The exact
// strings follow Yahoo Finance's fundamentals timeseries labels.
const (
	ItemTotalDebt              = "Total Debt"
	ItemLongTermDebt           = "Long Term Debt"
	ItemShortTermDebt          = "Short Term Debt"
	ItemCashAndEquivalents     = "Cash And Cash Equivalents"
	ItemCommonStockEquity      = "Common Stock Equity"
	ItemTotalStockholderEquity = "Total Stockholder Equity"
	ItemCurrentLiabilities     = "Total Current Liabilities"

	ItemEBIT             = "EBIT"
	ItemPretaxIncome     = "Ebt"
	ItemInterestExpense  = "Interest Expense"
	ItemIncomeTaxExpense = "Income Tax Expense"
	ItemTotalRevenue     = "Total Revenue"
	ItemNetIncome        = "Net Income"

	ItemOperatingCashFlow  = "Operating Cash Flow"
	ItemFreeCashFlow       = "Free Cash Flow"
	ItemCapitalExpenditure = "Capital Expenditure"
)

// Series holds one statement line item across reporting periods, most
// recent period first. A nil entry means the provider reported no value
// for that period.
type Series []*float64

// Latest returns the most recent value in the series.
func (s Series) Latest() (float64, bool) {
	if len(s) == 0 || s[0] == nil {
		return 0, false
	}
	return *s[0], true
}

// At returns the value for period index i (0 = most recent).
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) || s[i] == nil {
		return 0, false
	}
	return *s[i], true
}

// StatementTable is one financial statement as a rectangular table:
// line items keyed by canonical name, one column per reporting period,
// most recent period first.
type StatementTable struct {
	Periods []string          `json:"periods"` // e.g., "2024-12-31"
	Items   map[string]Series `json:"items"`
}

// Item returns the series for a canonical line-item name, or nil when the
// statement does not carry that row.
func (t *StatementTable) Item(name string) Series {
	if t == nil || t.Items == nil {
		return nil
	}
	return t.Items[name]
}

// Latest returns the most recent value of a line item. The second return
// is false when the row is absent or its most recent cell is empty.
func (t *StatementTable) Latest(name string) (float64, bool) {
	return t.Item(name).Latest()
}

// Has reports whether the statement carries a row for name with at least
// one non-empty cell.
func (t *StatementTable) Has(name string) bool {
	for _, v := range t.Item(name) {
		if v != nil {
			return true
		}
	}
	return false
}

// RawFinancialSnapshot is everything fetched for one ticker in a single
// pass: market scalars plus the three annual statement histories. It is
// the sole input to the metric calculators; fetching and deriving stay
// separate so the same snapshot can be re-derived under new assumptions.
type RawFinancialSnapshot struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
	Country  string `json:"country,omitempty"`
	Currency string `json:"currency,omitempty"`

	// Market and profile scalars. A nil pointer means the provider did not
	// report the field; the calculators degrade rather than assume zero.
	Price             *float64 `json:"price,omitempty"`
	MarketCap         *float64 `json:"market_cap,omitempty"`
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`
	Beta              *float64 `json:"beta,omitempty"`
	TrailingPE        *float64 `json:"trailing_pe,omitempty"`
	PriceToBook       *float64 `json:"price_to_book,omitempty"`
	DividendRate      *float64 `json:"dividend_rate,omitempty"`
	PayoutRatio       *float64 `json:"payout_ratio,omitempty"`
	ReturnOnAssets    *float64 `json:"return_on_assets,omitempty"`
	ReturnOnEquity    *float64 `json:"return_on_equity,omitempty"`
	CurrentRatio      *float64 `json:"current_ratio,omitempty"`
	QuickRatio        *float64 `json:"quick_ratio,omitempty"`
	CashRatio         *float64 `json:"cash_ratio,omitempty"`
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty"`
	LTDebtToEquity    *float64 `json:"lt_debt_to_equity,omitempty"`
	OperatingMargin   *float64 `json:"operating_margin,omitempty"`
	ProfitMargin      *float64 `json:"profit_margin,omitempty"`

	BalanceSheet StatementTable `json:"balance_sheet"`
	Income       StatementTable `json:"income_statement"`
	CashFlow     StatementTable `json:"cash_flow"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Float returns a pointer to v. Convenience for building snapshots with
// optional fields.
func Float(v float64) *float64 {
	return &v
}
