package models

// Assumptions are the user-adjustable rates the calculators apply. Every
// value is a fraction, not a percentage: 0.0435 means 4.35%.
type Assumptions struct {
	RiskFreeRate float64 `json:"risk_free_rate"` // CAPM risk-free rate
	MarketReturn float64 `json:"market_return"`  // CAPM expected market return
	TaxRate      float64 `json:"tax_rate"`       // corporate tax rate for NOPAT and the WACC tax shield
	DebtRate     float64 `json:"debt_rate"`      // assumed pre-tax cost of debt
	DefaultBeta  float64 `json:"default_beta"`   // beta applied when the provider reports none
}

// DefaultAssumptions returns the baseline rates applied when the user
// configures nothing.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		RiskFreeRate: 0.0435,
		MarketReturn: 0.085,
		TaxRate:      0.21,
		DebtRate:     0.055,
		DefaultBeta:  1.0,
	}
}

// CostOfCapital holds the CAPM and WACC outputs for one company.
// Nil means the metric could not be computed from the snapshot.
type CostOfCapital struct {
	CostOfEquity *float64 `json:"cost_of_equity,omitempty"` // Re from CAPM
	CostOfDebt   *float64 `json:"cost_of_debt,omitempty"`   // Rd, zero when the company carries no debt
	MarketEquity *float64 `json:"market_equity,omitempty"`  // E = price x shares outstanding
	TotalDebt    *float64 `json:"total_debt,omitempty"`     // D, missing rows counted as zero
	WACC         *float64 `json:"wacc,omitempty"`
}

// Returns holds the profitability-versus-cost-of-capital outputs.
type Returns struct {
	NOPAT           *float64 `json:"nopat,omitempty"`
	InvestedCapital *float64 `json:"invested_capital,omitempty"`
	ROIC            *float64 `json:"roic,omitempty"`
	EVA             *float64 `json:"eva,omitempty"`
	// CreatesValue is nil when ROIC or WACC is undefined, true when
	// ROIC > WACC, false otherwise.
	CreatesValue *bool `json:"creates_value,omitempty"`
}

// Growth holds multi-year compound annual growth rates.
type Growth struct {
	RevenueCAGR      *float64 `json:"revenue_cagr,omitempty"`
	NetIncomeCAGR    *float64 `json:"net_income_cagr,omitempty"`
	FreeCashFlowCAGR *float64 `json:"free_cash_flow_cagr,omitempty"`
}

// DerivedMetrics is the full per-ticker output of the derivation engine.
// Deriving the same snapshot under the same assumptions twice yields an
// identical record; nothing here depends on when the derivation ran.
type DerivedMetrics struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
	Country  string `json:"country,omitempty"`

	// Scalars carried over from the snapshot for context.
	Price          *float64 `json:"price,omitempty"`
	MarketCap      *float64 `json:"market_cap,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
	TrailingPE     *float64 `json:"trailing_pe,omitempty"`
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	DividendRate   *float64 `json:"dividend_rate,omitempty"`
	PayoutRatio    *float64 `json:"payout_ratio,omitempty"`
	ReturnOnAssets *float64 `json:"return_on_assets,omitempty"`
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"`
	CurrentRatio   *float64 `json:"current_ratio,omitempty"`
	QuickRatio     *float64 `json:"quick_ratio,omitempty"`
	CashRatio      *float64 `json:"cash_ratio,omitempty"`

	// Capital structure and cost of capital.
	CostOfEquity    *float64 `json:"cost_of_equity,omitempty"`
	CostOfDebt      *float64 `json:"cost_of_debt,omitempty"`
	WACC            *float64 `json:"wacc,omitempty"`
	TotalDebt       *float64 `json:"total_debt,omitempty"`
	EquityBookValue *float64 `json:"equity_book_value,omitempty"`
	DebtToEquity    *float64 `json:"debt_to_equity,omitempty"`
	LTDebtToEquity  *float64 `json:"lt_debt_to_equity,omitempty"`

	// Returns on capital.
	NOPAT           *float64 `json:"nopat,omitempty"`
	InvestedCapital *float64 `json:"invested_capital,omitempty"`
	ROIC            *float64 `json:"roic,omitempty"`
	EVA             *float64 `json:"eva,omitempty"`
	CreatesValue    *bool    `json:"creates_value,omitempty"`

	// Growth.
	RevenueCAGR      *float64 `json:"revenue_cagr,omitempty"`
	NetIncomeCAGR    *float64 `json:"net_income_cagr,omitempty"`
	FreeCashFlowCAGR *float64 `json:"free_cash_flow_cagr,omitempty"`

	// Cash-flow and valuation ratios.
	PriceToFCF       *float64 `json:"price_to_fcf,omitempty"`
	CashFlowRatio    *float64 `json:"cash_flow_ratio,omitempty"` // operating cash flow / current liabilities
	OperatingMargin  *float64 `json:"operating_margin,omitempty"`
	ProfitMargin     *float64 `json:"profit_margin,omitempty"`
	EffectiveTaxRate *float64 `json:"effective_tax_rate,omitempty"` // income tax expense / pretax income
}
