// Package analysis is the derivation engine: pure calculators that turn a
// raw financial snapshot into valuation, profitability and growth metrics
// under a set of rate assumptions.
//
// Every metric is a fraction, not a percentage: 0.10 means 10%. A metric
// that cannot be computed is nil, never zero; formatting to display
// strings happens elsewhere. Deriving the same snapshot twice under the
// same assumptions yields identical output.
package analysis

import "github.com/evametrics/evascan/pkg/models"

// Derive runs every calculator over one snapshot and assembles the full
// per-ticker metrics record.
func Derive(snap *models.RawFinancialSnapshot, a models.Assumptions) *models.DerivedMetrics {
	if snap == nil {
		return nil
	}
	m := &models.DerivedMetrics{
		Ticker:   snap.Ticker,
		Name:     snap.Name,
		Sector:   snap.Sector,
		Industry: snap.Industry,
		Country:  snap.Country,

		Price:          snap.Price,
		MarketCap:      snap.MarketCap,
		Beta:           snap.Beta,
		TrailingPE:     snap.TrailingPE,
		PriceToBook:    snap.PriceToBook,
		DividendRate:   snap.DividendRate,
		PayoutRatio:    snap.PayoutRatio,
		ReturnOnAssets: snap.ReturnOnAssets,
		ReturnOnEquity: snap.ReturnOnEquity,
		CurrentRatio:   snap.CurrentRatio,
		QuickRatio:     snap.QuickRatio,
		CashRatio:      snap.CashRatio,

		DebtToEquity:    snap.DebtToEquity,
		LTDebtToEquity:  snap.LTDebtToEquity,
		OperatingMargin: snap.OperatingMargin,
		ProfitMargin:    snap.ProfitMargin,
	}

	cc := ComputeCostOfCapital(snap, a)
	m.CostOfEquity = cc.CostOfEquity
	m.CostOfDebt = cc.CostOfDebt
	m.WACC = cc.WACC
	m.TotalDebt = cc.TotalDebt

	ret := ComputeReturns(snap, cc, a)
	m.NOPAT = ret.NOPAT
	m.InvestedCapital = ret.InvestedCapital
	m.ROIC = ret.ROIC
	m.EVA = ret.EVA
	m.CreatesValue = ret.CreatesValue

	g := ComputeGrowth(snap)
	m.RevenueCAGR = g.RevenueCAGR
	m.NetIncomeCAGR = g.NetIncomeCAGR
	m.FreeCashFlowCAGR = g.FreeCashFlowCAGR

	m.EquityBookValue = EquityBookValue(snap)
	m.PriceToFCF = PriceToFCF(snap)
	m.CashFlowRatio = CashFlowRatio(snap)
	m.EffectiveTaxRate = EffectiveTaxRate(snap)
	return m
}
