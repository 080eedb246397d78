package analysis

import (
	"math"

	"github.com/evametrics/evascan/pkg/models"
)

// maxGrowthPeriods caps how far back the CAGR window reaches.
const maxGrowthPeriods = 4

// ComputeGrowth derives compound annual growth rates for revenue, net
// income and free cash flow over the most recent annual periods. When a
// statement carries no free-cash-flow row at all, operating cash flow
// stands in for it.
func ComputeGrowth(snap *models.RawFinancialSnapshot) models.Growth {
	g := models.Growth{}
	if snap == nil {
		return g
	}

	g.RevenueCAGR = seriesCAGR(snap.Income.Item(models.ItemTotalRevenue))
	g.NetIncomeCAGR = seriesCAGR(snap.Income.Item(models.ItemNetIncome))

	fcf := snap.CashFlow.Item(models.ItemFreeCashFlow)
	if !snap.CashFlow.Has(models.ItemFreeCashFlow) {
		fcf = snap.CashFlow.Item(models.ItemOperatingCashFlow)
	}
	g.FreeCashFlowCAGR = seriesCAGR(fcf)
	return g
}

// seriesCAGR computes (latest/earliest)^(1/n) - 1 over the non-empty
// values in the window, where n is one less than their count. It returns
// nil rather than a sentinel when fewer than two values exist or when
// either endpoint is zero or negative.
func seriesCAGR(s models.Series) *float64 {
	window := s
	if len(window) > maxGrowthPeriods {
		window = window[:maxGrowthPeriods]
	}
	vals := make([]float64, 0, len(window))
	for _, v := range window {
		if v != nil {
			vals = append(vals, *v)
		}
	}
	if len(vals) < 2 {
		return nil
	}
	latest, earliest := vals[0], vals[len(vals)-1]
	if earliest <= 0 || latest <= 0 {
		return nil
	}
	n := float64(len(vals) - 1)
	return models.Float(math.Pow(latest/earliest, 1/n) - 1)
}
