package analysis

import "github.com/evametrics/evascan/pkg/models"

// ComputeCostOfCapital derives CAPM cost of equity and WACC from a
// snapshot under the given assumptions.
//
// Market equity E = price x shares outstanding, and stays undefined when
// either input is missing. Total debt D treats missing balance-sheet rows
// as zero, so it is always defined: a company with no debt rows carries
// D = 0, not an unknown.
func ComputeCostOfCapital(snap *models.RawFinancialSnapshot, a models.Assumptions) models.CostOfCapital {
	cc := models.CostOfCapital{}
	if snap == nil {
		return cc
	}

	// Re = Rf + beta * (Rm - Rf)
	beta := a.DefaultBeta
	if snap.Beta != nil {
		beta = *snap.Beta
	}
	re := a.RiskFreeRate + beta*(a.MarketReturn-a.RiskFreeRate)
	cc.CostOfEquity = models.Float(re)

	if snap.Price != nil && snap.SharesOutstanding != nil {
		cc.MarketEquity = models.Float(*snap.Price * *snap.SharesOutstanding)
	}

	debt := TotalDebt(&snap.BalanceSheet)
	cc.TotalDebt = models.Float(debt)

	// Rd is an assumed fixed rate, applied only when the company actually
	// carries debt.
	rd := 0.0
	if debt > 0 {
		rd = a.DebtRate
	}
	cc.CostOfDebt = models.Float(rd)

	// WACC = E/(E+D)*Re + D/(E+D)*Rd*(1-Tc)
	if cc.MarketEquity != nil {
		equity := *cc.MarketEquity
		total := equity + debt
		if total != 0 {
			wacc := (equity/total)*re + (debt/total)*rd*(1-a.TaxRate)
			cc.WACC = models.Float(wacc)
		}
	}
	return cc
}

// TotalDebt resolves total debt from a balance sheet. A consolidated
// "Total Debt" row wins; otherwise long-term and short-term debt are
// summed with missing rows counted as zero.
func TotalDebt(bs *models.StatementTable) float64 {
	if td, ok := bs.Latest(models.ItemTotalDebt); ok {
		return td
	}
	lt, _ := bs.Latest(models.ItemLongTermDebt)
	st, _ := bs.Latest(models.ItemShortTermDebt)
	return lt + st
}

// equityBook returns the most recent book equity, accepting either of the
// provider spellings for the stockholder-equity row.
func equityBook(bs *models.StatementTable) (float64, bool) {
	if eq, ok := bs.Latest(models.ItemCommonStockEquity); ok {
		return eq, true
	}
	return bs.Latest(models.ItemTotalStockholderEquity)
}
