package analysis

import "github.com/evametrics/evascan/pkg/models"

// ComputeReturns derives NOPAT, invested capital, ROIC and EVA from a
// snapshot, using the already-computed cost of capital for the EVA spread
// and the value-creation verdict.
func ComputeReturns(snap *models.RawFinancialSnapshot, cc models.CostOfCapital, a models.Assumptions) models.Returns {
	r := models.Returns{}
	if snap == nil {
		return r
	}

	// NOPAT = EBIT * (1 - Tc)
	if ebit, ok := snap.Income.Latest(models.ItemEBIT); ok {
		r.NOPAT = models.Float(ebit * (1 - a.TaxRate))
	}

	// Invested capital = book equity + net debt, where net debt is total
	// debt minus cash. Book equity is required; missing cash counts as zero.
	if equity, ok := equityBook(&snap.BalanceSheet); ok {
		debt := 0.0
		if cc.TotalDebt != nil {
			debt = *cc.TotalDebt
		}
		cash, _ := snap.BalanceSheet.Latest(models.ItemCashAndEquivalents)
		r.InvestedCapital = models.Float(equity + (debt - cash))
	}

	// ROIC = NOPAT / invested capital
	if r.NOPAT != nil && r.InvestedCapital != nil && *r.InvestedCapital != 0 {
		r.ROIC = models.Float(*r.NOPAT / *r.InvestedCapital)
	}

	// EVA = (ROIC - WACC) * invested capital
	if r.ROIC != nil && cc.WACC != nil {
		r.EVA = models.Float((*r.ROIC - *cc.WACC) * *r.InvestedCapital)
		creates := *r.ROIC > *cc.WACC
		r.CreatesValue = &creates
	}
	return r
}
