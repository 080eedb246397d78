package analysis

import "github.com/evametrics/evascan/pkg/models"

// PriceToFCF derives price over free cash flow per share. Free cash flow
// per share is the denominator, so a zero FCF or zero share count leaves
// the ratio undefined.
func PriceToFCF(snap *models.RawFinancialSnapshot) *float64 {
	if snap.Price == nil || snap.SharesOutstanding == nil || *snap.SharesOutstanding == 0 {
		return nil
	}
	fcf, ok := snap.CashFlow.Latest(models.ItemFreeCashFlow)
	if !ok || fcf == 0 {
		return nil
	}
	return models.Float(*snap.Price / (fcf / *snap.SharesOutstanding))
}

// CashFlowRatio derives operating cash flow over total current
// liabilities, a solvency check on whether one year of operating cash
// covers the near-term obligations.
func CashFlowRatio(snap *models.RawFinancialSnapshot) *float64 {
	ocf, ok := snap.CashFlow.Latest(models.ItemOperatingCashFlow)
	if !ok {
		return nil
	}
	cl, ok := snap.BalanceSheet.Latest(models.ItemCurrentLiabilities)
	if !ok || cl == 0 {
		return nil
	}
	return models.Float(ocf / cl)
}

// EffectiveTaxRate derives income tax expense over pretax income from the
// most recent income statement.
func EffectiveTaxRate(snap *models.RawFinancialSnapshot) *float64 {
	tax, ok := snap.Income.Latest(models.ItemIncomeTaxExpense)
	if !ok {
		return nil
	}
	ebt, ok := snap.Income.Latest(models.ItemPretaxIncome)
	if !ok || ebt == 0 {
		return nil
	}
	return models.Float(tax / ebt)
}

// EquityBookValue reads the most recent book value of common equity.
func EquityBookValue(snap *models.RawFinancialSnapshot) *float64 {
	if equity, ok := equityBook(&snap.BalanceSheet); ok {
		return models.Float(equity)
	}
	return nil
}
