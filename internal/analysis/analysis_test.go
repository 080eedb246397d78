package analysis

import (
	"math"
	"reflect"
	"testing"

	"github.com/evametrics/evascan/pkg/models"
)

func sampleSnapshot() *models.RawFinancialSnapshot {
	return &models.RawFinancialSnapshot{
		Ticker:            "ACME",
		Name:              "Acme Corp",
		Sector:            "Industrials",
		Industry:          "Machinery",
		Price:             models.Float(80),
		SharesOutstanding: models.Float(10),
		BalanceSheet: models.StatementTable{
			Periods: []string{"2025-12-31", "2024-12-31"},
			Items: map[string]models.Series{
				models.ItemTotalDebt:          {models.Float(150), models.Float(160)},
				models.ItemCashAndEquivalents: {models.Float(50), models.Float(40)},
				models.ItemCommonStockEquity:  {models.Float(400), models.Float(360)},
				models.ItemCurrentLiabilities: {models.Float(120), models.Float(110)},
			},
		},
		Income: models.StatementTable{
			Periods: []string{"2025-12-31", "2024-12-31", "2023-12-31", "2022-12-31"},
			Items: map[string]models.Series{
				models.ItemEBIT:             {models.Float(50), models.Float(45), models.Float(40), models.Float(36)},
				models.ItemPretaxIncome:     {models.Float(46), models.Float(41), models.Float(37), models.Float(33)},
				models.ItemIncomeTaxExpense: {models.Float(9.2), models.Float(8.2), models.Float(7.4), models.Float(6.6)},
				models.ItemTotalRevenue:     {models.Float(133.1), models.Float(121), models.Float(110), models.Float(100)},
				models.ItemNetIncome:        {models.Float(36.3), models.Float(33), models.Float(30), models.Float(27.5)},
			},
		},
		CashFlow: models.StatementTable{
			Periods: []string{"2025-12-31", "2024-12-31"},
			Items: map[string]models.Series{
				models.ItemOperatingCashFlow: {models.Float(60), models.Float(55)},
				models.ItemFreeCashFlow:      {models.Float(40), models.Float(35)},
			},
		},
	}
}

func approx(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: got undefined, want %v", name, want)
	}
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", name, *got, want)
	}
}

func wantUndefined(t *testing.T, name string, got *float64) {
	t.Helper()
	if got != nil {
		t.Errorf("%s: got %v, want undefined", name, *got)
	}
}

// ── Cost of capital ──

func TestCostOfEquityDefaultBeta(t *testing.T) {
	snap := sampleSnapshot()
	snap.Beta = nil

	cc := ComputeCostOfCapital(snap, models.DefaultAssumptions())

	// Re = 0.0435 + 1.0 * (0.085 - 0.0435)
	approx(t, "CostOfEquity", cc.CostOfEquity, 0.0850)
}

func TestCostOfEquityWithBeta(t *testing.T) {
	snap := sampleSnapshot()
	snap.Beta = models.Float(1.2)

	cc := ComputeCostOfCapital(snap, models.DefaultAssumptions())

	// Re = 0.0435 + 1.2 * (0.085 - 0.0435)
	approx(t, "CostOfEquity", cc.CostOfEquity, 0.0933)
}

func TestWACCBlend(t *testing.T) {
	snap := sampleSnapshot()
	cc := ComputeCostOfCapital(snap, models.DefaultAssumptions())

	approx(t, "MarketEquity", cc.MarketEquity, 800)
	approx(t, "TotalDebt", cc.TotalDebt, 150)
	approx(t, "CostOfDebt", cc.CostOfDebt, 0.055)

	want := (800.0/950.0)*0.085 + (150.0/950.0)*0.055*(1-0.21)
	approx(t, "WACC", cc.WACC, want)
}

func TestWACCUndefinedWithoutMarketEquity(t *testing.T) {
	snap := sampleSnapshot()
	snap.SharesOutstanding = nil

	cc := ComputeCostOfCapital(snap, models.DefaultAssumptions())

	wantUndefined(t, "MarketEquity", cc.MarketEquity)
	wantUndefined(t, "WACC", cc.WACC)
	// Re never needs market data.
	approx(t, "CostOfEquity", cc.CostOfEquity, 0.0850)
}

func TestWACCUndefinedWhenCapitalIsZero(t *testing.T) {
	snap := sampleSnapshot()
	snap.Price = models.Float(0)
	snap.BalanceSheet.Items = map[string]models.Series{}

	cc := ComputeCostOfCapital(snap, models.DefaultAssumptions())

	// E and D are both zero, so the weights have no denominator.
	approx(t, "TotalDebt", cc.TotalDebt, 0)
	wantUndefined(t, "WACC", cc.WACC)
}

func TestCostOfDebtZeroWithoutDebt(t *testing.T) {
	snap := sampleSnapshot()
	snap.BalanceSheet.Items[models.ItemTotalDebt] = models.Series{models.Float(0), models.Float(0)}

	cc := ComputeCostOfCapital(snap, models.DefaultAssumptions())

	approx(t, "CostOfDebt", cc.CostOfDebt, 0)
	// All-equity company: WACC collapses to Re.
	approx(t, "WACC", cc.WACC, 0.0850)
}

func TestTotalDebtResolution(t *testing.T) {
	tests := []struct {
		name  string
		items map[string]models.Series
		want  float64
	}{
		{
			"consolidated row wins",
			map[string]models.Series{
				models.ItemTotalDebt:     {models.Float(500)},
				models.ItemLongTermDebt:  {models.Float(100)},
				models.ItemShortTermDebt: {models.Float(100)},
			},
			500,
		},
		{
			"long plus short",
			map[string]models.Series{
				models.ItemLongTermDebt:  {models.Float(300)},
				models.ItemShortTermDebt: {models.Float(120)},
			},
			420,
		},
		{
			"missing short counts as zero",
			map[string]models.Series{
				models.ItemLongTermDebt: {models.Float(300)},
			},
			300,
		},
		{
			"no debt rows at all",
			map[string]models.Series{},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := &models.StatementTable{Periods: []string{"2025-12-31"}, Items: tt.items}
			if got := TotalDebt(bs); got != tt.want {
				t.Errorf("TotalDebt = %v, want %v", got, tt.want)
			}
		})
	}
}

// ── Returns on capital ──

func TestComputeReturns(t *testing.T) {
	snap := sampleSnapshot()
	a := models.DefaultAssumptions()
	cc := models.CostOfCapital{
		TotalDebt: models.Float(150),
		WACC:      models.Float(0.0685),
	}

	r := ComputeReturns(snap, cc, a)

	// NOPAT = 50 * (1 - 0.21)
	approx(t, "NOPAT", r.NOPAT, 39.5)
	// IC = 400 + (150 - 50)
	approx(t, "InvestedCapital", r.InvestedCapital, 500)
	approx(t, "ROIC", r.ROIC, 0.079)
	// EVA = (0.079 - 0.0685) * 500
	approx(t, "EVA", r.EVA, 5.25)
	if r.CreatesValue == nil || !*r.CreatesValue {
		t.Errorf("CreatesValue: got %v, want true", r.CreatesValue)
	}
}

func TestComputeReturnsDestroysValue(t *testing.T) {
	snap := sampleSnapshot()
	cc := models.CostOfCapital{
		TotalDebt: models.Float(150),
		WACC:      models.Float(0.12),
	}

	r := ComputeReturns(snap, cc, models.DefaultAssumptions())

	if r.CreatesValue == nil || *r.CreatesValue {
		t.Errorf("CreatesValue: got %v, want false", r.CreatesValue)
	}
	if r.EVA == nil || *r.EVA >= 0 {
		t.Errorf("EVA: got %v, want negative", r.EVA)
	}
}

func TestComputeReturnsUndefinedWithoutEBIT(t *testing.T) {
	snap := sampleSnapshot()
	delete(snap.Income.Items, models.ItemEBIT)
	cc := ComputeCostOfCapital(snap, models.DefaultAssumptions())

	r := ComputeReturns(snap, cc, models.DefaultAssumptions())

	wantUndefined(t, "NOPAT", r.NOPAT)
	wantUndefined(t, "ROIC", r.ROIC)
	wantUndefined(t, "EVA", r.EVA)
	if r.CreatesValue != nil {
		t.Errorf("CreatesValue: got %v, want undefined", *r.CreatesValue)
	}
	// Invested capital only needs the balance sheet.
	approx(t, "InvestedCapital", r.InvestedCapital, 500)
}

func TestComputeReturnsUndefinedWhenInvestedCapitalZero(t *testing.T) {
	snap := sampleSnapshot()
	// Equity 0, debt 150, cash 150: IC nets out to exactly zero.
	snap.BalanceSheet.Items[models.ItemCommonStockEquity] = models.Series{models.Float(0)}
	snap.BalanceSheet.Items[models.ItemCashAndEquivalents] = models.Series{models.Float(150)}
	cc := models.CostOfCapital{TotalDebt: models.Float(150), WACC: models.Float(0.0685)}

	r := ComputeReturns(snap, cc, models.DefaultAssumptions())

	approx(t, "InvestedCapital", r.InvestedCapital, 0)
	wantUndefined(t, "ROIC", r.ROIC)
	wantUndefined(t, "EVA", r.EVA)
	if r.CreatesValue != nil {
		t.Error("CreatesValue should be undefined when ROIC is")
	}
}

func TestVerdictUndefinedWithoutWACC(t *testing.T) {
	snap := sampleSnapshot()
	cc := models.CostOfCapital{TotalDebt: models.Float(150)} // no WACC

	r := ComputeReturns(snap, cc, models.DefaultAssumptions())

	approx(t, "ROIC", r.ROIC, 0.079)
	wantUndefined(t, "EVA", r.EVA)
	if r.CreatesValue != nil {
		t.Error("CreatesValue should be undefined without a WACC to compare against")
	}
}

func TestInvestedCapitalAcceptsEquitySynonym(t *testing.T) {
	snap := sampleSnapshot()
	// Some payloads label the equity row "Total Stockholder Equity".
	delete(snap.BalanceSheet.Items, models.ItemCommonStockEquity)
	snap.BalanceSheet.Items[models.ItemTotalStockholderEquity] = models.Series{models.Float(400)}
	cc := models.CostOfCapital{TotalDebt: models.Float(150)}

	r := ComputeReturns(snap, cc, models.DefaultAssumptions())

	approx(t, "InvestedCapital", r.InvestedCapital, 500)
}

// ── Growth ──

func TestSeriesCAGR(t *testing.T) {
	s := models.Series{models.Float(133.1), models.Float(121), models.Float(110), models.Float(100)}
	// Three annual steps at 10% each.
	approx(t, "CAGR", seriesCAGR(s), 0.10)
}

func TestSeriesCAGRWindowCap(t *testing.T) {
	// Older periods beyond the window must not leak into the rate.
	s := models.Series{
		models.Float(133.1), models.Float(121), models.Float(110), models.Float(100),
		models.Float(10), models.Float(1),
	}
	approx(t, "CAGR", seriesCAGR(s), 0.10)
}

func TestSeriesCAGRSkipsEmptyCells(t *testing.T) {
	// Two usable points across the window: 121 -> 133.1 in one step.
	s := models.Series{models.Float(133.1), nil, models.Float(121), nil}
	approx(t, "CAGR", seriesCAGR(s), 133.1/121-1)
}

func TestSeriesCAGRUndefined(t *testing.T) {
	cases := []struct {
		name string
		s    models.Series
	}{
		{"empty", models.Series{}},
		{"single value", models.Series{models.Float(100)}},
		{"all empty cells", models.Series{nil, nil, nil}},
		{"one value among empties", models.Series{models.Float(100), nil, nil}},
		{"earliest zero", models.Series{models.Float(133.1), models.Float(121), models.Float(0)}},
		{"negative endpoint", models.Series{models.Float(133.1), models.Float(121), models.Float(-5)}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			wantUndefined(t, "CAGR", seriesCAGR(tt.s))
		})
	}
}

func TestComputeGrowth(t *testing.T) {
	snap := sampleSnapshot()
	g := ComputeGrowth(snap)

	approx(t, "RevenueCAGR", g.RevenueCAGR, 0.10)
	approx(t, "NetIncomeCAGR", g.NetIncomeCAGR, math.Pow(36.3/27.5, 1.0/3)-1)
	approx(t, "FreeCashFlowCAGR", g.FreeCashFlowCAGR, 40.0/35-1)
}

func TestComputeGrowthFallsBackToOperatingCashFlow(t *testing.T) {
	snap := sampleSnapshot()
	delete(snap.CashFlow.Items, models.ItemFreeCashFlow)

	g := ComputeGrowth(snap)

	approx(t, "FreeCashFlowCAGR", g.FreeCashFlowCAGR, 60.0/55-1)
}

// ── Ratios ──

func TestPriceToFCF(t *testing.T) {
	snap := sampleSnapshot()
	// 80 / (40 / 10)
	approx(t, "PriceToFCF", PriceToFCF(snap), 20)

	snap.CashFlow.Items[models.ItemFreeCashFlow] = models.Series{models.Float(0)}
	wantUndefined(t, "PriceToFCF with zero FCF", PriceToFCF(snap))

	snap = sampleSnapshot()
	snap.SharesOutstanding = nil
	wantUndefined(t, "PriceToFCF without shares", PriceToFCF(snap))
}

func TestCashFlowRatio(t *testing.T) {
	snap := sampleSnapshot()
	// 60 / 120
	approx(t, "CashFlowRatio", CashFlowRatio(snap), 0.5)

	snap.BalanceSheet.Items[models.ItemCurrentLiabilities] = models.Series{models.Float(0)}
	wantUndefined(t, "CashFlowRatio with zero liabilities", CashFlowRatio(snap))
}

func TestEffectiveTaxRate(t *testing.T) {
	snap := sampleSnapshot()
	// 9.2 / 46
	approx(t, "EffectiveTaxRate", EffectiveTaxRate(snap), 0.2)

	snap.Income.Items[models.ItemPretaxIncome] = models.Series{models.Float(0)}
	wantUndefined(t, "EffectiveTaxRate with zero pretax income", EffectiveTaxRate(snap))
}

// ── Derive ──

func TestDeriveAssemblesEverything(t *testing.T) {
	snap := sampleSnapshot()
	m := Derive(snap, models.DefaultAssumptions())

	if m.Ticker != "ACME" || m.Name != "Acme Corp" {
		t.Errorf("identity: got %q/%q", m.Ticker, m.Name)
	}
	approx(t, "CostOfEquity", m.CostOfEquity, 0.0850)
	approx(t, "TotalDebt", m.TotalDebt, 150)
	approx(t, "EquityBookValue", m.EquityBookValue, 400)
	approx(t, "InvestedCapital", m.InvestedCapital, 500)
	approx(t, "NOPAT", m.NOPAT, 39.5)
	approx(t, "ROIC", m.ROIC, 0.079)
	approx(t, "RevenueCAGR", m.RevenueCAGR, 0.10)
	approx(t, "PriceToFCF", m.PriceToFCF, 20)
	approx(t, "CashFlowRatio", m.CashFlowRatio, 0.5)
	approx(t, "EffectiveTaxRate", m.EffectiveTaxRate, 0.2)
	if m.CreatesValue == nil {
		t.Error("CreatesValue: got undefined, want a verdict")
	}
}

func TestDeriveSparseSnapshotStaysDefined(t *testing.T) {
	// A snapshot with nothing but a ticker must degrade to undefined
	// metrics, never panic and never fabricate zeros.
	m := Derive(&models.RawFinancialSnapshot{Ticker: "EMPTY"}, models.DefaultAssumptions())

	if m == nil {
		t.Fatal("Derive returned nil for an empty snapshot")
	}
	wantUndefined(t, "WACC", m.WACC)
	wantUndefined(t, "ROIC", m.ROIC)
	wantUndefined(t, "EVA", m.EVA)
	wantUndefined(t, "RevenueCAGR", m.RevenueCAGR)
	wantUndefined(t, "PriceToFCF", m.PriceToFCF)
	if m.CreatesValue != nil {
		t.Error("CreatesValue should be undefined on an empty snapshot")
	}
	// Debt is the one metric defined by the missing-as-zero policy.
	approx(t, "TotalDebt", m.TotalDebt, 0)
	approx(t, "CostOfEquity", m.CostOfEquity, 0.0850)
}

func TestDeriveIsIdempotent(t *testing.T) {
	snap := sampleSnapshot()
	a := models.DefaultAssumptions()

	first := Derive(snap, a)
	second := Derive(snap, a)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated derivation diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestDerivePassesScalarsThrough(t *testing.T) {
	snap := sampleSnapshot()
	snap.TrailingPE = models.Float(21.4)
	snap.ReturnOnEquity = models.Float(0.18)

	m := Derive(snap, models.DefaultAssumptions())

	approx(t, "TrailingPE", m.TrailingPE, 21.4)
	approx(t, "ReturnOnEquity", m.ReturnOnEquity, 0.18)
	wantUndefined(t, "DividendRate", m.DividendRate)
}
