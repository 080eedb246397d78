package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// ── Series / StatementTable Tests ──

func TestSeriesLatest(t *testing.T) {
	s := Series{Float(133.1), Float(121), Float(110), Float(100)}
	v, ok := s.Latest()
	if !ok {
		t.Fatal("Latest: got ok=false, want true")
	}
	if v != 133.1 {
		t.Errorf("Latest: got %f, want 133.1", v)
	}

	gap := Series{nil, Float(121)}
	if _, ok := gap.Latest(); ok {
		t.Error("Latest on a series with an empty most-recent cell should report ok=false")
	}
	if _, ok := (Series{}).Latest(); ok {
		t.Error("Latest on an empty series should report ok=false")
	}
}

func TestSeriesAt(t *testing.T) {
	s := Series{Float(50), nil, Float(30)}
	if v, ok := s.At(2); !ok || v != 30 {
		t.Errorf("At(2): got (%f, %v), want (30, true)", v, ok)
	}
	if _, ok := s.At(1); ok {
		t.Error("At(1) over a nil cell should report ok=false")
	}
	if _, ok := s.At(-1); ok {
		t.Error("At(-1) should report ok=false")
	}
	if _, ok := s.At(3); ok {
		t.Error("At past the end should report ok=false")
	}
}

func TestStatementTableLookups(t *testing.T) {
	bs := StatementTable{
		Periods: []string{"2024-12-31", "2023-12-31"},
		Items: map[string]Series{
			ItemTotalDebt:         {Float(900), Float(850)},
			ItemCommonStockEquity: {nil, Float(400)},
		},
	}

	if v, ok := bs.Latest(ItemTotalDebt); !ok || v != 900 {
		t.Errorf("Latest(Total Debt): got (%f, %v), want (900, true)", v, ok)
	}
	if _, ok := bs.Latest(ItemCommonStockEquity); ok {
		t.Error("Latest over an empty most-recent cell should report ok=false")
	}
	if _, ok := bs.Latest(ItemCashAndEquivalents); ok {
		t.Error("Latest over a missing row should report ok=false")
	}
	if !bs.Has(ItemCommonStockEquity) {
		t.Error("Has should see the older non-empty cell")
	}
	if bs.Has(ItemEBIT) {
		t.Error("Has should be false for a row the statement never carried")
	}
}

func TestStatementTableNilReceiver(t *testing.T) {
	var table *StatementTable
	if table.Item(ItemTotalDebt) != nil {
		t.Error("Item on a nil table should return nil")
	}
	if _, ok := table.Latest(ItemTotalDebt); ok {
		t.Error("Latest on a nil table should report ok=false")
	}
}

// ── Snapshot Tests ──

func TestSnapshotOptionalFieldsOmitted(t *testing.T) {
	snap := RawFinancialSnapshot{
		Ticker: "AAPL",
		Price:  Float(190.5),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("json.Marshal(RawFinancialSnapshot) error: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"price":190.5`) {
		t.Errorf("marshal should carry the set price, got %s", body)
	}
	if strings.Contains(body, "beta") {
		t.Errorf("marshal should omit unset optional fields, got %s", body)
	}

	var decoded RawFinancialSnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal(RawFinancialSnapshot) error: %v", err)
	}
	if decoded.Beta != nil {
		t.Error("Beta should stay nil through a roundtrip")
	}
	if decoded.Price == nil || *decoded.Price != 190.5 {
		t.Errorf("Price: got %v, want 190.5", decoded.Price)
	}
}

// ── Assumptions Tests ──

func TestDefaultAssumptions(t *testing.T) {
	a := DefaultAssumptions()
	if a.RiskFreeRate != 0.0435 {
		t.Errorf("RiskFreeRate: got %f, want 0.0435", a.RiskFreeRate)
	}
	if a.MarketReturn != 0.085 {
		t.Errorf("MarketReturn: got %f, want 0.085", a.MarketReturn)
	}
	if a.TaxRate != 0.21 {
		t.Errorf("TaxRate: got %f, want 0.21", a.TaxRate)
	}
	if a.DebtRate != 0.055 {
		t.Errorf("DebtRate: got %f, want 0.055", a.DebtRate)
	}
	if a.DefaultBeta != 1.0 {
		t.Errorf("DefaultBeta: got %f, want 1.0", a.DefaultBeta)
	}
}

// ── Batch Tests ──

func TestBatchResultCounts(t *testing.T) {
	started := time.Date(2026, 2, 20, 9, 30, 0, 0, time.UTC)
	r := BatchResult{
		Tickers: []string{"AAPL", "BROKEN", "MSFT"},
		Metrics: map[string]*DerivedMetrics{
			"AAPL": {Ticker: "AAPL"},
			"MSFT": {Ticker: "MSFT"},
		},
		Errors: map[string]*ErrorRecord{
			"BROKEN": {Ticker: "BROKEN", Reason: "ticker not found"},
		},
		Assumptions: DefaultAssumptions(),
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
	}
	if r.Succeeded() != 2 {
		t.Errorf("Succeeded: got %d, want 2", r.Succeeded())
	}
	if r.Failed() != 1 {
		t.Errorf("Failed: got %d, want 1", r.Failed())
	}
	if r.Succeeded()+r.Failed() != len(r.Tickers) {
		t.Errorf("every requested ticker should land in Metrics or Errors: %d+%d != %d",
			r.Succeeded(), r.Failed(), len(r.Tickers))
	}
}

func TestDerivedMetricsOmitsUndefined(t *testing.T) {
	m := DerivedMetrics{
		Ticker: "AAPL",
		ROIC:   Float(0.079),
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("json.Marshal(DerivedMetrics) error: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"roic":0.079`) {
		t.Errorf("marshal should carry the defined ROIC, got %s", body)
	}
	if strings.Contains(body, "wacc") || strings.Contains(body, "eva") {
		t.Errorf("undefined metrics should be omitted, never rendered as 0: %s", body)
	}
}
