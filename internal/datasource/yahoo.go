package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/evametrics/evascan/pkg/models"
	"github.com/evametrics/evascan/pkg/utils"
)

// DefaultYahooBaseURL is the production Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// scalarModules are the quoteSummary modules carrying per-company
// scalars; statementModules carry the three annual statement histories.
const (
	scalarModules    = "price,assetProfile,summaryDetail,defaultKeyStatistics,financialData"
	statementModules = "incomeStatementHistory,balanceSheetHistory,cashflowStatementHistory"
)

// YahooConfig configures a YahooSource.
type YahooConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	// ScrapeFallback fills scalars missing from the API response by
	// scraping the ticker's key-statistics page.
	ScrapeFallback bool
}

// YahooSource implements SnapshotSource using the Yahoo Finance
// quoteSummary API.
type YahooSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	scraper *keyStatsScraper
}

// NewYahooSource creates a new Yahoo Finance snapshot source.
func NewYahooSource(cfg YahooConfig) *YahooSource {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	y := &YahooSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(5), 5), // 5 req/s
	}
	if cfg.ScrapeFallback {
		y.scraper = newKeyStatsScraper(y.client)
	}
	return y
}

// Name returns the data source name.
func (y *YahooSource) Name() string { return "Yahoo Finance" }

// GetSnapshot fetches market scalars and the three annual statement
// histories in one pass. The two underlying requests run concurrently;
// either failing hard fails the snapshot. Missing fields inside a
// successful response simply stay nil.
func (y *YahooSource) GetSnapshot(ctx context.Context, ticker string) (*models.RawFinancialSnapshot, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrTickerNotFound)
	}

	var scalars, statements *yfSummaryResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := y.fetchQuoteSummary(gctx, symbol, scalarModules)
		if err != nil {
			return fmt.Errorf("yahoo profile %s: %w", symbol, err)
		}
		scalars = res
		return nil
	})
	g.Go(func() error {
		res, err := y.fetchQuoteSummary(gctx, symbol, statementModules)
		if err != nil {
			return fmt.Errorf("yahoo statements %s: %w", symbol, err)
		}
		statements = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &models.RawFinancialSnapshot{Ticker: symbol}
	applyScalars(snap, scalars)
	applyStatements(snap, statements)

	if y.scraper != nil && (snap.SharesOutstanding == nil || snap.Beta == nil) {
		// Best effort: a scrape failure never fails the snapshot.
		y.scraper.fillMissing(ctx, snap)
	}

	snap.FetchedAt = time.Now()
	return snap, nil
}

// fetchQuoteSummary calls the v10 quoteSummary endpoint for one set of
// modules.
func (y *YahooSource) fetchQuoteSummary(ctx context.Context, symbol, modules string) (*yfSummaryResult, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", y.baseURL, symbol, modules)
	body, _, err := doGet(ctx, y.client, url, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse quoteSummary: %w", err)
	}
	if resp.QuoteSummary.Error != nil {
		if resp.QuoteSummary.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yahoo API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}
	return &resp.QuoteSummary.Result[0], nil
}

// --- Yahoo Finance v10 API types ---

type yfSummaryResponse struct {
	QuoteSummary struct {
		Result []yfSummaryResult `json:"result"`
		Error  *yfError          `json:"error"`
	} `json:"quoteSummary"`
}

type yfSummaryResult struct {
	Price                *yfPrice           `json:"price"`
	AssetProfile         *yfAssetProfile    `json:"assetProfile"`
	SummaryDetail        *yfSummaryDetail   `json:"summaryDetail"`
	DefaultKeyStatistics *yfKeyStats        `json:"defaultKeyStatistics"`
	FinancialData        *yfFinancialData   `json:"financialData"`
	IncomeHistory        *yfIncomeHistory   `json:"incomeStatementHistory"`
	BalanceHistory       *yfBalanceHistory  `json:"balanceSheetHistory"`
	CashflowHistory      *yfCashflowHistory `json:"cashflowStatementHistory"`
}

type yfPrice struct {
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	Currency           string   `json:"currency"`
	RegularMarketPrice yfFinVal `json:"regularMarketPrice"`
	MarketCap          yfFinVal `json:"marketCap"`
}

type yfAssetProfile struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Country  string `json:"country"`
}

type yfSummaryDetail struct {
	Beta         yfFinVal `json:"beta"`
	TrailingPE   yfFinVal `json:"trailingPE"`
	DividendRate yfFinVal `json:"dividendRate"`
	PayoutRatio  yfFinVal `json:"payoutRatio"`
	MarketCap    yfFinVal `json:"marketCap"`
}

type yfKeyStats struct {
	SharesOutstanding yfFinVal `json:"sharesOutstanding"`
	PriceToBook       yfFinVal `json:"priceToBook"`
	Beta              yfFinVal `json:"beta"`
}

type yfFinancialData struct {
	CurrentPrice     yfFinVal `json:"currentPrice"`
	ReturnOnAssets   yfFinVal `json:"returnOnAssets"`
	ReturnOnEquity   yfFinVal `json:"returnOnEquity"`
	CurrentRatio     yfFinVal `json:"currentRatio"`
	QuickRatio       yfFinVal `json:"quickRatio"`
	DebtToEquity     yfFinVal `json:"debtToEquity"`
	OperatingMargins yfFinVal `json:"operatingMargins"`
	ProfitMargins    yfFinVal `json:"profitMargins"`
}

type yfIncomeHistory struct {
	Statements []yfStatement `json:"incomeStatementHistory"`
}

type yfBalanceHistory struct {
	Statements []yfStatement `json:"balanceSheetStatements"`
}

type yfCashflowHistory struct {
	Statements []yfStatement `json:"cashflowStatements"`
}

// yfStatement is one reporting period of one statement: provider line
// items keyed by camelCase name, each a raw/fmt value object.
type yfStatement map[string]json.RawMessage

// yfFinVal is Yahoo's number envelope. Raw is a pointer because the API
// sends {} for line items a company did not report, and absence must not
// collapse into zero.
type yfFinVal struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (v yfFinVal) val() *float64 { return v.Raw }

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// value extracts one line item from a statement period, or nil when the
// item is absent or empty.
func (s yfStatement) value(key string) *float64 {
	raw, ok := s[key]
	if !ok {
		return nil
	}
	var v yfFinVal
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v.Raw
}

// endDate returns the period label for a statement, e.g. "2024-12-31".
func (s yfStatement) endDate() string {
	raw, ok := s["endDate"]
	if !ok {
		return ""
	}
	var v yfFinVal
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	if v.Fmt != "" {
		return v.Fmt
	}
	if v.Raw != nil {
		return time.Unix(int64(*v.Raw), 0).UTC().Format("2006-01-02")
	}
	return ""
}

// --- Provider key translation ---

// Canonical line-item names on the left, Yahoo quoteSummary keys on the
// right.
var incomeItemKeys = map[string]string{
	models.ItemEBIT:             "ebit",
	models.ItemPretaxIncome:     "incomeBeforeTax",
	models.ItemInterestExpense:  "interestExpense",
	models.ItemIncomeTaxExpense: "incomeTaxExpense",
	models.ItemTotalRevenue:     "totalRevenue",
	models.ItemNetIncome:        "netIncome",
}

var balanceItemKeys = map[string]string{
	models.ItemLongTermDebt:       "longTermDebt",
	models.ItemShortTermDebt:      "shortLongTermDebt",
	models.ItemCashAndEquivalents: "cash",
	models.ItemCommonStockEquity:  "totalStockholderEquity",
	models.ItemCurrentLiabilities: "totalCurrentLiabilities",
}

var cashflowItemKeys = map[string]string{
	models.ItemOperatingCashFlow:  "totalCashFromOperatingActivities",
	models.ItemCapitalExpenditure: "capitalExpenditures",
}

func applyScalars(snap *models.RawFinancialSnapshot, res *yfSummaryResult) {
	if res == nil {
		return
	}
	if p := res.Price; p != nil {
		snap.Name = coalesce(p.LongName, p.ShortName)
		snap.Currency = p.Currency
		snap.Price = p.RegularMarketPrice.val()
		snap.MarketCap = p.MarketCap.val()
	}
	if ap := res.AssetProfile; ap != nil {
		snap.Sector = ap.Sector
		snap.Industry = ap.Industry
		snap.Country = ap.Country
	}
	if sd := res.SummaryDetail; sd != nil {
		snap.Beta = sd.Beta.val()
		snap.TrailingPE = sd.TrailingPE.val()
		snap.DividendRate = sd.DividendRate.val()
		snap.PayoutRatio = sd.PayoutRatio.val()
		if snap.MarketCap == nil {
			snap.MarketCap = sd.MarketCap.val()
		}
	}
	if ks := res.DefaultKeyStatistics; ks != nil {
		snap.SharesOutstanding = ks.SharesOutstanding.val()
		snap.PriceToBook = ks.PriceToBook.val()
		if snap.Beta == nil {
			snap.Beta = ks.Beta.val()
		}
	}
	if fd := res.FinancialData; fd != nil {
		// financialData carries the live price; prefer it over the price
		// module when both are present.
		if v := fd.CurrentPrice.val(); v != nil {
			snap.Price = v
		}
		snap.ReturnOnAssets = fd.ReturnOnAssets.val()
		snap.ReturnOnEquity = fd.ReturnOnEquity.val()
		snap.CurrentRatio = fd.CurrentRatio.val()
		snap.QuickRatio = fd.QuickRatio.val()
		snap.DebtToEquity = fd.DebtToEquity.val()
		snap.OperatingMargin = fd.OperatingMargins.val()
		snap.ProfitMargin = fd.ProfitMargins.val()
	}
}

func applyStatements(snap *models.RawFinancialSnapshot, res *yfSummaryResult) {
	if res == nil {
		return
	}
	if ih := res.IncomeHistory; ih != nil {
		snap.Income = buildTable(ih.Statements, incomeItemKeys)
	}
	if bh := res.BalanceHistory; bh != nil {
		snap.BalanceSheet = buildTable(bh.Statements, balanceItemKeys)
	}
	if ch := res.CashflowHistory; ch != nil {
		snap.CashFlow = buildTable(ch.Statements, cashflowItemKeys)
		deriveFreeCashFlow(&snap.CashFlow)
	}
}

// buildTable converts provider statement periods into a canonical table,
// most recent period first, which is the order Yahoo already returns.
// Rows with no values at all are dropped.
func buildTable(statements []yfStatement, keys map[string]string) models.StatementTable {
	table := models.StatementTable{
		Periods: make([]string, len(statements)),
		Items:   make(map[string]models.Series, len(keys)),
	}
	for i, stmt := range statements {
		table.Periods[i] = stmt.endDate()
	}
	for canonical, provider := range keys {
		series := make(models.Series, len(statements))
		any := false
		for i, stmt := range statements {
			if v := stmt.value(provider); v != nil {
				series[i] = v
				any = true
			}
		}
		if any {
			table.Items[canonical] = series
		}
	}
	return table
}

// deriveFreeCashFlow synthesizes a Free Cash Flow row as operating cash
// flow plus capital expenditure (which Yahoo reports negative) when the
// provider does not carry one.
func deriveFreeCashFlow(cf *models.StatementTable) {
	if cf.Has(models.ItemFreeCashFlow) || !cf.Has(models.ItemOperatingCashFlow) {
		return
	}
	ocf := cf.Item(models.ItemOperatingCashFlow)
	capex := cf.Item(models.ItemCapitalExpenditure)
	fcf := make(models.Series, len(ocf))
	for i, v := range ocf {
		if v == nil {
			continue
		}
		f := *v
		if i < len(capex) && capex[i] != nil {
			f += *capex[i]
		}
		fcf[i] = &f
	}
	cf.Items[models.ItemFreeCashFlow] = fcf
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
