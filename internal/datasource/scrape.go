package datasource

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/evametrics/evascan/pkg/models"
)

const defaultKeyStatsBaseURL = "https://finance.yahoo.com"

// keyStatsScraper scrapes the Yahoo quote key-statistics page for the
// slow-changing scalars an API response left empty. It only runs when
// source.scrape_fallback is enabled and is strictly best effort: a
// scrape failure never fails a snapshot.
//
// Live fields such as price are never scraped, so cached page values
// cannot leak a stale quote into a fresh snapshot.
type keyStatsScraper struct {
	baseURL string
	client  *http.Client
	cache   *Cache
	limiter *rate.Limiter
}

func newKeyStatsScraper(client *http.Client) *keyStatsScraper {
	return &keyStatsScraper{
		baseURL: defaultKeyStatsBaseURL,
		client:  client,
		cache:   NewCache(30 * time.Minute),
		limiter: rate.NewLimiter(rate.Limit(1), 1), // conservative: 1 req/s
	}
}

// scrapedStats holds the values parsed from one key-statistics page.
type scrapedStats struct {
	SharesOutstanding *float64
	Beta              *float64
	MarketCap         *float64
	TrailingPE        *float64
	PriceToBook       *float64
	PayoutRatio       *float64
	DividendRate      *float64
}

// fillMissing copies scraped values into snapshot fields that are still
// nil after the API pass.
func (k *keyStatsScraper) fillMissing(ctx context.Context, snap *models.RawFinancialSnapshot) {
	stats, err := k.keyStats(ctx, snap.Ticker)
	if err != nil {
		return
	}
	fillFloat(&snap.SharesOutstanding, stats.SharesOutstanding)
	fillFloat(&snap.Beta, stats.Beta)
	fillFloat(&snap.MarketCap, stats.MarketCap)
	fillFloat(&snap.TrailingPE, stats.TrailingPE)
	fillFloat(&snap.PriceToBook, stats.PriceToBook)
	fillFloat(&snap.PayoutRatio, stats.PayoutRatio)
	fillFloat(&snap.DividendRate, stats.DividendRate)
}

func fillFloat(dst **float64, src *float64) {
	if *dst == nil && src != nil {
		*dst = src
	}
}

// keyStats downloads and parses the key-statistics page for one symbol.
func (k *keyStatsScraper) keyStats(ctx context.Context, symbol string) (*scrapedStats, error) {
	cacheKey := "scrape:stats:" + symbol
	if cached, ok := k.cache.Get(cacheKey); ok {
		return cached.(*scrapedStats), nil
	}

	if err := k.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/quote/%s/key-statistics", k.baseURL, symbol)
	body, _, err := doGet(ctx, k.client, url, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, fmt.Errorf("key-statistics %s: %w", symbol, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse key-statistics HTML: %w", err)
	}

	stats := parseKeyStats(doc)
	k.cache.Set(cacheKey, stats)
	return stats, nil
}

// parseKeyStats walks every statistics table row. Labels carry footnote
// markers ("Shares Outstanding 5"), so matching is by substring.
func parseKeyStats(doc *goquery.Document) *scrapedStats {
	stats := &scrapedStats{}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("td").Length() < 2 {
			return
		}
		label := strings.TrimSpace(row.Find("td:first-child").Text())
		val := parseAbbrevNumber(strings.TrimSpace(row.Find("td:last-child").Text()))
		if val == nil {
			return
		}

		switch {
		case strings.Contains(label, "Shares Outstanding"):
			stats.SharesOutstanding = val
		case strings.Contains(label, "Beta"):
			stats.Beta = val
		case strings.Contains(label, "Market Cap"):
			stats.MarketCap = val
		case strings.Contains(label, "Trailing P/E"):
			stats.TrailingPE = val
		case strings.Contains(label, "Price/Book"):
			stats.PriceToBook = val
		case strings.Contains(label, "Payout Ratio"):
			stats.PayoutRatio = val
		case strings.Contains(label, "Forward Annual Dividend Rate"):
			stats.DividendRate = val
		}
	})

	return stats
}

// parseAbbrevNumber parses a number in Yahoo display format. Handles
// commas, K/M/B/T suffixes, and percentages (returned as fractions).
// Returns nil for "N/A", "--", and anything unparseable, because a value
// the page does not carry must stay absent rather than become zero.
func parseAbbrevNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" || s == "--" || s == "-" {
		return nil
	}
	s = strings.Replace(s, ",", "", -1)

	percent := false
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		percent = true
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "T"):
		s = strings.TrimSuffix(s, "T")
		multiplier = 1e12
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
		multiplier = 1e9
	case strings.HasSuffix(s, "M"):
		s = strings.TrimSuffix(s, "M")
		multiplier = 1e6
	case strings.HasSuffix(s, "k"), strings.HasSuffix(s, "K"):
		s = strings.TrimSuffix(strings.TrimSuffix(s, "k"), "K")
		multiplier = 1e3
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	val *= multiplier
	if percent {
		val /= 100
	}
	return &val
}
