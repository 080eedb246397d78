package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/evametrics/evascan/pkg/models"
	"github.com/evametrics/evascan/pkg/utils"
)

// tickerFeedURL is Yahoo's per-symbol headline feed.
const tickerFeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

// NewsSource represents one market-wide RSS feed.
type NewsSource struct {
	Name   string
	RSSURL string
}

// DefaultNewsSources lists the configured US market news feeds.
var DefaultNewsSources = []NewsSource{
	{
		Name:   "Yahoo Finance",
		RSSURL: "https://finance.yahoo.com/news/rssindex",
	},
	{
		Name:   "CNBC",
		RSSURL: "https://www.cnbc.com/id/100003114/device/rss/rss.html",
	},
	{
		Name:   "MarketWatch",
		RSSURL: "https://feeds.content.dowjones.io/public/rss/mw_topstories",
	},
}

// News fetches financial headlines over RSS.
type News struct {
	sources     []NewsSource
	cache       *Cache
	limiter     *rate.Limiter
	parser      *gofeed.Parser
	maxArticles int
}

// NewNews creates a news source with the default feeds, a five minute
// cache, and a twenty article cap.
func NewNews() *News {
	return NewNewsWithOptions(DefaultNewsSources, 5*time.Minute, 20)
}

// NewNewsWithOptions creates a news source with custom feeds, cache TTL,
// and article cap.
func NewNewsWithOptions(sources []NewsSource, cacheTTL time.Duration, maxArticles int) *News {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if maxArticles <= 0 {
		maxArticles = 20
	}
	return &News{
		sources:     sources,
		cache:       NewCache(cacheTTL),
		limiter:     rate.NewLimiter(rate.Limit(2), 2), // conservative: 2 req/s
		parser:      gofeed.NewParser(),
		maxArticles: maxArticles,
	}
}

// Name returns the data source name.
func (n *News) Name() string { return "Market News" }

// GetMarketNews returns recent market headlines merged from all
// configured feeds, newest first.
func (n *News) GetMarketNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	limit = n.capLimit(limit)

	cacheKey := fmt.Sprintf("news:market:%d", limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	var all []models.NewsArticle
	for _, src := range n.sources {
		articles, err := n.fetchRSS(ctx, src.RSSURL, src.Name, nil)
		if err != nil {
			// Non-critical: skip failed feeds.
			continue
		}
		all = append(all, articles...)
	}

	all = dedupeArticles(all)
	sortArticlesByDate(all)
	if len(all) > limit {
		all = all[:limit]
	}

	n.cache.Set(cacheKey, all)
	return all, nil
}

// GetTickerNews returns headlines for one symbol from its dedicated
// Yahoo feed.
func (n *News) GetTickerNews(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	symbol := utils.NormalizeTicker(ticker)
	limit = n.capLimit(limit)

	cacheKey := fmt.Sprintf("news:ticker:%s:%d", symbol, limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	url := fmt.Sprintf(tickerFeedURL, symbol)
	articles, err := n.fetchRSS(ctx, url, "Yahoo Finance", []string{symbol})
	if err != nil {
		return nil, err
	}

	sortArticlesByDate(articles)
	if len(articles) > limit {
		articles = articles[:limit]
	}

	n.cache.Set(cacheKey, articles)
	return articles, nil
}

// fetchRSS parses one feed and returns its articles tagged with tickers.
func (n *News) fetchRSS(ctx context.Context, url, sourceName string, tickers []string) ([]models.NewsArticle, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", sourceName, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.NewsArticle{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Source:  sourceName,
			Summary: cleanHTML(item.Description),
			Tickers: tickers,
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}

	return articles, nil
}

func (n *News) capLimit(limit int) int {
	if limit <= 0 || limit > n.maxArticles {
		return n.maxArticles
	}
	return limit
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// dedupeArticles drops syndicated duplicates, keyed by URL. First
// occurrence wins.
func dedupeArticles(articles []models.NewsArticle) []models.NewsArticle {
	seen := make(map[string]bool, len(articles))
	out := articles[:0]
	for _, a := range articles {
		key := a.URL
		if key == "" {
			key = a.Title
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// sortArticlesByDate sorts articles newest first.
func sortArticlesByDate(articles []models.NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
