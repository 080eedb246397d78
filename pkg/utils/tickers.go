package utils

import "strings"

// NormalizeTicker normalizes a user-input ticker symbol: whitespace
// trimmed, uppercased, leading $ stripped (common in chat and social
// posts).
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	ticker = strings.TrimPrefix(ticker, "$")
	return ticker
}

// ParseTickerList splits comma-separated user input into normalized
// ticker symbols. Empty entries are dropped, duplicates keep their first
// position, and the list is truncated to max symbols when max > 0.
func ParseTickerList(input string, max int) []string {
	parts := strings.Split(input, ",")
	tickers := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		t := NormalizeTicker(p)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	if max > 0 && len(tickers) > max {
		tickers = tickers[:max]
	}
	return tickers
}
