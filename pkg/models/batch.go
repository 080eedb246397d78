package models

import "time"

// ErrorRecord describes a ticker whose snapshot could not be fetched.
// Failed tickers stay in the batch result instead of being dropped.
type ErrorRecord struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// BatchResult is the outcome of one analysis run. Every requested ticker
// appears in exactly one of Metrics or Errors, keyed by normalized symbol.
type BatchResult struct {
	// Tickers preserves the request order after normalization.
	Tickers     []string                   `json:"tickers"`
	Metrics     map[string]*DerivedMetrics `json:"metrics"`
	Errors      map[string]*ErrorRecord    `json:"errors"`
	Assumptions Assumptions                `json:"assumptions"`
	StartedAt   time.Time                  `json:"started_at"`
	FinishedAt  time.Time                  `json:"finished_at"`
}

// Succeeded returns the number of tickers that produced metrics.
func (r *BatchResult) Succeeded() int {
	return len(r.Metrics)
}

// Failed returns the number of tickers that ended in an error record.
func (r *BatchResult) Failed() int {
	return len(r.Errors)
}
