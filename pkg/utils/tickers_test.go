package utils

import (
	"reflect"
	"testing"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{" msft ", "MSFT"},
		{"$TSLA", "TSLA"},
		{"$ko", "KO"},
		{"BRK-B", "BRK-B"},
		{"", ""},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeTicker(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseTickerList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected []string
	}{
		{"simple", "AAPL,MSFT,GOOG", 10, []string{"AAPL", "MSFT", "GOOG"}},
		{"messy whitespace", " aapl , msft ,  ", 10, []string{"AAPL", "MSFT"}},
		{"duplicates keep first", "AAPL,aapl,MSFT,AAPL", 10, []string{"AAPL", "MSFT"}},
		{"truncated to max", "A,B,C,D,E", 3, []string{"A", "B", "C"}},
		{"no cap when max is zero", "A,B,C,D,E", 0, []string{"A", "B", "C", "D", "E"}},
		{"empty input", "", 10, []string{}},
		{"only commas", ",,,", 10, []string{}},
		{"dollar prefixes", "$NVDA, $amd", 10, []string{"NVDA", "AMD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseTickerList(tt.input, tt.max)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ParseTickerList(%q, %d) = %v, want %v", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}
