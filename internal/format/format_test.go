package format

import (
	"strconv"
	"strings"
	"testing"

	"github.com/evametrics/evascan/pkg/models"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"undefined", nil, "n/a"},
		{"plain", models.Float(20), "20.00"},
		{"rounded", models.Float(0.0785), "0.08"},
		{"negative", models.Float(-3.456), "-3.46"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Number(tt.in); got != tt.want {
				t.Errorf("Number = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"undefined", nil, "n/a"},
		{"wacc", models.Float(0.0685), "6.85%"},
		{"rounds half up", models.Float(0.08547), "8.55%"},
		{"whole", models.Float(0.10), "10.00%"},
		{"negative", models.Float(-0.0123), "-1.23%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.in); got != tt.want {
				t.Errorf("Percent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPercentRoundTrip(t *testing.T) {
	// A rendered percentage, stripped of its marker, must parse back to
	// the displayed two-decimal value.
	for _, v := range []float64{0.08547, 0.0685, 0.10, -0.0123, 1.5} {
		rendered := Percent(models.Float(v))
		stripped := strings.TrimSuffix(rendered, "%")
		parsed, err := strconv.ParseFloat(stripped, 64)
		if err != nil {
			t.Fatalf("Percent(%v) produced unparseable %q: %v", v, rendered, err)
		}
		redisplayed := Percent(models.Float(parsed / 100))
		if redisplayed != rendered {
			t.Errorf("round trip diverged: %q -> %v -> %q", rendered, parsed, redisplayed)
		}
	}
}

func TestVerdict(t *testing.T) {
	yes, no := true, false
	if got := Verdict(&yes); got != "yes" {
		t.Errorf("Verdict(true) = %q", got)
	}
	if got := Verdict(&no); got != "no" {
		t.Errorf("Verdict(false) = %q", got)
	}
	if got := Verdict(nil); got != "n/a" {
		t.Errorf("Verdict(nil) = %q", got)
	}
}

func TestCompact(t *testing.T) {
	if got := Compact(nil); got != "n/a" {
		t.Errorf("Compact(nil) = %q", got)
	}
	if got := Compact(models.Float(1_930_000_000_000)); got != "$1.93T" {
		t.Errorf("Compact = %q", got)
	}
}
