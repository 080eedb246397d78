// Package format renders optional metric values as display strings.
// The calculators work in raw fractions and nil-for-undefined; nothing
// outside this package should stringify a metric.
package format

import (
	"fmt"

	"github.com/evametrics/evascan/pkg/utils"
)

// NA is the placeholder rendered for any metric that could not be
// computed.
const NA = "n/a"

// Number renders a plain value with two decimals, or NA when undefined.
func Number(v *float64) string {
	if v == nil {
		return NA
	}
	return fmt.Sprintf("%.2f", *v)
}

// Percent renders a fraction as a percentage with two decimals and a %
// suffix: 0.0685 becomes "6.85%". Undefined values render as NA.
func Percent(v *float64) string {
	if v == nil {
		return NA
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// Compact renders a dollar amount in compact notation ($1.93T), or NA
// when undefined.
func Compact(v *float64) string {
	if v == nil {
		return NA
	}
	return utils.FormatUSDCompact(*v)
}

// Verdict renders a three-state flag: "yes", "no", or NA when the
// comparison could not be made.
func Verdict(v *bool) string {
	if v == nil {
		return NA
	}
	if *v {
		return "yes"
	}
	return "no"
}
