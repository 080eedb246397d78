package utils

import "time"

// ET is the US Eastern Time location used by NYSE and Nasdaq.
var ET *time.Location

func init() {
	var err error
	ET, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: fixed zone without DST if tz database is not available
		ET = time.FixedZone("EST", -5*60*60)
	}
}

// NowET returns the current time in US Eastern Time.
func NowET() time.Time {
	return time.Now().In(ET)
}

// MarketOpenTime returns the regular-session open (9:30 AM ET) for a date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, ET)
}

// MarketCloseTime returns the regular-session close (4:00 PM ET) for a date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, ET)
}

// IsMarketOpenAt checks whether the US equity market would be open in the
// regular session at the given time.
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(ET)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	if IsTradingHoliday(t) {
		return false
	}
	open := MarketOpenTime(t)
	close := MarketCloseTime(t)
	return !t.Before(open) && !t.After(close)
}

// IsMarketOpen checks whether the US equity market is currently open.
func IsMarketOpen() bool {
	return IsMarketOpenAt(NowET())
}

// IsTradingHoliday checks whether the given date is a US market holiday.
func IsTradingHoliday(t time.Time) bool {
	_, holiday := nyseHolidays2026[t.In(ET).Format("2006-01-02")]
	return holiday
}

// NYSE full-day holidays for 2026 (update annually).
var nyseHolidays2026 = map[string]string{
	"2026-01-01": "New Year's Day",
	"2026-01-19": "Martin Luther King, Jr. Day",
	"2026-02-16": "Washington's Birthday",
	"2026-04-03": "Good Friday",
	"2026-05-25": "Memorial Day",
	"2026-06-19": "Juneteenth",
	"2026-07-03": "Independence Day (observed)",
	"2026-09-07": "Labor Day",
	"2026-11-26": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",
}

// MarketStatus returns a human-readable status for the US equity market.
func MarketStatus() string {
	return MarketStatusAt(NowET())
}

// MarketStatusAt returns the market status string for a specific time.
func MarketStatusAt(now time.Time) string {
	now = now.In(ET)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}
	if IsTradingHoliday(now) {
		return "CLOSED (" + nyseHolidays2026[now.Format("2006-01-02")] + ")"
	}

	switch {
	case now.Before(MarketOpenTime(now)):
		return "PRE-MARKET"
	case !now.After(MarketCloseTime(now)):
		return "OPEN"
	default:
		return "AFTER-HOURS"
	}
}

// FormatDateTimeET formats a time as "2006-01-02 15:04:05 ET".
func FormatDateTimeET(t time.Time) string {
	return t.In(ET).Format("2006-01-02 15:04:05") + " ET"
}
