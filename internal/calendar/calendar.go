// Package calendar answers whether the market was open on a date.
package calendar

import (
	"time"

	"equity-feature-lab/internal/domain"
)

// Oracle decides whether a date is a trading day.
type Oracle interface {
	IsTradingDay(date time.Time) bool
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(time.Time) bool

// IsTradingDay calls f.
func (f OracleFunc) IsTradingDay(date time.Time) bool {
	return f(date)
}

// Weekdays treats every Monday to Friday as a trading day.
var Weekdays Oracle = OracleFunc(func(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
})

// TradingDays returns the trading days in [start, end], ascending.
func TradingDays(o Oracle, start, end time.Time) []time.Time {
	start, end = domain.Date(start), domain.Date(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if o.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}
