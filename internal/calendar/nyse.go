package calendar

import (
	"sync"
	"time"

	"equity-feature-lab/internal/domain"
)

// NYSE is the New York Stock Exchange full-day holiday calendar.
//
// Holidays are derived from the exchange rules; one-off closures (state funerals,
// weather) are not predictable and are added with WithClosures.
type NYSE struct {
	mu       sync.Mutex
	years    map[int]map[time.Time]string
	closures map[time.Time]struct{}
}

// NewNYSE creates a NYSE calendar.
func NewNYSE() *NYSE {
	return &NYSE{
		years:    make(map[int]map[time.Time]string),
		closures: make(map[time.Time]struct{}),
	}
}

// WithClosures adds unscheduled full-day closures.
func (c *NYSE) WithClosures(dates ...time.Time) *NYSE {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range dates {
		c.closures[domain.Date(d)] = struct{}{}
	}
	return c
}

// IsTradingDay reports whether the exchange was open on date.
func (c *NYSE) IsTradingDay(date time.Time) bool {
	if !Weekdays.IsTradingDay(date) {
		return false
	}
	_, holiday := c.Holiday(date)
	return !holiday
}

// Holiday returns the holiday name for date, if any.
func (c *NYSE) Holiday(date time.Time) (string, bool) {
	d := domain.Date(date)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.closures[d]; ok {
		return "Unscheduled closure", true
	}
	hs, ok := c.years[d.Year()]
	if !ok {
		hs = nyseHolidays(d.Year())
		c.years[d.Year()] = hs
	}
	name, ok := hs[d]
	return name, ok
}

func nyseHolidays(year int) map[time.Time]string {
	hs := make(map[time.Time]string)
	add := func(d time.Time, name string) {
		if d.Year() == year {
			hs[d] = name
		}
	}

	// New Year's Day is not moved back to Friday when it falls on a Saturday.
	newYear := date(year, time.January, 1)
	if newYear.Weekday() == time.Sunday {
		add(newYear.AddDate(0, 0, 1), "New Year's Day")
	} else if newYear.Weekday() != time.Saturday {
		add(newYear, "New Year's Day")
	}

	if year >= 1998 {
		add(nthWeekday(year, time.January, time.Monday, 3), "Martin Luther King Jr. Day")
	}
	add(nthWeekday(year, time.February, time.Monday, 3), "Washington's Birthday")
	add(easter(year).AddDate(0, 0, -2), "Good Friday")
	add(lastWeekday(year, time.May, time.Monday), "Memorial Day")
	if year >= 2022 {
		add(observed(date(year, time.June, 19)), "Juneteenth")
	}
	add(observed(date(year, time.July, 4)), "Independence Day")
	add(nthWeekday(year, time.September, time.Monday, 1), "Labor Day")
	add(nthWeekday(year, time.November, time.Thursday, 4), "Thanksgiving Day")
	add(observed(date(year, time.December, 25)), "Christmas Day")

	return hs
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// observed moves Saturday holidays to Friday and Sunday holidays to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// easter returns Western Easter Sunday (anonymous Gregorian algorithm).
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}
