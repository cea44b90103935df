package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNYSE_Holidays(t *testing.T) {
	cal := NewNYSE()

	closed := []time.Time{
		date(2016, time.December, 26), // Christmas observed
		date(2017, time.January, 2),   // New Year observed
		date(2019, time.January, 21),  // MLK
		date(2019, time.April, 19),    // Good Friday
		date(2019, time.May, 27),      // Memorial Day
		date(2019, time.July, 4),
		date(2019, time.September, 2),
		date(2019, time.November, 28),
		date(2020, time.July, 3), // Independence Day observed
		date(2022, time.June, 20),
		date(2024, time.March, 29), // Good Friday
		date(2019, time.January, 5), // Saturday
	}
	for _, d := range closed {
		assert.False(t, cal.IsTradingDay(d), d.Format("2006-01-02"))
	}

	open := []time.Time{
		date(2016, time.December, 23),
		date(2021, time.December, 31), // New Year on Saturday is not observed on Friday
		date(2021, time.June, 18),     // before Juneteenth became a holiday
		date(2019, time.November, 29),
	}
	for _, d := range open {
		assert.True(t, cal.IsTradingDay(d), d.Format("2006-01-02"))
	}
}

func TestNYSE_HolidayName(t *testing.T) {
	name, ok := NewNYSE().Holiday(date(2019, time.April, 19))
	assert.True(t, ok)
	assert.Equal(t, "Good Friday", name)
}

func TestTradingDays_December2016(t *testing.T) {
	days := TradingDays(NewNYSE(), date(2016, time.December, 1), date(2016, time.December, 31))
	assert.Len(t, days, 21)
	assert.Equal(t, date(2016, time.December, 1), days[0])
	assert.Equal(t, date(2016, time.December, 30), days[len(days)-1])
}

func TestNYSE_WithClosures(t *testing.T) {
	cal := NewNYSE().WithClosures(time.Date(2018, time.December, 5, 15, 0, 0, 0, time.UTC))
	days := TradingDays(cal, date(2018, time.December, 1), date(2018, time.December, 31))
	assert.Len(t, days, 19)
	assert.False(t, cal.IsTradingDay(date(2018, time.December, 5)))
}

func TestEaster(t *testing.T) {
	assert.Equal(t, date(2019, time.April, 21), easter(2019))
	assert.Equal(t, date(2024, time.March, 31), easter(2024))
	assert.Equal(t, date(2000, time.April, 23), easter(2000))
}
