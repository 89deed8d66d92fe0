package timeutil

import (
	"time"
)

// Business is the billing timezone. Periods, due dates and "today"
// comparisons all happen in this location so a webhook arriving at
// 23:59 and a cron run at 00:01 agree on the calendar day.
var Business *time.Location

func init() {
	var err error
	Business, err = time.LoadLocation("Africa/Dakar")
	if err != nil {
		Business = time.UTC // Africa/Dakar is UTC+0 year round
	}
}

// Now returns the current time in the business timezone
func Now() time.Time {
	return time.Now().In(Business)
}

// PeriodBounds returns the first and last calendar day of (month, year)
func PeriodBounds(month, year int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, Business)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// DueDate is the first day of the period replaced with the lease billing
// day. Billing days past the month's end clamp to the last day, so a
// billing day of 31 still works in February.
func DueDate(month, year, billingDay int) time.Time {
	_, end := PeriodBounds(month, year)
	day := billingDay
	if day > end.Day() {
		day = end.Day()
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, Business)
}

// SameDayOrBefore reports whether a is on the same calendar day as b or
// earlier, in the business timezone
func SameDayOrBefore(a, b time.Time) bool {
	a = a.In(Business)
	b = b.In(Business)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad <= bd
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
