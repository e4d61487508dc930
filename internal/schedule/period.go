package schedule

import (
	"strings"
	"time"
)

// Period is the rendering scope requested by a user
type Period string

const (
	Today Period = "today"
	Week  Period = "week"
	Month Period = "month"
	Next  Period = "next"
)

// Periods returns every supported period in refresh order
func Periods() []Period {
	return []Period{Today, Week, Month, Next}
}

// ParsePeriod maps user input to a Period, defaulting to Month
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case Today:
		return Today
	case Week:
		return Week
	case Next:
		return Next
	default:
		return Month
	}
}

// Target returns the 0-based month and year a period resolves to.
// Next is the following month (December rolls over to January of next year);
// every other period is the current month.
func Target(now time.Time, p Period) (month, year int) {
	month = int(now.Month()) - 1
	year = now.Year()
	if p != Next {
		return month, year
	}
	if month == 11 {
		return 0, year + 1
	}
	return month + 1, year
}
