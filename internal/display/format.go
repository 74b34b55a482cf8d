package display

import (
	"math"
	"time"
)

// FormatDate renders e.g. "Monday, 11 March 2024".
func FormatDate(ts time.Time) string {
	return ts.Format("Monday, 2 January 2006")
}

// FormatShortDate renders e.g. "11 Mar".
func FormatShortDate(ts time.Time) string {
	return ts.Format("2 Jan")
}

func DayOfWeek(ts time.Time) string {
	return ts.Weekday().String()
}

// Degrees rounds half away from zero, the way the weather card shows it.
func Degrees(temp float64) int {
	return int(math.Round(temp))
}
