// Package forecast collapses the 3-hour forecast feed into one row per day.
package forecast

import (
	"sort"
	"time"

	"weather-lookup/internal/weather"
)

const (
	MaxDays           = 5
	FallbackDayIcon   = "01d"
	FallbackNightIcon = "01n"

	dateLayout = "2006-01-02"
)

type DailySummary struct {
	Date      string    `json:"date"`
	Weekday   string    `json:"weekday"`
	Timestamp time.Time `json:"timestamp"`
	TempMin   float64   `json:"temp_min"`
	TempMax   float64   `json:"temp_max"`
	DayIcon   string    `json:"day_icon"`
	NightIcon string    `json:"night_icon"`
}

func isDaytime(hour int) bool {
	return hour >= 6 && hour < 18
}

func isMidday(hour int) bool {
	return hour >= 12 && hour <= 14
}

func isMidnight(hour int) bool {
	return hour >= 0 && hour <= 2
}

// Aggregate groups entries by calendar day in loc, skipping the day that
// contains now, and returns at most MaxDays summaries in date order.
func Aggregate(entries []weather.ForecastEntry, now time.Time, loc *time.Location) []DailySummary {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc).Format(dateLayout)

	days := make(map[string]*DailySummary)
	for _, entry := range entries {
		ts := time.Unix(entry.Dt, 0).In(loc)
		day := ts.Format(dateLayout)
		if day == today {
			continue
		}

		hour := ts.Hour()
		icon := entry.Icon()

		summary, ok := days[day]
		if !ok {
			summary = &DailySummary{
				Date:      day,
				Timestamp: ts,
				TempMin:   entry.Main.Temp,
				TempMax:   entry.Main.Temp,
			}
			if isDaytime(hour) {
				summary.DayIcon = icon
			} else {
				summary.NightIcon = icon
			}
			days[day] = summary
			continue
		}

		if entry.Main.TempMin < summary.TempMin {
			summary.TempMin = entry.Main.TempMin
		}
		if entry.Main.TempMax > summary.TempMax {
			summary.TempMax = entry.Main.TempMax
		}

		if isDaytime(hour) {
			if summary.DayIcon == "" || isMidday(hour) {
				summary.DayIcon = icon
			}
		} else if summary.NightIcon == "" || isMidnight(hour) {
			summary.NightIcon = icon
		}

		if isMidday(hour) {
			summary.Timestamp = ts
		}
	}

	result := make([]DailySummary, 0, len(days))
	for _, summary := range days {
		switch {
		case summary.DayIcon == "" && summary.NightIcon != "":
			summary.DayIcon = summary.NightIcon
		case summary.NightIcon == "" && summary.DayIcon != "":
			summary.NightIcon = summary.DayIcon
		case summary.DayIcon == "" && summary.NightIcon == "":
			summary.DayIcon = FallbackDayIcon
			summary.NightIcon = FallbackNightIcon
		}
		summary.Weekday = summary.Timestamp.Weekday().String()
		result = append(result, *summary)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	if len(result) > MaxDays {
		result = result[:MaxDays]
	}
	return result
}
