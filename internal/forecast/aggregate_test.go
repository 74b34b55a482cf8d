package forecast

import (
	"testing"
	"time"

	"weather-lookup/internal/weather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

func sample(day, hour int, temp float64, icon string) weather.ForecastEntry {
	return sampleRange(day, hour, temp, temp, temp, icon)
}

func sampleRange(day, hour int, temp, lo, hi float64, icon string) weather.ForecastEntry {
	ts := time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
	return weather.ForecastEntry{
		Dt:      ts.Unix(),
		Main:    weather.Main{Temp: temp, TempMin: lo, TempMax: hi},
		Weather: []weather.Condition{{Icon: icon, Description: "sample"}},
	}
}

func TestAggregateOnlyTodayIsEmpty(t *testing.T) {
	entries := []weather.ForecastEntry{
		sample(10, 12, 5, "01d"),
		sample(10, 15, 6, "02d"),
		sample(10, 21, 2, "01n"),
	}

	result := Aggregate(entries, now, time.UTC)
	assert.Empty(t, result)
}

func TestAggregateMixedDay(t *testing.T) {
	entries := []weather.ForecastEntry{
		sample(11, 3, 10, "night-3"),
		sample(11, 9, 15, "day-9"),
		sample(11, 13, 20, "day-13"),
		sample(11, 21, 12, "night-21"),
	}

	result := Aggregate(entries, now, time.UTC)
	require.Len(t, result, 1)

	day := result[0]
	assert.Equal(t, "2024-03-11", day.Date)
	assert.Equal(t, "Monday", day.Weekday)
	assert.Equal(t, 10.0, day.TempMin)
	assert.Equal(t, 20.0, day.TempMax)
	assert.Equal(t, "day-13", day.DayIcon)
	assert.Equal(t, "night-3", day.NightIcon)
	assert.Equal(t, 13, day.Timestamp.Hour())
}

func TestAggregateSingleSample(t *testing.T) {
	entries := []weather.ForecastEntry{
		sampleRange(12, 9, 7.5, 3, 11, "04d"),
	}

	result := Aggregate(entries, now, time.UTC)
	require.Len(t, result, 1)
	assert.Equal(t, 7.5, result[0].TempMin)
	assert.Equal(t, 7.5, result[0].TempMax)
	assert.Equal(t, "04d", result[0].DayIcon)
	assert.Equal(t, "04d", result[0].NightIcon)
}

func TestAggregateNightOnlyBackfill(t *testing.T) {
	entries := []weather.ForecastEntry{
		sample(12, 0, 1, "10n"),
		sample(12, 3, 0, "09n"),
	}

	result := Aggregate(entries, now, time.UTC)
	require.Len(t, result, 1)
	assert.Equal(t, "10n", result[0].NightIcon)
	assert.Equal(t, "10n", result[0].DayIcon)
}

func TestAggregateFallbackIcons(t *testing.T) {
	entry := sample(12, 9, 4, "")
	entry.Weather = nil

	result := Aggregate([]weather.ForecastEntry{entry}, now, time.UTC)
	require.Len(t, result, 1)
	assert.Equal(t, FallbackDayIcon, result[0].DayIcon)
	assert.Equal(t, FallbackNightIcon, result[0].NightIcon)
}

func TestAggregatePreferenceWindowsLastWriteWins(t *testing.T) {
	entries := []weather.ForecastEntry{
		sample(12, 1, 3, "night-1"),
		sample(12, 2, 3, "night-2"),
		sample(12, 12, 8, "day-12"),
		sample(12, 14, 9, "day-14"),
		sample(12, 17, 6, "day-17"),
		sample(12, 23, 2, "night-23"),
	}

	result := Aggregate(entries, now, time.UTC)
	require.Len(t, result, 1)
	assert.Equal(t, "day-14", result[0].DayIcon)
	assert.Equal(t, "night-2", result[0].NightIcon)
	assert.Equal(t, 14, result[0].Timestamp.Hour())
}

func TestAggregateMinMaxUsesReportedRange(t *testing.T) {
	entries := []weather.ForecastEntry{
		sampleRange(13, 6, 10, 9, 11, "01d"),
		sampleRange(13, 9, 12, 4, 18, "01d"),
	}

	result := Aggregate(entries, now, time.UTC)
	require.Len(t, result, 1)
	assert.Equal(t, 4.0, result[0].TempMin)
	assert.Equal(t, 18.0, result[0].TempMax)
}

func TestAggregateCapsAndOrders(t *testing.T) {
	var entries []weather.ForecastEntry
	for day := 17; day >= 10; day-- {
		entries = append(entries, sample(day, 12, float64(day), "01d"))
	}

	result := Aggregate(entries, now, time.UTC)
	require.Len(t, result, MaxDays)

	today := now.Format(dateLayout)
	for i, summary := range result {
		assert.NotEqual(t, today, summary.Date)
		if i > 0 {
			assert.Less(t, result[i-1].Date, summary.Date)
		}
	}
	assert.Equal(t, "2024-03-11", result[0].Date)
	assert.Equal(t, "2024-03-15", result[MaxDays-1].Date)
}

func TestAggregateUsesProviderZone(t *testing.T) {
	helsinki := time.FixedZone("", 2*3600)
	// 23:00 UTC on the 10th is 01:00 on the 11th in the provider's zone.
	entry := weather.ForecastEntry{
		Dt:      time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC).Unix(),
		Main:    weather.Main{Temp: 1, TempMin: 1, TempMax: 1},
		Weather: []weather.Condition{{Icon: "13n"}},
	}

	result := Aggregate([]weather.ForecastEntry{entry}, now, helsinki)
	require.Len(t, result, 1)
	assert.Equal(t, "2024-03-11", result[0].Date)
	assert.Equal(t, "13n", result[0].NightIcon)

	assert.Empty(t, Aggregate([]weather.ForecastEntry{entry}, now, time.UTC))
}
