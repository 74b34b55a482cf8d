package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"weather-lookup/internal/forecast"
	"weather-lookup/internal/lookup"
	"weather-lookup/internal/weather"
)

func RenderCurrent(w io.Writer, current *weather.Current) error {
	if current == nil {
		return nil
	}
	condition := current.Condition()

	place := current.Name
	if current.Sys.Country != "" {
		place = fmt.Sprintf("%s, %s", current.Name, current.Sys.Country)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", place)
	fmt.Fprintf(tw, "%s\n\n", FormatDate(current.ObservedAt()))
	fmt.Fprintf(tw, "  Temperature:\t%d°C\t%s\n", Degrees(current.Main.Temp), capitalize(condition.Description))
	fmt.Fprintf(tw, "  Feels like:\t%d°C\n", Degrees(current.Main.FeelsLike))
	fmt.Fprintf(tw, "  Wind:\t%g m/s\n", current.Wind.Speed)
	fmt.Fprintf(tw, "  Humidity:\t%g%%\n", current.Main.Humidity)
	if condition.Icon != "" {
		fmt.Fprintf(tw, "  Icon:\t%s\n", weather.IconURL(condition.Icon))
	}
	return tw.Flush()
}

func RenderDaily(w io.Writer, days []forecast.DailySummary) error {
	fmt.Fprintln(w, "5-Day Forecast")
	if len(days) == 0 {
		fmt.Fprintln(w, "  no forecast available")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, day := range days {
		fmt.Fprintf(tw, "  %s\t%s\t%d°C / %d°C\t%s\t%s\n",
			DayOfWeek(day.Timestamp),
			FormatShortDate(day.Timestamp),
			Degrees(day.TempMin),
			Degrees(day.TempMax),
			day.DayIcon,
			day.NightIcon,
		)
	}
	return tw.Flush()
}

// RenderResult prints a full lookup, or only the error message when the
// lookup failed.
func RenderResult(w io.Writer, result *lookup.Result, err error) error {
	if err != nil {
		_, werr := fmt.Fprintln(w, weather.Message(err))
		return werr
	}
	if err := RenderCurrent(w, result.Current); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := RenderDaily(w, result.Daily); err != nil {
		return err
	}
	_, werr := fmt.Fprintf(w, "\nUpdated %s\n", result.FetchedAt.Format(time.Kitchen))
	return werr
}

func RenderRecent(w io.Writer, saved string, recent []string) error {
	if saved != "" {
		fmt.Fprintf(w, "Saved location: %s\n", saved)
	}
	if len(recent) == 0 {
		_, err := fmt.Fprintln(w, "No recent searches")
		return err
	}
	fmt.Fprintln(w, "Recent searches:")
	for i, item := range recent {
		fmt.Fprintf(w, "  %d. %s\n", i+1, item)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
