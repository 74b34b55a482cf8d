package weather

import (
	"context"
	"time"

	"weather-lookup/internal/location"
)

// Provider is the pair of reads a lookup needs.
type Provider interface {
	Current(ctx context.Context, loc location.Location) (*Current, error)
	Forecast(ctx context.Context, loc location.Location) (*Forecast, error)
}

type Main struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

// Current is the /weather payload.
type Current struct {
	Main     Main        `json:"main"`
	Weather  []Condition `json:"weather"`
	Wind     Wind        `json:"wind"`
	Name     string      `json:"name"`
	Dt       int64       `json:"dt"`
	Timezone int64       `json:"timezone"`
	Sys      struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

func (c *Current) Condition() Condition {
	if c == nil || len(c.Weather) == 0 {
		return Condition{}
	}
	return c.Weather[0]
}

func (c *Current) ObservedAt() time.Time {
	return time.Unix(c.Dt, 0).In(zone(c.Timezone))
}

// ForecastEntry is one 3-hour sample of the /forecast feed.
type ForecastEntry struct {
	Dt      int64       `json:"dt"`
	Main    Main        `json:"main"`
	Weather []Condition `json:"weather"`
	Wind    Wind        `json:"wind"`
	DtTxt   string      `json:"dt_txt"`
}

func (e ForecastEntry) Icon() string {
	if len(e.Weather) == 0 {
		return ""
	}
	return e.Weather[0].Icon
}

func (e ForecastEntry) Description() string {
	if len(e.Weather) == 0 {
		return ""
	}
	return e.Weather[0].Description
}

type City struct {
	Name     string `json:"name"`
	Country  string `json:"country"`
	Sunrise  int64  `json:"sunrise"`
	Sunset   int64  `json:"sunset"`
	Timezone int64  `json:"timezone"`
}

// Forecast is the /forecast payload.
type Forecast struct {
	List []ForecastEntry `json:"list"`
	City City            `json:"city"`
}

// Location returns the provider's local zone for the forecast city.
func (f *Forecast) Location() *time.Location {
	if f == nil {
		return time.UTC
	}
	return zone(f.City.Timezone)
}

func zone(offsetSeconds int64) *time.Location {
	if offsetSeconds == 0 {
		return time.UTC
	}
	return time.FixedZone("", int(offsetSeconds))
}
