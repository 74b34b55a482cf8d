package location

import (
	"fmt"
	"strconv"
	"strings"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is either a city (optionally qualified with a country) or a
// coordinate pair. Coords takes precedence when set.
type Location struct {
	City    string       `json:"city,omitempty"`
	Country string       `json:"country,omitempty"`
	Coords  *Coordinates `json:"coords,omitempty"`
}

func City(name, country string) Location {
	return Location{City: strings.TrimSpace(name), Country: strings.TrimSpace(country)}
}

func At(lat, lon float64) Location {
	return Location{Coords: &Coordinates{Lat: lat, Lon: lon}}
}

func (l Location) IsZero() bool {
	return l.Coords == nil && strings.TrimSpace(l.City) == ""
}

func (l Location) String() string {
	if l.Coords != nil {
		return fmt.Sprintf("%.6f,%.6f", l.Coords.Lat, l.Coords.Lon)
	}
	if l.Country != "" {
		return fmt.Sprintf("%s,%s", l.City, l.Country)
	}
	return l.City
}

// Parse reads back the text produced by String.
func Parse(text string) Location {
	text = strings.TrimSpace(text)
	if text == "" {
		return Location{}
	}

	parts := strings.SplitN(text, ",", 2)
	if len(parts) == 1 {
		return City(parts[0], "")
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr == nil && lonErr == nil {
		return At(lat, lon)
	}
	return City(parts[0], parts[1])
}
