package lookup

import (
	"context"
	"fmt"
	"time"

	"weather-lookup/internal/forecast"
	"weather-lookup/internal/location"
	"weather-lookup/internal/weather"

	"golang.org/x/sync/errgroup"
)

// Result is a complete lookup. It is never built from a single payload.
type Result struct {
	Location  location.Location       `json:"location"`
	Current   *weather.Current        `json:"current"`
	Forecast  *weather.Forecast       `json:"-"`
	Daily     []forecast.DailySummary `json:"daily"`
	FetchedAt time.Time               `json:"fetched_at"`
}

type Service struct {
	provider weather.Provider
	fallback location.Location
	metrics  *Metrics
	now      func() time.Time
}

type ServiceConfig struct {
	Provider       weather.Provider
	DefaultCity    string
	DefaultCountry string
	Metrics        *Metrics
}

func NewService(cfg ServiceConfig) *Service {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		provider: cfg.Provider,
		fallback: location.City(cfg.DefaultCity, cfg.DefaultCountry),
		metrics:  metrics,
		now:      time.Now,
	}
}

func (s *Service) Default() location.Location {
	return s.fallback
}

// Fetch reads current conditions and the forecast concurrently. Both must
// succeed; otherwise the first error is returned and nothing else.
func (s *Service) Fetch(ctx context.Context, loc location.Location) (*Result, error) {
	if loc.IsZero() {
		loc = s.fallback
	}

	started := s.now()
	var current *weather.Current
	var feed *weather.Forecast

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.provider.Current(gctx, loc)
		if err != nil {
			return fmt.Errorf("current weather for %s: %w", loc, err)
		}
		current = c
		return nil
	})
	g.Go(func() error {
		f, err := s.provider.Forecast(gctx, loc)
		if err != nil {
			return fmt.Errorf("forecast for %s: %w", loc, err)
		}
		feed = f
		return nil
	})

	err := g.Wait()
	s.metrics.duration.Observe(s.now().Sub(started).Seconds())
	if err != nil {
		s.metrics.fetches.WithLabelValues(weather.Classify(err).String()).Inc()
		return nil, err
	}
	s.metrics.fetches.WithLabelValues("ok").Inc()

	fetchedAt := s.now()
	return &Result{
		Location:  loc,
		Current:   current,
		Forecast:  feed,
		Daily:     forecast.Aggregate(feed.List, fetchedAt, feed.Location()),
		FetchedAt: fetchedAt,
	}, nil
}
