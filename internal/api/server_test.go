package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"weather-lookup/internal/location"
	"weather-lookup/internal/lookup"
	"weather-lookup/internal/refresher"
	"weather-lookup/internal/storage"
	"weather-lookup/internal/weather"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider knows a fixed set of cities and treats the rest as 404.
type fakeProvider struct {
	known map[string]bool
}

func (p *fakeProvider) lookup(loc location.Location) error {
	if loc.Coords != nil || p.known[loc.City] {
		return nil
	}
	return &weather.APIError{Kind: weather.KindNotFound, Status: http.StatusNotFound}
}

func (p *fakeProvider) Current(_ context.Context, loc location.Location) (*weather.Current, error) {
	if err := p.lookup(loc); err != nil {
		return nil, err
	}
	name := loc.City
	if loc.Coords != nil {
		name = "Here"
	}
	return &weather.Current{
		Name:    name,
		Main:    weather.Main{Temp: 18},
		Weather: []weather.Condition{{Icon: "01d", Description: "clear sky"}},
	}, nil
}

func (p *fakeProvider) Forecast(_ context.Context, loc location.Location) (*weather.Forecast, error) {
	if err := p.lookup(loc); err != nil {
		return nil, err
	}
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	noon := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 12, 0, 0, 0, time.UTC)
	return &weather.Forecast{List: []weather.ForecastEntry{{
		Dt:      noon.Unix(),
		Main:    weather.Main{Temp: 15, TempMin: 15, TempMax: 15},
		Weather: []weather.Condition{{Icon: "02d"}},
	}}}, nil
}

func newTestServer(t *testing.T, locator location.Locator) (*Server, *storage.State) {
	t.Helper()

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	state, err := storage.LoadState(db)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	service := lookup.NewService(lookup.ServiceConfig{
		Provider:       &fakeProvider{known: map[string]bool{"Madrid": true, "Helsinki": true}},
		DefaultCity:    "Helsinki",
		DefaultCountry: "",
		Metrics:        lookup.NewMetrics(reg),
	})
	ref := refresher.NewRefresher(refresher.RefresherConfig{Fetcher: service, State: state, Database: db})
	t.Cleanup(func() { _ = ref.Stop() })

	if locator == nil {
		locator = location.NewStaticLocator(false, 0, 0)
	}

	return NewServer(ServerConfig{
		Refresher: ref,
		State:     state,
		Locator:   locator,
		Gatherer:  reg,
	}), state
}

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Header().Get("Content-Type") != "" && rec.Code != http.StatusFound {
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
	}
	return rec, body
}

func TestWeatherByCity(t *testing.T) {
	s, state := newTestServer(t, nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/weather?city=%20Madrid%20")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Madrid", body["location"])
	assert.Equal(t, "https://openweathermap.org/img/wn/01d@2x.png", body["icon_url"])
	assert.Len(t, body["daily"], 1)
	assert.Equal(t, []string{"Madrid"}, state.RecentSearches())
	assert.Equal(t, "Madrid", state.SavedLocation())
}

func TestWeatherRejectsInvalidCity(t *testing.T) {
	s, state := newTestServer(t, nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/weather?city=123")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "City name can only contain letters, spaces, and hyphens", body["error"])
	assert.Empty(t, state.RecentSearches())
}

func TestWeatherNotFound(t *testing.T) {
	s, state := newTestServer(t, nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/weather?city=Atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["kind"])
	assert.Empty(t, state.RecentSearches())

	rec, _ = do(t, s, http.MethodGet, "/api/v1/weather/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWeatherDefaultsToSavedThenFallback(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/weather")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Helsinki", body["location"])
}

func TestGPSWeather(t *testing.T) {
	s, _ := newTestServer(t, location.NewStaticLocator(true, 60.17, 24.94))

	rec, body := do(t, s, http.MethodPost, "/api/v1/weather/gps")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60.170000,24.940000", body["location"])

	denied, _ := newTestServer(t, nil)
	rec, body = do(t, denied, http.MethodPost, "/api/v1/weather/gps")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, body["error"], "Permission Denied")
}

func TestRecentListAndClear(t *testing.T) {
	s, state := newTestServer(t, nil)
	require.NoError(t, state.AddRecentSearch("Madrid"))
	require.NoError(t, state.AddRecentSearch("MADRID"))

	rec, body := do(t, s, http.MethodGet, "/api/v1/recent")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"MADRID"}, body["recent_searches"])

	rec, body = do(t, s, http.MethodDelete, "/api/v1/recent")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["recent_searches"])
	assert.Equal(t, "MADRID", body["saved_location"])
}

func TestIconRedirect(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, _ := do(t, s, http.MethodGet, "/api/v1/icon/10n")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://openweathermap.org/img/wn/10n@2x.png", rec.Header().Get("Location"))
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, body := do(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	do(t, s, http.MethodGet, "/api/v1/weather?city=Madrid")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metrics := httptest.NewRecorder()
	s.Handler().ServeHTTP(metrics, req)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `weather_lookup_fetch_total{outcome="ok"} 1`)
}
