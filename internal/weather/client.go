package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weather-lookup/internal/location"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	iconURLFormat  = "https://openweathermap.org/img/wn/%s@2x.png"
)

type Client struct {
	apiKey  string
	baseURL string
	units   string
	limiter *rate.Limiter
	client  *http.Client
}

type ClientConfig struct {
	APIKey    string
	BaseURL   string
	Units     string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Units == "" {
		cfg.Units = "metric"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		units:   cfg.Units,
		limiter: rate.NewLimiter(limit, cfg.RateBurst),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func IconURL(code string) string {
	return fmt.Sprintf(iconURLFormat, code)
}

func (c *Client) Current(ctx context.Context, loc location.Location) (*Current, error) {
	var payload Current
	if err := c.get(ctx, "/weather", loc, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) Forecast(ctx context.Context, loc location.Location) (*Forecast, error) {
	var payload Forecast
	if err := c.get(ctx, "/forecast", loc, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) query(loc location.Location) (url.Values, error) {
	query := url.Values{}

	if loc.Coords != nil {
		query.Set("lat", fmt.Sprintf("%.6f", loc.Coords.Lat))
		query.Set("lon", fmt.Sprintf("%.6f", loc.Coords.Lon))
	} else if strings.TrimSpace(loc.City) != "" {
		if loc.Country != "" {
			query.Set("q", fmt.Sprintf("%s,%s", loc.City, loc.Country))
		} else {
			query.Set("q", loc.City)
		}
	} else {
		return nil, fmt.Errorf("openweather location is empty")
	}

	query.Set("units", c.units)
	query.Set("appid", c.apiKey)
	return query, nil
}

func (c *Client) get(ctx context.Context, path string, loc location.Location, out interface{}) error {
	query, err := c.query(loc)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("openweather rate limit wait: %w", err)
	}

	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("openweather request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			Kind:   kindForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openweather decode: %w", err)
	}
	return nil
}
