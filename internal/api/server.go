package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"weather-lookup/internal/forecast"
	"weather-lookup/internal/location"
	"weather-lookup/internal/lookup"
	"weather-lookup/internal/mqtt"
	"weather-lookup/internal/refresher"
	"weather-lookup/internal/storage"
	"weather-lookup/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const fetchTimeout = 15 * time.Second

type Server struct {
	router    *gin.Engine
	server    *http.Server
	refresher *refresher.Refresher
	state     *storage.State
	locator   location.Locator
	publisher *mqtt.Publisher
	gatherer  prometheus.Gatherer
	port      int
}

type ServerConfig struct {
	Port      int
	Refresher *refresher.Refresher
	State     *storage.State
	Locator   location.Locator
	Publisher *mqtt.Publisher
	Gatherer  prometheus.Gatherer
}

type weatherResponse struct {
	Location  string                  `json:"location"`
	Current   *weather.Current        `json:"current"`
	IconURL   string                  `json:"icon_url,omitempty"`
	Daily     []forecast.DailySummary `json:"daily"`
	FetchedAt time.Time               `json:"fetched_at"`
}

type recentResponse struct {
	SavedLocation  string   `json:"saved_location"`
	RecentSearches []string `json:"recent_searches"`
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		router:    router,
		refresher: cfg.Refresher,
		state:     cfg.State,
		locator:   cfg.Locator,
		publisher: cfg.Publisher,
		gatherer:  gatherer,
		port:      cfg.Port,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := s.router.Group("/api/v1")
	{
		api.GET("/weather", s.weatherHandler)
		api.GET("/weather/latest", s.latestWeatherHandler)
		api.POST("/weather/gps", s.gpsWeatherHandler)
		api.GET("/recent", s.recentHandler)
		api.DELETE("/recent", s.clearRecentHandler)
		api.GET("/icon/:code", s.iconHandler)
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Printf("API server starting on port %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"refreshing":     s.refresher.IsRefreshing(),
		"location":       s.refresher.Location().String(),
		"mqtt_connected": s.publisher.IsConnected(),
		"timestamp":      time.Now(),
	})
}

func (s *Server) weatherHandler(c *gin.Context) {
	loc, fromInput, err := s.requestedLocation(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.respondWithFetch(c, loc, fromInput)
}

func (s *Server) gpsWeatherHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), fetchTimeout)
	defer cancel()

	coords, err := location.Locate(ctx, s.locator)
	if err != nil {
		log.Printf("Location lookup failed: %v", err)
		c.JSON(http.StatusForbidden, gin.H{"error": location.Message(err)})
		return
	}

	s.respondWithFetch(c, location.At(coords.Lat, coords.Lon), false)
}

func (s *Server) respondWithFetch(c *gin.Context, loc location.Location, record bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), fetchTimeout)
	defer cancel()

	result, err := s.refresher.Refresh(ctx, loc)
	if err != nil {
		c.JSON(weather.HTTPStatus(err), gin.H{
			"error": weather.Message(err),
			"kind":  weather.Classify(err).String(),
		})
		return
	}
	s.refresher.Track(result.Location)

	if record && s.state != nil {
		if err := s.state.AddRecentSearch(loc.String()); err != nil {
			log.Printf("Error saving recent search: %v", err)
		}
	}

	c.JSON(http.StatusOK, toWeatherResponse(result))
}

func (s *Server) latestWeatherHandler(c *gin.Context) {
	result, err := s.refresher.Latest()
	if err != nil {
		c.JSON(weather.HTTPStatus(err), gin.H{
			"error": weather.Message(err),
			"kind":  weather.Classify(err).String(),
		})
		return
	}
	if result == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No data available yet",
		})
		return
	}
	c.JSON(http.StatusOK, toWeatherResponse(result))
}

func (s *Server) recentHandler(c *gin.Context) {
	c.JSON(http.StatusOK, recentResponse{
		SavedLocation:  s.state.SavedLocation(),
		RecentSearches: s.state.RecentSearches(),
	})
}

func (s *Server) clearRecentHandler(c *gin.Context) {
	if err := s.state.ClearRecentSearches(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recentResponse{
		SavedLocation:  s.state.SavedLocation(),
		RecentSearches: s.state.RecentSearches(),
	})
}

func (s *Server) iconHandler(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing icon code"})
		return
	}
	c.Redirect(http.StatusFound, weather.IconURL(code))
}

// requestedLocation reads lat/lon or city/country from the query, falling
// back to the saved location. The bool reports free-text city input.
func (s *Server) requestedLocation(c *gin.Context) (location.Location, bool, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" || lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return location.Location{}, false, errors.New("Invalid 'lat' value")
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return location.Location{}, false, errors.New("Invalid 'lon' value")
		}
		return location.At(lat, lon), false, nil
	}

	if raw, ok := c.GetQuery("city"); ok {
		city, err := location.ValidateCity(raw)
		if err != nil {
			return location.Location{}, false, err
		}
		return location.City(city, c.Query("country")), true, nil
	}

	if s.state != nil {
		return location.Parse(s.state.SavedLocation()), false, nil
	}
	return location.Location{}, false, nil
}

func toWeatherResponse(result *lookup.Result) weatherResponse {
	resp := weatherResponse{
		Location:  result.Location.String(),
		Current:   result.Current,
		Daily:     result.Daily,
		FetchedAt: result.FetchedAt,
	}
	if icon := result.Current.Condition().Icon; icon != "" {
		resp.IconURL = weather.IconURL(icon)
	}
	return resp
}
