package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"weather-lookup/config"
	"weather-lookup/internal/api"
	"weather-lookup/internal/display"
	"weather-lookup/internal/location"
	"weather-lookup/internal/lookup"
	"weather-lookup/internal/mqtt"
	"weather-lookup/internal/refresher"
	"weather-lookup/internal/storage"
	"weather-lookup/internal/weather"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

type locationFlags struct {
	country string
	lat     float64
	lon     float64
	gps     bool
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "weather-lookup",
		Short:        "Current weather and 5-day forecast",
		Long:         "Look up current conditions and a daily forecast from OpenWeather for a city or coordinate",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				log.SetOutput(io.Discard)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(recentCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg     *config.Config
	db      *storage.Database
	state   *storage.State
	service *lookup.Service
	locator location.Locator
}

func newApp(reg prometheus.Registerer) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.Printf("Database opened at %s", cfg.Database.Path)

	state, err := storage.LoadState(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	client := weather.NewClient(weather.ClientConfig{
		APIKey:    cfg.Weather.APIKey,
		BaseURL:   cfg.Weather.BaseURL,
		Units:     cfg.Weather.Units,
		Timeout:   cfg.Weather.Timeout,
		RateLimit: cfg.Weather.RateLimit,
		RateBurst: cfg.Weather.RateBurst,
	})

	service := lookup.NewService(lookup.ServiceConfig{
		Provider:       client,
		DefaultCity:    cfg.Weather.DefaultCity,
		DefaultCountry: cfg.Weather.DefaultCountry,
		Metrics:        lookup.NewMetrics(reg),
	})

	return &app{
		cfg:     cfg,
		db:      db,
		state:   state,
		service: service,
		locator: location.NewStaticLocator(cfg.Location.Enabled, cfg.Location.Latitude, cfg.Location.Longitude),
	}, nil
}

// resolve turns command input into a location. The bool reports whether
// the input was a typed city that belongs in the recent list.
func (a *app) resolve(ctx context.Context, args []string, flags locationFlags) (location.Location, bool, error) {
	switch {
	case flags.gps:
		coords, err := location.Locate(ctx, a.locator)
		if err != nil {
			return location.Location{}, false, errors.New(location.Message(err))
		}
		return location.At(coords.Lat, coords.Lon), false, nil
	case flags.lat != 0 || flags.lon != 0:
		return location.At(flags.lat, flags.lon), false, nil
	case len(args) > 0:
		city, err := location.ValidateCity(strings.Join(args, " "))
		if err != nil {
			return location.Location{}, false, err
		}
		return location.City(city, flags.country), true, nil
	default:
		return location.Parse(a.state.SavedLocation()), false, nil
	}
}

func addLocationFlags(cmd *cobra.Command, flags *locationFlags) {
	cmd.Flags().StringVar(&flags.country, "country", "", "country qualifier for the city")
	cmd.Flags().Float64Var(&flags.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&flags.lon, "lon", 0, "longitude")
	cmd.Flags().BoolVar(&flags.gps, "gps", false, "use the configured device position")
}

func lookupCmd() *cobra.Command {
	var flags locationFlags

	cmd := &cobra.Command{
		Use:   "lookup [city]",
		Short: "Show current weather and the 5-day forecast once",
		Long:  "Fetch current conditions and the forecast for a city, coordinate or the saved location",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			loc, typed, err := a.resolve(ctx, args, flags)
			if err != nil {
				return err
			}

			ref := refresher.NewRefresher(refresher.RefresherConfig{
				Fetcher: a.service,
				State:   a.state,
			})

			result, fetchErr := ref.Refresh(ctx, loc)
			if err := display.RenderResult(cmd.OutOrStdout(), result, fetchErr); err != nil {
				return err
			}
			if fetchErr != nil {
				return fetchErr
			}

			if typed {
				if err := a.state.AddRecentSearch(loc.String()); err != nil {
					log.Printf("Error saving recent search: %v", err)
				}
			}
			return nil
		},
	}

	addLocationFlags(cmd, &flags)
	return cmd
}

func watchCmd() *cobra.Command {
	var flags locationFlags

	cmd := &cobra.Command{
		Use:   "watch [city]",
		Short: "Keep refreshing the weather on an interval",
		Long:  "Fetch the weather now and again on every refresh interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			loc, typed, err := a.resolve(ctx, args, flags)
			if err != nil {
				a.db.Close()
				return err
			}
			if typed {
				if err := a.state.AddRecentSearch(loc.String()); err != nil {
					log.Printf("Error saving recent search: %v", err)
				}
			}

			out := cmd.OutOrStdout()
			ref := refresher.NewRefresher(refresher.RefresherConfig{
				Fetcher:  a.service,
				State:    a.state,
				Database: a.db,
				Interval: a.cfg.Refresh.Interval,
				Enabled:  a.cfg.Refresh.Enabled,
				Location: loc,
				OnUpdate: func(result *lookup.Result, err error) {
					fmt.Fprintln(out, strings.Repeat("-", 40))
					if rerr := display.RenderResult(out, result, err); rerr != nil {
						log.Printf("Render failed: %v", rerr)
					}
				},
			})

			if err := ref.Start(ctx); err != nil {
				return err
			}
			return ref.Stop()
		},
	}

	addLocationFlags(cmd, &flags)
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the refresh loop and the API server",
		Long:  "Start the periodic refresher, the JSON API, and the MQTT publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			a, err := newApp(reg)
			if err != nil {
				return err
			}
			cfg := a.cfg

			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
				publisher = nil
			} else if cfg.MQTT.Enabled {
				log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
			}

			loc := location.Parse(a.state.SavedLocation())
			if loc.IsZero() {
				loc = a.service.Default()
			}
			if loc.Coords == nil {
				if err := publisher.PublishHomeAssistantDiscovery(loc.City); err != nil {
					log.Printf("Warning: MQTT discovery failed: %v", err)
				}
			}

			ref := refresher.NewRefresher(refresher.RefresherConfig{
				Fetcher:   a.service,
				State:     a.state,
				Database:  a.db,
				Publisher: publisher,
				Interval:  cfg.Refresh.Interval,
				Enabled:   cfg.Refresh.Enabled,
				Location:  loc,
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			refresherDone := make(chan struct{})
			go func() {
				defer close(refresherDone)
				if err := ref.Start(ctx); err != nil {
					log.Printf("Refresher error: %v", err)
				}
			}()

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:      cfg.API.Port,
					Refresher: ref,
					State:     a.state,
					Locator:   a.locator,
					Publisher: publisher,
					Gatherer:  reg,
				})

				go func() {
					if err := server.Start(); err != nil {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Weather Lookup started. Press Ctrl+C to stop.")

			<-sigChan
			log.Println("Shutting down...")
			cancel()
			<-refresherDone

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()

			var result *multierror.Error
			if server != nil {
				result = multierror.Append(result, server.Stop(shutdownCtx))
			}
			result = multierror.Append(result, ref.Stop())
			return result.ErrorOrNil()
		},
	}
}

func recentCmd() *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List or clear recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.db.Close()

			if clearAll {
				if err := a.state.ClearRecentSearches(); err != nil {
					return err
				}
			}
			return display.RenderRecent(cmd.OutOrStdout(), a.state.SavedLocation(), a.state.RecentSearches())
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "clear the recent search list")
	return cmd
}
