package refresher

import (
	"context"
	"log"
	"sync"
	"time"

	"weather-lookup/internal/location"
	"weather-lookup/internal/lookup"
	"weather-lookup/internal/mqtt"
	"weather-lookup/internal/storage"
)

// Fetcher is the single entry point every refresh goes through.
type Fetcher interface {
	Fetch(ctx context.Context, loc location.Location) (*lookup.Result, error)
}

type Refresher struct {
	fetcher   Fetcher
	state     *storage.State
	db        *storage.Database
	publisher *mqtt.Publisher
	interval  time.Duration
	enabled   bool
	onUpdate  func(*lookup.Result, error)

	searches chan location.Location
	inflight sync.WaitGroup

	mu           sync.RWMutex
	location     location.Location
	latest       *lookup.Result
	latestErr    error
	isRefreshing bool
}

type RefresherConfig struct {
	Fetcher   Fetcher
	State     *storage.State
	Database  *storage.Database
	Publisher *mqtt.Publisher
	Interval  time.Duration
	Enabled   bool
	Location  location.Location
	OnUpdate  func(*lookup.Result, error)
}

func NewRefresher(cfg RefresherConfig) *Refresher {
	return &Refresher{
		fetcher:   cfg.Fetcher,
		state:     cfg.State,
		db:        cfg.Database,
		publisher: cfg.Publisher,
		interval:  cfg.Interval,
		enabled:   cfg.Enabled,
		onUpdate:  cfg.OnUpdate,
		location:  cfg.Location,
		searches:  make(chan location.Location, 8),
	}
}

// Start fetches once, then on every tick and on every submitted search
// until ctx is done. Fetches are not cancelled by newer ones; whichever
// finishes last is what Latest reports.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	r.isRefreshing = true
	r.mu.Unlock()

	var tick <-chan time.Time
	if r.enabled && r.interval > 0 {
		log.Printf("Starting refresher with interval %s", r.interval)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	} else {
		log.Println("Periodic refresh is disabled")
	}

	r.spawn(ctx, r.Location())

	for {
		select {
		case <-ctx.Done():
			r.inflight.Wait()
			log.Println("Refresher stopped")
			r.mu.Lock()
			r.isRefreshing = false
			r.mu.Unlock()
			return nil
		case <-tick:
			r.spawn(ctx, r.Location())
		case loc := <-r.searches:
			r.mu.Lock()
			r.location = loc
			r.mu.Unlock()
			r.spawn(ctx, loc)
		}
	}
}

// Search submits a new location. It never blocks the caller.
func (r *Refresher) Search(loc location.Location) {
	select {
	case r.searches <- loc:
	default:
		log.Printf("Search queue full, dropping %s", loc)
	}
}

func (r *Refresher) spawn(ctx context.Context, loc location.Location) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		r.Refresh(ctx, loc)
	}()
}

// Refresh runs one fetch and records its outcome as the displayed state.
func (r *Refresher) Refresh(ctx context.Context, loc location.Location) (*lookup.Result, error) {
	result, err := r.fetcher.Fetch(ctx, loc)

	r.mu.Lock()
	r.latest = result
	r.latestErr = err
	onUpdate := r.onUpdate
	r.mu.Unlock()

	if err != nil {
		log.Printf("Weather fetch failed for %s: %v", loc, err)
	} else {
		r.persist(result)
		log.Printf("Refreshed: %s %.1f°C, %d forecast days",
			result.Location, result.Current.Main.Temp, len(result.Daily))
	}

	if onUpdate != nil {
		onUpdate(result, err)
	}
	return result, err
}

func (r *Refresher) persist(result *lookup.Result) {
	if r.state != nil {
		if err := r.state.SetLocation(result.Location.String()); err != nil {
			log.Printf("Error saving location: %v", err)
		}
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(result); err != nil {
			log.Printf("Error publishing to MQTT: %v", err)
		}
	}
}

// Track makes loc the target of later ticks without fetching it.
func (r *Refresher) Track(loc location.Location) {
	r.mu.Lock()
	r.location = loc
	r.mu.Unlock()
}

func (r *Refresher) Location() location.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.location
}

// Latest returns the last completed fetch. A failed fetch hides any older
// result.
func (r *Refresher) Latest() (*lookup.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.latestErr
}

func (r *Refresher) IsRefreshing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRefreshing
}

func (r *Refresher) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.publisher != nil {
		r.publisher.Close()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
