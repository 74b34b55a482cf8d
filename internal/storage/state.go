package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	StateKey          = "app-storage"
	MaxRecentSearches = 5
)

type KeyValueStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

type stateBlob struct {
	SavedLocation  string   `json:"savedLocation"`
	RecentSearches []string `json:"recentSearches"`
}

// State holds the last used location and the recent-search list. It is
// loaded once at startup and written back on every mutation.
type State struct {
	mu    sync.RWMutex
	store KeyValueStore
	blob  stateBlob
}

func LoadState(store KeyValueStore) (*State, error) {
	s := &State{
		store: store,
		blob:  stateBlob{RecentSearches: []string{}},
	}

	raw, err := store.Get(StateKey)
	if errors.Is(err, ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &s.blob); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if s.blob.RecentSearches == nil {
		s.blob.RecentSearches = []string{}
	}
	return s, nil
}

func (s *State) SavedLocation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blob.SavedLocation
}

func (s *State) RecentSearches() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.blob.RecentSearches...)
}

func (s *State) SetLocation(location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blob.SavedLocation = location
	return s.flush()
}

// AddRecentSearch moves location to the front of the list, dropping any
// case-insensitive duplicate, and makes it the saved location.
func (s *State) AddRecentSearch(location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := make([]string, 0, MaxRecentSearches)
	recent = append(recent, location)
	for _, item := range s.blob.RecentSearches {
		if strings.EqualFold(item, location) {
			continue
		}
		recent = append(recent, item)
	}
	if len(recent) > MaxRecentSearches {
		recent = recent[:MaxRecentSearches]
	}

	s.blob.RecentSearches = recent
	s.blob.SavedLocation = location
	return s.flush()
}

func (s *State) ClearRecentSearches() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blob.RecentSearches = []string{}
	return s.flush()
}

func (s *State) flush() error {
	payload, err := json.Marshal(s.blob)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.store.Set(StateKey, string(payload)); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
