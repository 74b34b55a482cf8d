package location

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("current position unavailable")
)

// Locator is the device position service.
type Locator interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (Coordinates, error)
}

// StaticLocator answers with a configured position. A disabled locator
// denies permission, mirroring a device where the user refused access.
type StaticLocator struct {
	enabled bool
	coords  Coordinates
}

func NewStaticLocator(enabled bool, lat, lon float64) *StaticLocator {
	return &StaticLocator{
		enabled: enabled,
		coords:  Coordinates{Lat: lat, Lon: lon},
	}
}

func (s *StaticLocator) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.enabled, nil
}

func (s *StaticLocator) CurrentPosition(ctx context.Context) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	if !s.enabled || (s.coords.Lat == 0 && s.coords.Lon == 0) {
		return Coordinates{}, ErrPositionUnavailable
	}
	return s.coords, nil
}

// Locate asks for permission and then reads one position.
func Locate(ctx context.Context, l Locator) (Coordinates, error) {
	granted, err := l.RequestPermission(ctx)
	if err != nil || !granted {
		return Coordinates{}, ErrPermissionDenied
	}

	coords, err := l.CurrentPosition(ctx)
	if err != nil {
		return Coordinates{}, ErrPositionUnavailable
	}
	return coords, nil
}

// Message maps locator failures to the text shown to the user.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Location Permission Denied. Please enable location permissions to use this feature."
	case errors.Is(err, ErrPositionUnavailable):
		return "Could not get current location. Please try again later."
	default:
		return "Failed to get location. Please try again later."
	}
}
