package location

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCityRejects(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", "Please enter a city name"},
		{"   ", "Please enter a city name"},
		{"a", "City name must be at least 2 characters"},
		{" a ", "City name must be at least 2 characters"},
		{"123", "City name can only contain letters, spaces, and hyphens"},
		{"New  York!", "City name can only contain letters, spaces, and hyphens"},
		{"Saint-Étienne", "City name can only contain letters, spaces, and hyphens"},
	}

	for _, tc := range cases {
		_, err := ValidateCity(tc.input)
		require.Error(t, err, "input %q", tc.input)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, tc.want, verr.Message, "input %q", tc.input)
	}
}

func TestValidateCityAccepts(t *testing.T) {
	for input, want := range map[string]string{
		"New York":       "New York",
		"  Helsinki  ":   "Helsinki",
		"Saint-Etienne":  "Saint-Etienne",
		"Rio de Janeiro": "Rio de Janeiro",
	} {
		got, err := ValidateCity(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got)
	}
}

func TestParseRoundTrip(t *testing.T) {
	assert.Equal(t, City("Madrid", ""), Parse("Madrid"))
	assert.Equal(t, City("Valencia", "Spain"), Parse("Valencia,Spain"))
	assert.Equal(t, Location{}, Parse("  "))

	loc := At(60.17, 24.94)
	parsed := Parse(loc.String())
	require.NotNil(t, parsed.Coords)
	assert.InDelta(t, 60.17, parsed.Coords.Lat, 1e-6)
	assert.InDelta(t, 24.94, parsed.Coords.Lon, 1e-6)
}

func TestLocate(t *testing.T) {
	ctx := context.Background()

	coords, err := Locate(ctx, NewStaticLocator(true, 60.17, 24.94))
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 60.17, Lon: 24.94}, coords)

	_, err = Locate(ctx, NewStaticLocator(false, 60.17, 24.94))
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Contains(t, Message(err), "Permission Denied")

	_, err = Locate(ctx, NewStaticLocator(true, 0, 0))
	assert.ErrorIs(t, err, ErrPositionUnavailable)
	assert.Equal(t, "Could not get current location. Please try again later.", Message(err))
}
