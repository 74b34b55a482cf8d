package location

import (
	"regexp"
	"strings"
)

var cityPattern = regexp.MustCompile(`^[a-zA-Z\s-]+$`)

// ValidationError is reported next to the input and never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateCity checks free-text city input and returns it trimmed.
func ValidateCity(input string) (string, error) {
	city := strings.TrimSpace(input)

	if city == "" {
		return "", &ValidationError{Message: "Please enter a city name"}
	}
	if len(city) < 2 {
		return "", &ValidationError{Message: "City name must be at least 2 characters"}
	}
	if !cityPattern.MatchString(city) {
		return "", &ValidationError{Message: "City name can only contain letters, spaces, and hyphens"}
	}

	return city, nil
}
