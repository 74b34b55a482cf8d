package weather

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindRateLimited
	KindUnavailable
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// APIError is a classified failure at the HTTP boundary.
type APIError struct {
	Kind   Kind
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("openweather %s: %v", e.Kind, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("openweather %s: status %d", e.Kind, e.Status)
	}
	return fmt.Sprintf("openweather %s: status %d: %s", e.Kind, e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusGatewayTimeout:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

func Classify(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Message returns the fixed text shown in place of weather content.
func Message(err error) string {
	switch Classify(err) {
	case KindNotFound:
		return "City not found. Please check the spelling and try again."
	case KindUnauthorized:
		return "Invalid API key. Please check your configuration."
	case KindRateLimited:
		return "Too many requests. Please try again later."
	case KindUnavailable:
		return "Weather service is temporarily unavailable. Please try again later."
	case KindNetwork:
		return "Network error. Please check your internet connection."
	default:
		return "Something went wrong while fetching weather data."
	}
}

// HTTPStatus is the status the JSON API answers with for a fetch error.
func HTTPStatus(err error) int {
	switch Classify(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusBadGateway
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusGatewayTimeout
	case KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
