package domain

import (
	"context"
	"errors"
)

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Region           string  // first-level administrative area, when known
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves place names and coordinates.
type Geocoder interface {
	// ForwardGeocode converts a region name and country to coordinates.
	ForwardGeocode(ctx context.Context, name, country string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// WeatherReport is what a weather provider returns for one location.
type WeatherReport struct {
	Current  Conditions
	Forecast []ForecastSlot
}

// ErrProviderUnavailable marks a transient upstream failure: the request may
// succeed if repeated later.
var ErrProviderUnavailable = errors.New("provider unavailable")

// WeatherProvider fetches current conditions and the short-range forecast.
type WeatherProvider interface {
	Weather(ctx context.Context, lat, lon float64) (WeatherReport, error)
}
