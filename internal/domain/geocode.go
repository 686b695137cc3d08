package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// ResolveLocation fills in whichever half of the location is missing. A named
// region without coordinates is forward geocoded; coordinates are reverse
// geocoded for a place name and region. If geocoder is nil or geocoding
// fails, the location is returned with GeoSource set accordingly (graceful
// degradation). A location that was already resolved is returned unchanged.
func ResolveLocation(ctx context.Context, loc Location, geocoder Geocoder, logger *slog.Logger) Location {
	if geocoder == nil || loc.GeoSource == "forward" || loc.GeoSource == "reverse" {
		return loc
	}

	// Forward geocode: region name → coordinates (when coords are missing).
	if !loc.HasCoordinates() && loc.Region != "" {
		result, err := geocoder.ForwardGeocode(ctx, loc.Region, loc.Country)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"region", loc.Region,
				"country", loc.Country,
				"error", err,
			)
			loc.GeoSource = "failed"
			return loc
		}
		if result.Lat != 0 || result.Lon != 0 {
			loc.Lat = result.Lat
			loc.Lon = result.Lon
			loc.FormattedAddress = result.FormattedAddress
			loc.PlaceName = result.PlaceName
			loc.GeoConfidence = result.Confidence
			loc.GeoSource = "forward"
			return loc
		}
		loc.GeoSource = "original"
		return loc
	}

	// Reverse geocode: coordinates → place details (when coords are present).
	if loc.HasCoordinates() {
		result, err := geocoder.ReverseGeocode(ctx, loc.Lat, loc.Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"lat", loc.Lat,
				"lon", loc.Lon,
				"error", err,
			)
			loc.GeoSource = "failed"
			return loc
		}
		if result.FormattedAddress != "" {
			loc.FormattedAddress = result.FormattedAddress
			loc.PlaceName = result.PlaceName
			loc.GeoConfidence = result.Confidence
			if loc.Region == "" {
				loc.Region = result.Region
			}
			loc.GeoSource = "reverse"
			return loc
		}
		loc.GeoSource = "original"
		return loc
	}

	loc.GeoSource = "original"
	return loc
}

// FillWeather fetches conditions and forecast for requests that arrive
// without them. Requests that already carry conditions are left alone.
func FillWeather(ctx context.Context, req DecisionRequest, provider WeatherProvider) (DecisionRequest, error) {
	if req.Current != nil {
		return req, nil
	}
	if provider == nil {
		return req, ErrMissingConditions
	}
	if !req.Location.HasCoordinates() {
		return req, fmt.Errorf("fetch weather: %w: location has no coordinates", ErrMissingConditions)
	}
	report, err := provider.Weather(ctx, req.Location.Lat, req.Location.Lon)
	if err != nil {
		return req, fmt.Errorf("fetch weather: %w", err)
	}
	current := report.Current
	req.Current = &current
	if len(req.Forecast) == 0 {
		req.Forecast = report.Forecast
	}
	return req, nil
}
