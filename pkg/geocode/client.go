// Package geocode resolves free-text addresses to coordinates through the
// OpenRouteService geocoder, with a query cache and a request rate limiter.
package geocode

import (
	"context"
	"fmt"
)

// Client resolves a single free-text query.
type Client interface {
	// Resolve looks up query and returns its coordinates, or NoMatch on any
	// failure. It never returns an error; failures are a normal outcome.
	Resolve(ctx context.Context, query, countryBias string) Result

	// HasCredential reports whether an API credential is configured.
	HasCredential() bool
}

// Result is the outcome of one lookup: a coordinate pair or no match.
// The pair is never partial.
type Result struct {
	Latitude  float64
	Longitude float64
	Matched   bool
}

// Match returns a resolved Result.
func Match(lat, lon float64) Result {
	return Result{Latitude: lat, Longitude: lon, Matched: true}
}

// NoMatch returns an unresolved Result.
func NoMatch() Result { return Result{} }

// Coordinates returns the pair and whether the result matched.
func (r Result) Coordinates() (lat, lon float64, ok bool) {
	if !r.Matched {
		return 0, 0, false
	}
	return r.Latitude, r.Longitude, true
}

func (r Result) String() string {
	if !r.Matched {
		return "unresolved"
	}
	return fmt.Sprintf("(%g, %g)", r.Latitude, r.Longitude)
}

// validCoordinate reports whether lat/lon lie within WGS84 bounds.
func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
