// Package geocode turns coordinates into human-readable place labels.
package geocode

import (
	"context"

	"github.com/i474232898/weather-map-sync/internal/weather"
)

// Labeler reverse-geocodes a coordinate pair into a short place label.
type Labeler interface {
	Name() string
	Label(ctx context.Context, position weather.Coordinates) (string, error)
}

// cityLabel picks the most specific settlement name, falling back to the
// region and then the country.
func cityLabel(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
