// Package geo provides device position sources.
package geo

import (
	"context"
	"errors"

	"github.com/i474232898/weather-map-sync/internal/weather"
)

var (
	ErrDenied      = errors.New("geolocation permission denied")
	ErrTimeout     = errors.New("geolocation timed out")
	ErrUnsupported = errors.New("geolocation unsupported")
)

// PositionSource yields at most one position per call.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (weather.Coordinates, error)
}

// FixedSource always reports the same position, e.g. a configured device location.
type FixedSource struct {
	Position weather.Coordinates
}

func (s FixedSource) CurrentPosition(ctx context.Context) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, ErrTimeout
	}
	return s.Position, nil
}

// UnsupportedSource is used when no position capability is configured.
type UnsupportedSource struct{}

func (UnsupportedSource) CurrentPosition(context.Context) (weather.Coordinates, error) {
	return weather.Coordinates{}, ErrUnsupported
}
