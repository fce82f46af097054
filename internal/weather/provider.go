package weather

import (
	"context"
	"errors"
)

var (
	// ErrNetworkUnavailable is returned when the remote service could not be reached.
	ErrNetworkUnavailable = errors.New("weather service unreachable")
	// ErrRemoteService is returned for non-2xx responses and malformed payloads.
	ErrRemoteService = errors.New("weather service error")
)

// Client abstracts the remote weather service.
// Implementations must be safe for concurrent use and keep no per-call shared state.
type Client interface {
	ByName(ctx context.Context, name string) (Snapshot, error)
	ByCoordinates(ctx context.Context, latitude, longitude float64) (Snapshot, error)
}
