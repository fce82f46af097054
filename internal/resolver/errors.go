package resolver

import (
	"context"
	"errors"

	"github.com/i474232898/weather-map-sync/internal/geo"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

var (
	// ErrStaleResult describes a result that arrived after a newer request was
	// issued. It is never surfaced in State; it only appears in debug logs.
	ErrStaleResult = errors.New("result superseded by a newer request")

	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrEmptyPlaceName     = errors.New("place name is empty")
	ErrClosed             = errors.New("resolver closed")
)

// ErrorKind classifies the failures the resolver can observe.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNetworkUnavailable
	KindRemoteServiceError
	KindGeolocationDenied
	KindGeolocationTimeout
	KindGeolocationUnsupported
	KindStaleResult
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return ""
	case KindNetworkUnavailable:
		return "NetworkUnavailable"
	case KindRemoteServiceError:
		return "RemoteServiceError"
	case KindGeolocationDenied:
		return "GeolocationDenied"
	case KindGeolocationTimeout:
		return "GeolocationTimeout"
	case KindGeolocationUnsupported:
		return "GeolocationUnsupported"
	case KindStaleResult:
		return "StaleResult"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Classify maps an error returned by a collaborator to its ErrorKind.
// Unrecognized errors count as remote service errors.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrStaleResult):
		return KindStaleResult
	case errors.Is(err, geo.ErrDenied):
		return KindGeolocationDenied
	case errors.Is(err, geo.ErrTimeout):
		return KindGeolocationTimeout
	case errors.Is(err, geo.ErrUnsupported):
		return KindGeolocationUnsupported
	case errors.Is(err, weather.ErrNetworkUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return KindNetworkUnavailable
	default:
		return KindRemoteServiceError
	}
}
