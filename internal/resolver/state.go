package resolver

import "github.com/i474232898/weather-map-sync/internal/weather"

// Origin is the input channel that produced a request.
type Origin int

const (
	OriginGeolocation Origin = iota + 1
	OriginSearch
	OriginMapClick
)

func (o Origin) String() string {
	switch o {
	case OriginGeolocation:
		return "geolocation"
	case OriginSearch:
		return "search"
	case OriginMapClick:
		return "mapClick"
	default:
		return ""
	}
}

func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Status is the lifecycle stage of the latest accepted request.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Request is one attempt to resolve a location and its weather.
// Exactly one of Coordinates and PlaceName is set.
type Request struct {
	ID          uint64
	Origin      Origin
	Coordinates *weather.Coordinates
	PlaceName   string
	// Label pre-labels a coordinates request; empty lets the resolver look one up
	// for geolocation requests.
	Label string
}

// State is the resolver's view of what is currently displayed.
// Values handed out are copies; Location and Weather point at values that are
// never modified once stored.
type State struct {
	Location        *weather.Location `json:"location"`
	Weather         *weather.Snapshot `json:"weather"`
	LatestRequestID uint64            `json:"latestRequestId"`
	Status          Status            `json:"status"`
	LastError       ErrorKind         `json:"lastError,omitempty"`
	// Origin of the request that produced Location.
	Origin Origin `json:"origin,omitempty"`
	// PendingOrigin and Pending describe the latest issued request while it is
	// loading. Pending is nil for place-name lookups.
	PendingOrigin Origin               `json:"pendingOrigin,omitempty"`
	Pending       *weather.Coordinates `json:"pending,omitempty"`
	// Version increases on every change.
	Version uint64 `json:"version"`
}
