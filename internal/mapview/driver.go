package mapview

import (
	"sync"

	"go.uber.org/zap"

	"github.com/i474232898/weather-map-sync/internal/resolver"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

const (
	DefaultZoom        = 10
	DefaultInitialZoom = 2
)

// Driver is the only writer of a Surface's marker. It follows resolver
// states: a pending map click moves the marker to the clicked point, a ready
// location recenters the map and moves the marker there, and a failure puts
// the marker back on the last good location.
type Driver struct {
	surface Surface
	zoom    int
	logger  *zap.Logger

	mu       sync.Mutex
	marker   *weather.Coordinates
	lastGood *weather.Location
}

func NewDriver(surface Surface, zoom int, logger *zap.Logger) *Driver {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{surface: surface, zoom: zoom, logger: logger}
}

// Reset shows the whole world before anything is resolved.
func (d *Driver) Reset(initialZoom int) {
	if initialZoom <= 0 {
		initialZoom = DefaultInitialZoom
	}
	d.surface.SetView(0, 0, initialZoom)
}

// Apply brings the surface in line with state. It is meant to be registered
// with resolver.Resolver.Watch, which calls it in request order.
func (d *Driver) Apply(state resolver.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch state.Status {
	case resolver.StatusLoading:
		if state.PendingOrigin == resolver.OriginMapClick && state.Pending != nil {
			d.placeLocked(*state.Pending)
		}
	case resolver.StatusReady:
		loc := state.Location
		if loc == nil || !loc.Positioned {
			return
		}
		d.lastGood = loc
		d.surface.SetView(loc.Latitude, loc.Longitude, d.zoom)
		d.placeLocked(loc.Coordinates())
	case resolver.StatusFailed:
		if d.lastGood == nil {
			return
		}
		d.logger.Debug("restoring map to last good location", zap.String("location", d.lastGood.Key()))
		d.surface.SetView(d.lastGood.Latitude, d.lastGood.Longitude, d.zoom)
		d.placeLocked(d.lastGood.Coordinates())
	}
}

func (d *Driver) placeLocked(position weather.Coordinates) {
	if d.marker != nil && *d.marker == position {
		return
	}
	d.marker = &position
	d.surface.SetMarker(position.Latitude, position.Longitude)
}
