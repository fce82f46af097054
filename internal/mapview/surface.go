// Package mapview keeps a map viewport and its single location marker in step
// with the resolved location.
package mapview

import (
	"sync"

	"github.com/i474232898/weather-map-sync/internal/weather"
)

// Surface is a map widget with one viewport and at most one marker.
type Surface interface {
	SetView(latitude, longitude float64, zoom int)
	SetMarker(latitude, longitude float64)
	OnClick(fn func(latitude, longitude float64))
}

// Viewport is the visible map area.
type Viewport struct {
	Center weather.Coordinates `json:"center"`
	Zoom   int                 `json:"zoom"`
}

// MemorySurface is a headless Surface. Setting a marker replaces the
// previous one.
type MemorySurface struct {
	mu         sync.Mutex
	view       Viewport
	marker     *weather.Coordinates
	placements int
	onClick    func(latitude, longitude float64)
}

func NewMemorySurface() *MemorySurface {
	return &MemorySurface{}
}

func (s *MemorySurface) SetView(latitude, longitude float64, zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = Viewport{Center: weather.Coordinates{Latitude: latitude, Longitude: longitude}, Zoom: zoom}
}

func (s *MemorySurface) SetMarker(latitude, longitude float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = &weather.Coordinates{Latitude: latitude, Longitude: longitude}
	s.placements++
}

func (s *MemorySurface) OnClick(fn func(latitude, longitude float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClick = fn
}

// Click delivers a user click to the registered handler.
func (s *MemorySurface) Click(latitude, longitude float64) {
	s.mu.Lock()
	fn := s.onClick
	s.mu.Unlock()

	if fn != nil {
		fn(latitude, longitude)
	}
}

func (s *MemorySurface) View() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Marker returns the current marker, if any.
func (s *MemorySurface) Marker() (weather.Coordinates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marker == nil {
		return weather.Coordinates{}, false
	}
	return *s.marker, true
}

// Placements counts SetMarker calls.
func (s *MemorySurface) Placements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placements
}
