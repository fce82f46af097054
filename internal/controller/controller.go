// Package controller wires the user-facing input channels (search box, map
// clicks, device position, favorites) to the resolver and renders the result.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/i474232898/weather-map-sync/internal/mapview"
	"github.com/i474232898/weather-map-sync/internal/presenter"
	"github.com/i474232898/weather-map-sync/internal/resolver"
	"github.com/i474232898/weather-map-sync/internal/search"
	"github.com/i474232898/weather-map-sync/internal/store"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

type Options struct {
	SearchIdle     time.Duration
	MapZoom        int
	MapInitialZoom int
	// Clock drives the search debouncer and the view's wall-clock date.
	Clock clock.Clock
}

// Controller owns one resolver and everything that feeds it or renders it.
type Controller struct {
	resolver  *resolver.Resolver
	debouncer *search.Debouncer
	surface   mapview.Surface
	driver    *mapview.Driver
	presenter *presenter.Presenter
	favorites store.FavoriteStore
	logger    *zap.Logger
	clock     clock.Clock

	initialZoom int
}

// View is everything a client needs to draw the screen.
type View struct {
	LatestRequestID uint64              `json:"latestRequestId"`
	Weather         presenter.ViewModel `json:"weather"`
	Map             MapView             `json:"map"`
	Search          SearchView          `json:"search"`
}

type MapView struct {
	Viewport *mapview.Viewport    `json:"viewport,omitempty"`
	Marker   *weather.Coordinates `json:"marker,omitempty"`
}

type SearchView struct {
	Text      string `json:"text"`
	Composing bool   `json:"composing"`
}

// mapReader is implemented by surfaces that can report what they show.
type mapReader interface {
	View() mapview.Viewport
	Marker() (weather.Coordinates, bool)
}

func New(
	res *resolver.Resolver,
	surface mapview.Surface,
	pres *presenter.Presenter,
	favorites store.FavoriteStore,
	logger *zap.Logger,
	opts Options,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	c := &Controller{
		resolver:    res,
		surface:     surface,
		driver:      mapview.NewDriver(surface, opts.MapZoom, logger.Named("map")),
		presenter:   pres,
		favorites:   favorites,
		logger:      logger,
		clock:       opts.Clock,
		initialZoom: opts.MapInitialZoom,
	}
	c.debouncer = search.NewDebouncer(opts.Clock, opts.SearchIdle, c.searchPlace)

	res.Watch(c.driver.Apply)
	surface.OnClick(func(latitude, longitude float64) {
		if _, err := c.MapClick(latitude, longitude); err != nil {
			c.logger.Warn("map click rejected", zap.Float64("latitude", latitude), zap.Float64("longitude", longitude), zap.Error(err))
		}
	})
	return c
}

// Start shows the world map and asks for the device position.
func (c *Controller) Start() {
	c.driver.Reset(c.initialZoom)
	if _, err := c.Locate(); err != nil {
		c.logger.Warn("initial locate failed", zap.Error(err))
	}
}

// Close stops pending lookups and waits for in-flight requests.
func (c *Controller) Close() {
	c.debouncer.Stop()
	c.resolver.Close()
}

// Wait blocks until all in-flight requests have completed.
func (c *Controller) Wait() {
	c.resolver.Wait()
}

func (c *Controller) SearchInput(text string) {
	c.debouncer.Input(text)
}

func (c *Controller) SearchSubmit() {
	c.debouncer.Submit()
}

func (c *Controller) searchPlace(text string) {
	id, err := c.resolver.RequestByPlaceName(text)
	switch {
	case errors.Is(err, resolver.ErrEmptyPlaceName):
		c.logger.Debug("ignoring empty search")
	case err != nil:
		c.logger.Warn("search rejected", zap.String("text", text), zap.Error(err))
	default:
		c.logger.Debug("search issued", zap.String("text", text), zap.Uint64("request_id", id))
	}
}

// MapClick requests weather for a clicked point. The marker moves there as
// soon as the request is issued.
func (c *Controller) MapClick(latitude, longitude float64) (uint64, error) {
	return c.resolver.RequestByCoordinates(latitude, longitude, resolver.OriginMapClick)
}

// Locate requests weather for the device position.
func (c *Controller) Locate() (uint64, error) {
	return c.resolver.RequestCurrentDevicePosition()
}

func (c *Controller) ListFavorites(ctx context.Context) ([]store.Favorite, error) {
	return c.favorites.List(ctx)
}

func (c *Controller) AddFavorite(ctx context.Context, name, description string) (store.Favorite, error) {
	return c.favorites.Create(ctx, store.NewFavorite(name, description))
}

func (c *Controller) DeleteFavorite(ctx context.Context, id string) error {
	return c.favorites.Delete(ctx, id)
}

// SelectFavorite requests weather for a saved place by name.
func (c *Controller) SelectFavorite(ctx context.Context, id string) (uint64, error) {
	f, err := c.favorites.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("favorite %s: %w", id, err)
	}
	return c.resolver.RequestByPlaceName(f.PlaceName)
}

// Refresh re-fetches the displayed location.
func (c *Controller) Refresh() (uint64, bool) {
	return c.resolver.Refresh()
}

// View renders the current state.
func (c *Controller) View() View {
	state := c.resolver.Snapshot()
	v := View{
		LatestRequestID: state.LatestRequestID,
		Weather:         c.presenter.Build(state, c.clock.Now()),
		Search: SearchView{
			Text:      c.debouncer.Text(),
			Composing: c.debouncer.IsComposing(),
		},
	}
	if r, ok := c.surface.(mapReader); ok {
		viewport := r.View()
		v.Map.Viewport = &viewport
		if marker, ok := r.Marker(); ok {
			v.Map.Marker = &marker
		}
	}
	return v
}
