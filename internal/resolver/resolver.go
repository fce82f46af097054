// Package resolver owns the displayed location and weather and makes sure that
// only the most recently issued request may change them.
package resolver

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-map-sync/internal/geo"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultPositionTimeout = 10 * time.Second
)

// Labeler reverse-geocodes a device position.
type Labeler interface {
	Label(ctx context.Context, position weather.Coordinates) (string, error)
}

type Options struct {
	// RequestTimeout bounds a single weather lookup.
	RequestTimeout time.Duration
	// PositionTimeout bounds a single device position fix.
	PositionTimeout time.Duration
	// Labeler is optional.
	Labeler Labeler
}

// Resolver issues requests with strictly increasing ids and applies a result
// only when its id is still the latest issued one.
type Resolver struct {
	client    weather.Client
	positions geo.PositionSource
	labeler   Labeler
	logger    *zap.Logger

	requestTimeout  time.Duration
	positionTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	nextID    uint64
	state     State
	listeners []func(State)
}

func New(client weather.Client, positions geo.PositionSource, logger *zap.Logger, opts Options) *Resolver {
	if positions == nil {
		positions = geo.UnsupportedSource{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.PositionTimeout <= 0 {
		opts.PositionTimeout = defaultPositionTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Resolver{
		client:          client,
		positions:       positions,
		labeler:         opts.Labeler,
		logger:          logger,
		requestTimeout:  opts.RequestTimeout,
		positionTimeout: opts.PositionTimeout,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Snapshot returns a copy of the current state.
func (r *Resolver) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Watch registers fn to be called with every new state. Listeners run
// synchronously while the resolver lock is held and must not call back into it.
func (r *Resolver) Watch(fn func(State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Wait blocks until every in-flight request has finished.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Close cancels in-flight work and waits for it to stop. Later requests fail
// with ErrClosed.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.closed = true
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
}

// RequestByCoordinates resolves weather for a coordinate pair. Longitude is
// wrapped into [-180, 180).
func (r *Resolver) RequestByCoordinates(latitude, longitude float64, origin Origin) (uint64, error) {
	position, err := NormalizeCoordinates(latitude, longitude)
	if err != nil {
		return 0, err
	}
	return r.issue(Request{Origin: origin, Coordinates: &position})
}

// RequestByPlaceName resolves weather for a free-text place name.
func (r *Resolver) RequestByPlaceName(name string) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyPlaceName
	}
	return r.issue(Request{Origin: OriginSearch, PlaceName: name})
}

// RequestCurrentDevicePosition asks the position source for a fix and, once
// it arrives, resolves weather for it. The returned id is reserved now, so a
// request issued while the fix is pending supersedes it. Position failures
// leave the state untouched.
func (r *Resolver) RequestCurrentDevicePosition() (uint64, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, ErrClosed
	}
	id := r.allocLocked()
	r.wg.Add(1)
	r.mu.Unlock()

	go r.locate(id)
	return id, nil
}

// Refresh re-issues the request behind the displayed location. It does nothing
// while a request is loading or when nothing is displayed yet.
func (r *Resolver) Refresh() (uint64, bool) {
	r.mu.Lock()
	if r.closed || r.state.Status == StatusLoading || r.state.Location == nil {
		r.mu.Unlock()
		return 0, false
	}

	loc := *r.state.Location
	req := Request{Origin: r.state.Origin}
	switch {
	case r.state.Origin == OriginSearch && loc.Label != "":
		req.PlaceName = loc.Label
	case loc.Positioned:
		position := loc.Coordinates()
		req.Coordinates = &position
		req.Label = loc.Label
	default:
		r.mu.Unlock()
		return 0, false
	}

	req.ID = r.allocLocked()
	r.beginLocked(req)
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(req)
	return req.ID, true
}

func (r *Resolver) issue(req Request) (uint64, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, ErrClosed
	}
	req.ID = r.allocLocked()
	r.beginLocked(req)
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(req)
	return req.ID, nil
}

func (r *Resolver) allocLocked() uint64 {
	r.nextID++
	return r.nextID
}

func (r *Resolver) beginLocked(req Request) {
	r.state.LatestRequestID = req.ID
	r.state.Status = StatusLoading
	r.state.PendingOrigin = req.Origin
	r.state.Pending = nil
	if req.Coordinates != nil {
		position := *req.Coordinates
		r.state.Pending = &position
	}
	r.state.Version++

	r.logger.Debug("request issued",
		zap.Uint64("request_id", req.ID),
		zap.Stringer("origin", req.Origin),
		zap.String("place_name", req.PlaceName),
	)
	r.notifyLocked()
}

func (r *Resolver) locate(id uint64) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(r.ctx, r.positionTimeout)
	position, err := r.positions.CurrentPosition(ctx)
	cancel()
	if err != nil {
		r.logger.Warn("device position unavailable",
			zap.Uint64("request_id", id),
			zap.Stringer("kind", Classify(err)),
			zap.Error(err),
		)
		return
	}

	position, err = NormalizeCoordinates(position.Latitude, position.Longitude)
	if err != nil {
		r.logger.Warn("device reported an invalid position", zap.Uint64("request_id", id), zap.Error(err))
		return
	}

	req := Request{ID: id, Origin: OriginGeolocation, Coordinates: &position}

	r.mu.Lock()
	if r.closed || r.state.LatestRequestID > id {
		latest := r.state.LatestRequestID
		r.mu.Unlock()
		r.logger.Debug("discarding device position",
			zap.Uint64("request_id", id),
			zap.Uint64("latest_request_id", latest),
			zap.NamedError("reason", ErrStaleResult),
		)
		return
	}
	r.beginLocked(req)
	r.mu.Unlock()

	r.resolve(req)
}

func (r *Resolver) run(req Request) {
	defer r.wg.Done()
	r.resolve(req)
}

func (r *Resolver) resolve(req Request) {
	ctx, cancel := context.WithTimeout(r.ctx, r.requestTimeout)
	defer cancel()

	var (
		loc  weather.Location
		snap weather.Snapshot
		err  error
	)
	if req.Coordinates != nil {
		loc, snap, err = r.resolveCoordinates(ctx, req)
	} else {
		loc, snap, err = r.resolvePlaceName(ctx, req)
	}
	r.complete(req, loc, snap, err)
}

func (r *Resolver) resolveCoordinates(ctx context.Context, req Request) (weather.Location, weather.Snapshot, error) {
	position := *req.Coordinates
	label := req.Label

	var wg sync.WaitGroup
	if label == "" && req.Origin == OriginGeolocation && r.labeler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := r.labeler.Label(ctx, position)
			if err != nil {
				r.logger.Warn("reverse geocoding failed", zap.Uint64("request_id", req.ID), zap.Error(err))
				return
			}
			label = l
		}()
	}

	snap, err := r.client.ByCoordinates(ctx, position.Latitude, position.Longitude)
	wg.Wait()
	if err != nil {
		return weather.Location{}, weather.Snapshot{}, err
	}
	return weather.NewLocation(position.Latitude, position.Longitude, label), snap, nil
}

func (r *Resolver) resolvePlaceName(ctx context.Context, req Request) (weather.Location, weather.Snapshot, error) {
	snap, err := r.client.ByName(ctx, req.PlaceName)
	if err != nil {
		return weather.Location{}, weather.Snapshot{}, err
	}
	if snap.Coordinates == nil {
		return weather.Location{Label: req.PlaceName}, snap, nil
	}
	return weather.NewLocation(snap.Coordinates.Latitude, snap.Coordinates.Longitude, req.PlaceName), snap, nil
}

func (r *Resolver) complete(req Request, loc weather.Location, snap weather.Snapshot, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if req.ID != r.state.LatestRequestID {
		r.logger.Debug("discarding result",
			zap.Uint64("request_id", req.ID),
			zap.Uint64("latest_request_id", r.state.LatestRequestID),
			zap.Stringer("origin", req.Origin),
			zap.NamedError("reason", ErrStaleResult),
			zap.NamedError("result_error", err),
		)
		return
	}

	r.state.PendingOrigin = 0
	r.state.Pending = nil
	if err != nil {
		kind := Classify(err)
		r.state.Status = StatusFailed
		r.state.LastError = kind
		r.state.Version++
		r.logger.Error("weather lookup failed",
			zap.Uint64("request_id", req.ID),
			zap.Stringer("origin", req.Origin),
			zap.Stringer("kind", kind),
			zap.Error(err),
		)
		r.notifyLocked()
		return
	}

	r.state.Location = &loc
	r.state.Weather = &snap
	r.state.Origin = req.Origin
	r.state.Status = StatusReady
	r.state.LastError = KindNone
	r.state.Version++
	r.logger.Info("weather resolved",
		zap.Uint64("request_id", req.ID),
		zap.Stringer("origin", req.Origin),
		zap.String("location", loc.Key()),
		zap.String("label", loc.Label),
	)
	r.notifyLocked()
}

func (r *Resolver) notifyLocked() {
	for _, fn := range r.listeners {
		fn(r.state)
	}
}

// NormalizeCoordinates validates a coordinate pair and wraps longitude into
// [-180, 180).
func NormalizeCoordinates(latitude, longitude float64) (weather.Coordinates, error) {
	if math.IsNaN(latitude) || math.IsNaN(longitude) || math.IsInf(latitude, 0) || math.IsInf(longitude, 0) {
		return weather.Coordinates{}, ErrInvalidCoordinates
	}
	if latitude < -90 || latitude > 90 {
		return weather.Coordinates{}, ErrInvalidCoordinates
	}
	if longitude < -180 || longitude >= 180 {
		longitude = math.Mod(longitude+180, 360)
		if longitude < 0 {
			longitude += 360
		}
		longitude -= 180
	}
	return weather.Coordinates{Latitude: latitude, Longitude: longitude}, nil
}
