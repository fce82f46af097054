package geocode

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map-sync/internal/common"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

var _ Labeler = (*GoogleClient)(nil)

// GoogleClient labels positions with the Google Geocoding API.
type GoogleClient struct {
	reverse func(geocoder.Location) ([]geocoder.Address, error)
	circuit *gobreaker.CircuitBreaker
}

// NewGoogleClient configures the geocoder package with apiKey. The key is
// process-wide, so only one GoogleClient should be in use at a time.
func NewGoogleClient(apiKey string) *GoogleClient {
	geocoder.ApiKey = apiKey
	return &GoogleClient{
		reverse: geocoder.GeocodingReverse,
		circuit: common.NewBreaker("google-geocoding"),
	}
}

func (c *GoogleClient) Name() string {
	return "google"
}

func (c *GoogleClient) Label(ctx context.Context, position weather.Coordinates) (string, error) {
	type result struct {
		addresses []geocoder.Address
		err       error
	}
	done := make(chan result, 1)

	// The geocoder package has no context support; the call is left to finish
	// in the background when ctx ends first.
	go func() {
		out, err := c.circuit.Execute(func() (interface{}, error) {
			return c.reverse(geocoder.Location{Latitude: position.Latitude, Longitude: position.Longitude})
		})
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{addresses: out.([]geocoder.Address)}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if res.err != nil {
		return "", fmt.Errorf("google reverse lookup: %w", res.err)
	}

	for _, a := range res.addresses {
		if label := cityLabel(a.City, a.County, a.State, a.Country); label != "" {
			return label, nil
		}
	}
	return "", ErrNoAddress
}
