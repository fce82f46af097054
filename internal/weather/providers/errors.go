package providers

import (
	"fmt"

	"github.com/i474232898/weather-map-sync/internal/common"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

// wrapTransportError tags a failed request with the weather error kind it maps to.
func wrapTransportError(provider string, err error) error {
	if common.IsStatusError(err) {
		return fmt.Errorf("%s: %w: %v", provider, weather.ErrRemoteService, err)
	}
	return fmt.Errorf("%s: %w: %v", provider, weather.ErrNetworkUnavailable, err)
}

func decodeError(provider string, err error) error {
	return fmt.Errorf("%s: %w: decode response: %v", provider, weather.ErrRemoteService, err)
}
