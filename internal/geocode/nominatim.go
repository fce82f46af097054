package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map-sync/internal/common"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

// API Docs: https://nominatim.org/release-docs/develop/api/Reverse/
const NominatimURL = "https://nominatim.openstreetmap.org/reverse"

var ErrNoAddress = errors.New("no address for coordinates")

var _ Labeler = (*NominatimClient)(nil)

type NominatimClient struct {
	baseURL   string
	userAgent string
	httpCfg   common.HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

func NewNominatimClient(client *http.Client, baseURL string) *NominatimClient {
	if baseURL == "" {
		baseURL = NominatimURL
	}
	return &NominatimClient{
		baseURL:   baseURL,
		userAgent: "weather-map-sync/1.0",
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Backoff: common.BackoffConfig{
				MaxRetries:      1,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     2 * time.Second,
			},
		},
		circuit: common.NewBreaker("nominatim"),
	}
}

func (c *NominatimClient) Name() string {
	return "nominatim"
}

type reverseResponse struct {
	Error       string `json:"error"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		State        string `json:"state"`
		Country      string `json:"country"`
	} `json:"address"`
}

func (c *NominatimClient) Label(ctx context.Context, position weather.Coordinates) (string, error) {
	buildRequest := func() (*http.Request, error) {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL: %w", err)
		}

		q := u.Query()
		q.Set("lat", strconv.FormatFloat(position.Latitude, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(position.Longitude, 'f', -1, 64))
		q.Set("format", "json")
		q.Set("addressdetails", "1")
		q.Set("accept-language", "en")
		u.RawQuery = q.Encode()

		req, err := http.NewRequest(http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		// Nominatim's usage policy requires an identifying agent.
		req.Header.Set("User-Agent", c.userAgent)
		return req, nil
	}

	resp, err := common.DoRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return "", fmt.Errorf("nominatim reverse lookup: %w", err)
	}
	defer resp.Body.Close()

	var payload reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNoAddress, payload.Error)
	}

	a := payload.Address
	label := cityLabel(a.City, a.Town, a.Village, a.Municipality, a.County, a.State, a.Country)
	if label == "" {
		return "", ErrNoAddress
	}
	return label, nil
}
