package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map-sync/internal/common"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

// ServiceClient implements weather.Client against the companion weather service
// (GET /api/weather?city= and GET /api/weatherByCoordinates).
type ServiceClient struct {
	name    string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewServiceClient(client *http.Client, baseURL string, maxRetries int) *ServiceClient {
	return &ServiceClient{
		name:    "weather-service",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Backoff: common.BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: common.NewBreaker("weather-service"),
	}
}

func (c *ServiceClient) Name() string {
	return c.name
}

func (c *ServiceClient) ByName(ctx context.Context, name string) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("city", name)
	return c.fetch(ctx, "/api/weather", values)
}

func (c *ServiceClient) ByCoordinates(ctx context.Context, latitude, longitude float64) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	return c.fetch(ctx, "/api/weatherByCoordinates", values)
}

// serviceRecord is the weather service payload. Optional fields are pointers.
type serviceRecord struct {
	Description string   `json:"description"`
	Temperature *float64 `json:"temperature"`
	WindSpeed   float64  `json:"windSpeed"`
	Humidity    float64  `json:"humidity"`
	Visibility  *float64 `json:"visibility"`
	SunriseTime *int64   `json:"sunriseTime"`
	SunsetTime  *int64   `json:"sunsetTime"`
	IconCode    string   `json:"iconCode"`
	MainWeather string   `json:"mainWeather"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Name        string   `json:"name"`
	Sys         struct {
		Country string `json:"country"`
	} `json:"sys"`
}

func (c *ServiceClient) fetch(ctx context.Context, path string, values url.Values) (weather.Snapshot, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, wrapTransportError(c.name, err)
	}
	defer resp.Body.Close()

	var payload serviceRecord
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, decodeError(c.name, err)
	}
	if payload.Temperature == nil {
		return weather.Snapshot{}, decodeError(c.name, fmt.Errorf("temperature missing"))
	}

	snap := weather.Snapshot{
		Description:       payload.Description,
		TemperatureKelvin: *payload.Temperature,
		HumidityPercent:   int(math.Round(payload.Humidity)),
		WindSpeedKmh:      payload.WindSpeed,
		SunriseEpoch:      payload.SunriseTime,
		SunsetEpoch:       payload.SunsetTime,
		ConditionCode:     payload.IconCode,
		ConditionName:     payload.MainWeather,
		PlaceName:         placeName(payload.Name, payload.Sys.Country),
	}
	if payload.Visibility != nil {
		v := int(math.Round(*payload.Visibility))
		snap.VisibilityMeters = &v
	}
	if payload.Latitude != nil && payload.Longitude != nil {
		snap.Coordinates = &weather.Coordinates{Latitude: *payload.Latitude, Longitude: *payload.Longitude}
	}

	return snap, nil
}

func placeName(name, country string) string {
	switch {
	case name == "":
		return ""
	case country == "":
		return name
	default:
		return name + ", " + country
	}
}
