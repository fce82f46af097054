package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map-sync/internal/common"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

const weatherAPIURL = "https://api.weatherapi.com/v1/current.json"

// WeatherAPIClient implements weather.Client against WeatherAPI.com. It has no
// icon codes in the OpenWeatherMap scheme, so only the condition text is set.
type WeatherAPIClient struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIClient(client *http.Client, apiKey string, maxRetries int) *WeatherAPIClient {
	return &WeatherAPIClient{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: weatherAPIURL,
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Backoff: common.BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: common.NewBreaker("weatherapi"),
	}
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func (p *WeatherAPIClient) WithBaseURL(u string) *WeatherAPIClient {
	p.baseURL = u
	return p
}

func (p *WeatherAPIClient) Name() string {
	return p.name
}

func (p *WeatherAPIClient) ByName(ctx context.Context, name string) (weather.Snapshot, error) {
	return p.fetch(ctx, name)
}

// ByCoordinates uses WeatherAPI's "lat,lon" form of the q parameter.
func (p *WeatherAPIClient) ByCoordinates(ctx context.Context, latitude, longitude float64) (weather.Snapshot, error) {
	q := strconv.FormatFloat(latitude, 'f', -1, 64) + "," + strconv.FormatFloat(longitude, 'f', -1, 64)
	return p.fetch(ctx, q)
}

func (p *WeatherAPIClient) fetch(ctx context.Context, q string) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("%s: %w: api key is not configured", p.name, weather.ErrRemoteService)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", q)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, wrapTransportError(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			Name    string   `json:"name"`
			Country string   `json:"country"`
			Lat     *float64 `json:"lat"`
			Lon     *float64 `json:"lon"`
		} `json:"location"`
		Current struct {
			TempC     float64  `json:"temp_c"`
			Humidity  int      `json:"humidity"`
			WindKph   float64  `json:"wind_kph"`
			VisKm     *float64 `json:"vis_km"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, decodeError(p.name, err)
	}

	cur := payload.Current
	snap := weather.Snapshot{
		Description:       cur.Condition.Text,
		TemperatureKelvin: cur.TempC + 273.15,
		HumidityPercent:   cur.Humidity,
		WindSpeedKmh:      cur.WindKph,
		ConditionName:     cur.Condition.Text,
		PlaceName:         placeName(payload.Location.Name, payload.Location.Country),
	}
	if cur.VisKm != nil {
		meters := int(math.Round(*cur.VisKm * 1000))
		snap.VisibilityMeters = &meters
	}
	if payload.Location.Lat != nil && payload.Location.Lon != nil {
		snap.Coordinates = &weather.Coordinates{Latitude: *payload.Location.Lat, Longitude: *payload.Location.Lon}
	}

	return snap, nil
}
