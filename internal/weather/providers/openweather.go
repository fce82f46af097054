package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map-sync/internal/common"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

const openWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherClient implements weather.Client directly against OpenWeatherMap.
// Standard units are requested so temperatures arrive in Kelvin.
type OpenWeatherClient struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(client *http.Client, apiKey string, maxRetries int) *OpenWeatherClient {
	return &OpenWeatherClient{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: openWeatherURL,
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Backoff: common.BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: common.NewBreaker("openweather"),
	}
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func (p *OpenWeatherClient) WithBaseURL(u string) *OpenWeatherClient {
	p.baseURL = u
	return p
}

func (p *OpenWeatherClient) Name() string {
	return p.name
}

func (p *OpenWeatherClient) ByName(ctx context.Context, name string) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("q", name)
	return p.fetch(ctx, values)
}

func (p *OpenWeatherClient) ByCoordinates(ctx context.Context, latitude, longitude float64) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	return p.fetch(ctx, values)
}

func (p *OpenWeatherClient) fetch(ctx context.Context, values url.Values) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("%s: %w: api key is not configured", p.name, weather.ErrRemoteService)
	}

	buildRequest := func() (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s?%s", p.baseURL, q.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, wrapTransportError(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Coord *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Visibility *int `json:"visibility"`
		Wind       struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Sys struct {
			Country string `json:"country"`
			Sunrise *int64 `json:"sunrise"`
			Sunset  *int64 `json:"sunset"`
		} `json:"sys"`
		Name string `json:"name"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, decodeError(p.name, err)
	}

	snap := weather.Snapshot{
		TemperatureKelvin: payload.Main.Temp,
		HumidityPercent:   payload.Main.Humidity,
		// OpenWeatherMap reports m/s in standard units.
		WindSpeedKmh:     payload.Wind.Speed * 3.6,
		VisibilityMeters: payload.Visibility,
		SunriseEpoch:     payload.Sys.Sunrise,
		SunsetEpoch:      payload.Sys.Sunset,
		PlaceName:        placeName(payload.Name, payload.Sys.Country),
	}
	if len(payload.Weather) > 0 {
		snap.Description = payload.Weather[0].Description
		snap.ConditionCode = payload.Weather[0].Icon
		snap.ConditionName = payload.Weather[0].Main
	}
	if payload.Coord != nil {
		snap.Coordinates = &weather.Coordinates{Latitude: payload.Coord.Lat, Longitude: payload.Coord.Lon}
	}

	return snap, nil
}
