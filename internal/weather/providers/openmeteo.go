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

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-map-sync/internal/common"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

const openMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoClient implements weather.Client against Open-Meteo. Open-Meteo
// only takes coordinates, so place names are forward-geocoded first.
type OpenMeteoClient struct {
	name    string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	// forward is nil when no geocoder is configured; ByName then fails.
	forward func(geocoder.Address) (geocoder.Location, error)
}

func NewOpenMeteoClient(client *http.Client, maxRetries int) *OpenMeteoClient {
	return &OpenMeteoClient{
		name:    "openmeteo",
		baseURL: openMeteoURL,
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Backoff: common.BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: common.NewBreaker("openmeteo"),
	}
}

// WithGoogleGeocoding enables place-name lookups through the Google Geocoding
// API. The key is process-wide in the geocoder package.
func (p *OpenMeteoClient) WithGoogleGeocoding(apiKey string) *OpenMeteoClient {
	geocoder.ApiKey = apiKey
	p.forward = geocoder.Geocoding
	return p
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func (p *OpenMeteoClient) WithBaseURL(u string) *OpenMeteoClient {
	p.baseURL = u
	return p
}

func (p *OpenMeteoClient) Name() string {
	return p.name
}

func (p *OpenMeteoClient) ByName(ctx context.Context, name string) (weather.Snapshot, error) {
	if p.forward == nil {
		return weather.Snapshot{}, fmt.Errorf("%s: %w: place-name lookups need a geocoder", p.name, weather.ErrRemoteService)
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		loc, err := p.forward(geocoder.Address{City: name})
		done <- result{loc: loc, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return weather.Snapshot{}, fmt.Errorf("%s: %w: %v", p.name, weather.ErrNetworkUnavailable, ctx.Err())
	}
	if res.err != nil {
		return weather.Snapshot{}, fmt.Errorf("%s: %w: geocode %q: %v", p.name, weather.ErrRemoteService, name, res.err)
	}

	snap, err := p.ByCoordinates(ctx, res.loc.Latitude, res.loc.Longitude)
	if err != nil {
		return weather.Snapshot{}, err
	}
	snap.PlaceName = name
	return snap, nil
}

func (p *OpenMeteoClient) ByCoordinates(ctx context.Context, latitude, longitude float64) (weather.Snapshot, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
		values.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code,visibility")
		values.Set("daily", "sunrise,sunset")
		values.Set("forecast_days", "1")
		values.Set("timeformat", "unixtime")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, wrapTransportError(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Current   struct {
			Temperature float64  `json:"temperature_2m"`
			Humidity    float64  `json:"relative_humidity_2m"`
			WindSpeed   float64  `json:"wind_speed_10m"`
			WeatherCode int      `json:"weather_code"`
			Visibility  *float64 `json:"visibility"`
		} `json:"current"`
		Daily struct {
			Sunrise []int64 `json:"sunrise"`
			Sunset  []int64 `json:"sunset"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, decodeError(p.name, err)
	}

	cur := payload.Current
	cond := openMeteoCondition(cur.WeatherCode)
	snap := weather.Snapshot{
		Description:       cond.description,
		TemperatureKelvin: cur.Temperature + 273.15,
		HumidityPercent:   int(math.Round(cur.Humidity)),
		// Open-Meteo reports km/h by default.
		WindSpeedKmh:  cur.WindSpeed,
		ConditionName: cond.name,
	}
	if cur.Visibility != nil {
		meters := int(math.Round(*cur.Visibility))
		snap.VisibilityMeters = &meters
	}
	if len(payload.Daily.Sunrise) > 0 {
		snap.SunriseEpoch = &payload.Daily.Sunrise[0]
	}
	if len(payload.Daily.Sunset) > 0 {
		snap.SunsetEpoch = &payload.Daily.Sunset[0]
	}
	if payload.Latitude != nil && payload.Longitude != nil {
		snap.Coordinates = &weather.Coordinates{Latitude: *payload.Latitude, Longitude: *payload.Longitude}
	}

	return snap, nil
}

type wmoCondition struct {
	name        string
	description string
}

// openMeteoCondition maps a WMO weather code to a condition group the icon
// tables understand.
func openMeteoCondition(code int) wmoCondition {
	switch {
	case code == 0:
		return wmoCondition{"Clear", "clear sky"}
	case code >= 1 && code <= 3:
		return wmoCondition{"Clouds", "partly cloudy"}
	case code == 45 || code == 48:
		return wmoCondition{"Fog", "fog"}
	case code >= 51 && code <= 57:
		return wmoCondition{"Drizzle", "drizzle"}
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return wmoCondition{"Rain", "rain"}
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return wmoCondition{"Snow", "snow"}
	case code >= 95:
		return wmoCondition{"Thunderstorm", "thunderstorm"}
	default:
		return wmoCondition{}
	}
}
