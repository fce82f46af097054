package providers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-map-sync/internal/weather"
)

const openMeteoBody = `{
	"latitude": 48.86,
	"longitude": 2.34,
	"current": {
		"temperature_2m": 10.0,
		"relative_humidity_2m": 64.6,
		"wind_speed_10m": 11.5,
		"weather_code": 61,
		"visibility": 24140.0
	},
	"daily": {"sunrise": [1700000000], "sunset": [1700030000]}
}`

func TestOpenMeteoClient_ByCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") != "48.86" || q.Get("longitude") != "2.34" {
			t.Errorf("latitude/longitude = %s/%s", q.Get("latitude"), q.Get("longitude"))
		}
		if q.Get("timeformat") != "unixtime" {
			t.Errorf("timeformat = %q, want unixtime", q.Get("timeformat"))
		}
		_, _ = w.Write([]byte(openMeteoBody))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.Client(), 0).WithBaseURL(srv.URL)
	snap, err := c.ByCoordinates(context.Background(), 48.86, 2.34)
	if err != nil {
		t.Fatalf("ByCoordinates() unexpected error = %v", err)
	}

	if math.Abs(snap.TemperatureKelvin-283.15) > 1e-9 {
		t.Errorf("TemperatureKelvin = %v, want 283.15", snap.TemperatureKelvin)
	}
	if snap.HumidityPercent != 65 || snap.WindSpeedKmh != 11.5 {
		t.Errorf("humidity/wind = %d/%v", snap.HumidityPercent, snap.WindSpeedKmh)
	}
	if snap.ConditionName != "Rain" || snap.Description != "rain" {
		t.Errorf("condition = %q/%q, want Rain/rain", snap.ConditionName, snap.Description)
	}
	if snap.VisibilityMeters == nil || *snap.VisibilityMeters != 24140 {
		t.Errorf("VisibilityMeters = %v", snap.VisibilityMeters)
	}
	if snap.SunriseEpoch == nil || *snap.SunriseEpoch != 1700000000 || snap.SunsetEpoch == nil || *snap.SunsetEpoch != 1700030000 {
		t.Errorf("sun times = %v/%v", snap.SunriseEpoch, snap.SunsetEpoch)
	}
	if snap.Coordinates == nil || snap.Coordinates.Latitude != 48.86 {
		t.Errorf("Coordinates = %+v", snap.Coordinates)
	}
}

func TestOpenMeteoClient_ByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(openMeteoBody))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.Client(), 0).WithBaseURL(srv.URL)
	if _, err := c.ByName(context.Background(), "Paris"); !errors.Is(err, weather.ErrRemoteService) {
		t.Fatalf("ByName() without geocoder error = %v, want %v", err, weather.ErrRemoteService)
	}

	var asked geocoder.Address
	c.forward = func(a geocoder.Address) (geocoder.Location, error) {
		asked = a
		return geocoder.Location{Latitude: 48.86, Longitude: 2.34}, nil
	}
	snap, err := c.ByName(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("ByName() unexpected error = %v", err)
	}
	if asked.City != "Paris" {
		t.Errorf("geocoded address = %+v, want city Paris", asked)
	}
	if snap.PlaceName != "Paris" || snap.Coordinates == nil {
		t.Errorf("snapshot = %+v", snap)
	}

	c.forward = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	}
	if _, err := c.ByName(context.Background(), "Nowhere"); !errors.Is(err, weather.ErrRemoteService) {
		t.Fatalf("ByName() geocode failure error = %v, want %v", err, weather.ErrRemoteService)
	}
}

func TestOpenMeteoCondition(t *testing.T) {
	tests := map[int]string{
		0:  "Clear",
		2:  "Clouds",
		45: "Fog",
		53: "Drizzle",
		81: "Rain",
		73: "Snow",
		96: "Thunderstorm",
		42: "",
	}
	for code, want := range tests {
		if got := openMeteoCondition(code).name; got != want {
			t.Errorf("openMeteoCondition(%d) = %q, want %q", code, got, want)
		}
	}
}
