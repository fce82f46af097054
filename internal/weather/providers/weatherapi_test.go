package providers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i474232898/weather-map-sync/internal/weather"
)

func TestWeatherAPIClient_ByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "secret" {
			t.Errorf("key = %q, want secret", q.Get("key"))
		}
		if q.Get("q") != "Paris" {
			t.Errorf("q = %q, want Paris", q.Get("q"))
		}
		_, _ = w.Write([]byte(`{
			"location": {"name": "Paris", "country": "France", "lat": 48.87, "lon": 2.33},
			"current": {
				"temp_c": 12.5,
				"humidity": 71,
				"wind_kph": 14.4,
				"vis_km": 10.0,
				"condition": {"text": "Partly cloudy", "code": 1003}
			}
		}`))
	}))
	defer srv.Close()

	c := NewWeatherAPIClient(srv.Client(), "secret", 0).WithBaseURL(srv.URL)
	snap, err := c.ByName(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("ByName() unexpected error = %v", err)
	}

	if math.Abs(snap.TemperatureKelvin-285.65) > 1e-9 {
		t.Errorf("TemperatureKelvin = %v, want 285.65", snap.TemperatureKelvin)
	}
	if snap.WindSpeedKmh != 14.4 || snap.HumidityPercent != 71 {
		t.Errorf("wind/humidity = %v/%d", snap.WindSpeedKmh, snap.HumidityPercent)
	}
	if snap.VisibilityMeters == nil || *snap.VisibilityMeters != 10000 {
		t.Errorf("VisibilityMeters = %v, want 10000", snap.VisibilityMeters)
	}
	if snap.ConditionName != "Partly cloudy" || snap.ConditionCode != "" {
		t.Errorf("condition = %q/%q, want empty code and Partly cloudy", snap.ConditionCode, snap.ConditionName)
	}
	if snap.PlaceName != "Paris, France" {
		t.Errorf("PlaceName = %q, want Paris, France", snap.PlaceName)
	}
	if snap.Coordinates == nil || snap.Coordinates.Latitude != 48.87 || snap.Coordinates.Longitude != 2.33 {
		t.Errorf("Coordinates = %+v", snap.Coordinates)
	}
}

func TestWeatherAPIClient_ByCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "51.5,-0.12" {
			t.Errorf("q = %q, want 51.5,-0.12", q)
		}
		_, _ = w.Write([]byte(`{"location": {"name": "London"}, "current": {"temp_c": 0, "condition": {"text": "Sunny"}}}`))
	}))
	defer srv.Close()

	c := NewWeatherAPIClient(srv.Client(), "secret", 0).WithBaseURL(srv.URL)
	snap, err := c.ByCoordinates(context.Background(), 51.5, -0.12)
	if err != nil {
		t.Fatalf("ByCoordinates() unexpected error = %v", err)
	}
	if snap.TemperatureKelvin != 273.15 {
		t.Errorf("TemperatureKelvin = %v, want 273.15", snap.TemperatureKelvin)
	}
	if snap.VisibilityMeters != nil || snap.Coordinates != nil {
		t.Errorf("visibility/coordinates = %v/%v, want unset", snap.VisibilityMeters, snap.Coordinates)
	}
}

func TestWeatherAPIClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 1006, "message": "No matching location found."}}`))
	}))
	defer srv.Close()

	c := NewWeatherAPIClient(srv.Client(), "secret", 0).WithBaseURL(srv.URL)
	if _, err := c.ByName(context.Background(), "Nowhere"); !errors.Is(err, weather.ErrRemoteService) {
		t.Errorf("ByName() error = %v, want %v", err, weather.ErrRemoteService)
	}

	c = NewWeatherAPIClient(http.DefaultClient, "", 0)
	if _, err := c.ByName(context.Background(), "Paris"); !errors.Is(err, weather.ErrRemoteService) {
		t.Errorf("ByName() without key error = %v, want %v", err, weather.ErrRemoteService)
	}
}

func TestClientNames(t *testing.T) {
	tests := []struct {
		client interface{ Name() string }
		want   string
	}{
		{NewServiceClient(http.DefaultClient, "http://localhost", 0), "weather-service"},
		{NewOpenWeatherClient(http.DefaultClient, "k", 0), "openweathermap"},
		{NewWeatherAPIClient(http.DefaultClient, "k", 0), "weatherapi"},
		{NewOpenMeteoClient(http.DefaultClient, 0), "openmeteo"},
	}
	for _, tt := range tests {
		if got := tt.client.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}
