package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/weather-map-sync/internal/weather"
)

func TestServiceClient_ByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/weather" {
			t.Errorf("path = %s, want /api/weather", r.URL.Path)
		}
		if got := r.URL.Query().Get("city"); got != "Paris" {
			t.Errorf("city = %q, want Paris", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"description": "clear sky",
			"temperature": 300.0,
			"windSpeed": 12.5,
			"humidity": 40,
			"visibility": 10000,
			"sunriseTime": 1700000000,
			"sunsetTime": 1700040000,
			"iconCode": "01d",
			"mainWeather": "Clear",
			"latitude": 48.85,
			"longitude": 2.35,
			"name": "Paris",
			"sys": {"country": "FR"}
		}`))
	}))
	defer srv.Close()

	c := NewServiceClient(srv.Client(), srv.URL+"/", 0)
	snap, err := c.ByName(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("ByName() unexpected error = %v", err)
	}

	if snap.TemperatureKelvin != 300.0 {
		t.Errorf("TemperatureKelvin = %v, want 300", snap.TemperatureKelvin)
	}
	if snap.HumidityPercent != 40 {
		t.Errorf("HumidityPercent = %v, want 40", snap.HumidityPercent)
	}
	if snap.WindSpeedKmh != 12.5 {
		t.Errorf("WindSpeedKmh = %v, want 12.5", snap.WindSpeedKmh)
	}
	if snap.VisibilityMeters == nil || *snap.VisibilityMeters != 10000 {
		t.Errorf("VisibilityMeters = %v, want 10000", snap.VisibilityMeters)
	}
	if snap.SunriseEpoch == nil || *snap.SunriseEpoch != 1700000000 {
		t.Errorf("SunriseEpoch = %v", snap.SunriseEpoch)
	}
	if snap.ConditionCode != "01d" || snap.ConditionName != "Clear" {
		t.Errorf("condition = %q/%q, want 01d/Clear", snap.ConditionCode, snap.ConditionName)
	}
	if snap.Coordinates == nil || snap.Coordinates.Latitude != 48.85 || snap.Coordinates.Longitude != 2.35 {
		t.Errorf("Coordinates = %+v, want 48.85,2.35", snap.Coordinates)
	}
	if snap.PlaceName != "Paris, FR" {
		t.Errorf("PlaceName = %q, want %q", snap.PlaceName, "Paris, FR")
	}
}

func TestServiceClient_ByCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/weatherByCoordinates" {
			t.Errorf("path = %s, want /api/weatherByCoordinates", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("latitude") != "40.7" || q.Get("longitude") != "-74" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(`{"description":"mist","temperature":280.1,"windSpeed":3,"humidity":90,"iconCode":"50n"}`))
	}))
	defer srv.Close()

	c := NewServiceClient(srv.Client(), srv.URL, 0)
	snap, err := c.ByCoordinates(context.Background(), 40.7, -74.0)
	if err != nil {
		t.Fatalf("ByCoordinates() unexpected error = %v", err)
	}
	if snap.Coordinates != nil {
		t.Errorf("Coordinates = %+v, want nil", snap.Coordinates)
	}
	if snap.VisibilityMeters != nil {
		t.Errorf("VisibilityMeters = %v, want nil", *snap.VisibilityMeters)
	}
	if snap.ConditionCode != "50n" {
		t.Errorf("ConditionCode = %q, want 50n", snap.ConditionCode)
	}
}

func TestServiceClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: weather.ErrRemoteService,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: weather.ErrRemoteService,
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"description": `))
			},
			wantErr: weather.ErrRemoteService,
		},
		{
			name: "missing temperature",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"description": "clear sky"}`))
			},
			wantErr: weather.ErrRemoteService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewServiceClient(srv.Client(), srv.URL, 0)
			_, err := c.ByName(context.Background(), "Nowhere")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ByName() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestServiceClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewServiceClient(&http.Client{Timeout: time.Second}, url, 0)
	_, err := c.ByName(context.Background(), "Paris")
	if !errors.Is(err, weather.ErrNetworkUnavailable) {
		t.Errorf("ByName() error = %v, want %v", err, weather.ErrNetworkUnavailable)
	}
}

func TestServiceClient_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"description":"clear sky","temperature":290}`))
	}))
	defer srv.Close()

	c := NewServiceClient(srv.Client(), srv.URL, 1)
	c.httpCfg.Backoff.InitialInterval = time.Millisecond

	if _, err := c.ByName(context.Background(), "Paris"); err != nil {
		t.Fatalf("ByName() unexpected error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
