package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr() != ":8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.WeatherBackend != "service" || cfg.WeatherServiceURL != "http://localhost:8081" {
		t.Errorf("weather backend = %s %s", cfg.WeatherBackend, cfg.WeatherServiceURL)
	}
	if cfg.WeatherTimeout != 10*time.Second || cfg.WeatherMaxRetries != 0 {
		t.Errorf("weather timeout/retries = %v/%d", cfg.WeatherTimeout, cfg.WeatherMaxRetries)
	}
	if cfg.GeoSource != "reported" || cfg.Geocoder != "none" {
		t.Errorf("geo = %s/%s", cfg.GeoSource, cfg.Geocoder)
	}
	if cfg.GeoReportMaxAge != 30*time.Second || cfg.SunTimesZone != "configured" {
		t.Errorf("report max age/sun times zone = %v/%s", cfg.GeoReportMaxAge, cfg.SunTimesZone)
	}
	if cfg.SearchIdle != 500*time.Millisecond {
		t.Errorf("SearchIdle = %v", cfg.SearchIdle)
	}
	if cfg.MapZoom != 10 || cfg.MapInitialZoom != 2 {
		t.Errorf("zooms = %d/%d", cfg.MapZoom, cfg.MapInitialZoom)
	}
	if cfg.FavoritesBackend != "memory" || cfg.RefreshInterval != 0 {
		t.Errorf("favorites/refresh = %s/%v", cfg.FavoritesBackend, cfg.RefreshInterval)
	}
	if cfg.Location() == nil {
		t.Error("nil location")
	}
}

func TestLoadFrom_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WEATHER_BACKEND", "OpenWeather")
	t.Setenv("OPENWEATHER_API_KEY", "secret")
	t.Setenv("GEO_SOURCE", "fixed")
	t.Setenv("DEVICE_LATITUDE", "51.5")
	t.Setenv("DEVICE_LONGITUDE", "-0.12")
	t.Setenv("SEARCH_IDLE", "250ms")
	t.Setenv("TIME_ZONE", "Europe/Paris")
	t.Setenv("REFRESH_INTERVAL", "15m")

	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 || cfg.WeatherBackend != "openweather" || cfg.OpenWeatherAPIKey != "secret" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.GeoSource != "fixed" || cfg.DeviceLatitude != 51.5 || cfg.DeviceLongitude != -0.12 {
		t.Errorf("device = %s %v %v", cfg.GeoSource, cfg.DeviceLatitude, cfg.DeviceLongitude)
	}
	if cfg.SearchIdle != 250*time.Millisecond || cfg.RefreshInterval != 15*time.Minute {
		t.Errorf("durations = %v %v", cfg.SearchIdle, cfg.RefreshInterval)
	}
	if cfg.Location().String() != "Europe/Paris" {
		t.Errorf("Location() = %s", cfg.Location())
	}
}

func TestLoadFrom_GeocoderAndZones(t *testing.T) {
	t.Setenv("WEATHER_BACKEND", "weatherapi")
	t.Setenv("WEATHERAPI_KEY", "wk")
	t.Setenv("GEOCODER", "Google")
	t.Setenv("GOOGLE_API_KEY", "gk")
	t.Setenv("SUN_TIMES_ZONE", "Location")
	t.Setenv("GEO_REPORT_MAX_AGE", "1m")
	t.Setenv("FAVORITES_BACKEND", "sqlite")
	t.Setenv("FAVORITES_MAX", "20")

	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WeatherBackend != "weatherapi" || cfg.WeatherAPIKey != "wk" {
		t.Errorf("weather = %s/%s", cfg.WeatherBackend, cfg.WeatherAPIKey)
	}
	if cfg.Geocoder != "google" || cfg.GoogleAPIKey != "gk" {
		t.Errorf("geocoder = %s/%s", cfg.Geocoder, cfg.GoogleAPIKey)
	}
	if cfg.SunTimesZone != "location" || cfg.GeoReportMaxAge != time.Minute {
		t.Errorf("sun times zone/report max age = %s/%v", cfg.SunTimesZone, cfg.GeoReportMaxAge)
	}
	if cfg.FavoritesBackend != "sqlite" || cfg.FavoritesMax != 20 {
		t.Errorf("favorites = %s/%d", cfg.FavoritesBackend, cfg.FavoritesMax)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"WEATHER_BACKEND": "yahoo"}},
		{"openweather without key", map[string]string{"WEATHER_BACKEND": "openweather"}},
		{"weatherapi without key", map[string]string{"WEATHER_BACKEND": "weatherapi"}},
		{"google geocoder without key", map[string]string{"GEOCODER": "google"}},
		{"bad sun times zone", map[string]string{"SUN_TIMES_ZONE": "sundial"}},
		{"zero report max age", map[string]string{"GEO_REPORT_MAX_AGE": "0s"}},
		{"bad latitude", map[string]string{"DEVICE_LATITUDE": "120"}},
		{"bad geo source", map[string]string{"GEO_SOURCE": "gps"}},
		{"negative refresh", map[string]string{"REFRESH_INTERVAL": "-1m"}},
		{"zero idle", map[string]string{"SEARCH_IDLE": "0s"}},
		{"bad time zone", map[string]string{"TIME_ZONE": "Mars/Olympus"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad service url", map[string]string{"WEATHER_SERVICE_URL": "not a url"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFrom(viper.New()); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := &AppConfig{LogLevel: "debug", LogFormat: format}
		logger, err := cfg.NewLogger()
		if err != nil {
			t.Fatalf("NewLogger(%s): %v", format, err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("%s logger: debug not enabled", format)
		}
	}

	if _, err := (&AppConfig{LogLevel: "chatty"}).NewLogger(); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
