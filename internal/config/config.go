package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type AppConfig struct {
	Port      int    `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=json console"`

	// Weather backend: the companion service, OpenWeatherMap, WeatherAPI.com or
	// Open-Meteo (place names need GOOGLE_API_KEY for forward geocoding).
	WeatherBackend    string        `mapstructure:"weather_backend" validate:"oneof=service openweather weatherapi openmeteo"`
	WeatherServiceURL string        `mapstructure:"weather_service_url" validate:"required,url"`
	OpenWeatherAPIKey string        `mapstructure:"openweather_api_key" validate:"required_if=WeatherBackend openweather"`
	WeatherAPIKey     string        `mapstructure:"weatherapi_key" validate:"required_if=WeatherBackend weatherapi"`
	WeatherTimeout    time.Duration `mapstructure:"weather_timeout" validate:"gt=0"`
	WeatherMaxRetries int           `mapstructure:"weather_max_retries" validate:"min=0,max=10"`

	// Device position.
	GeoSource       string        `mapstructure:"geo_source" validate:"oneof=none fixed reported"`
	DeviceLatitude  float64       `mapstructure:"device_latitude" validate:"min=-90,max=90"`
	DeviceLongitude float64       `mapstructure:"device_longitude" validate:"min=-180,max=180"`
	GeoTimeout      time.Duration `mapstructure:"geo_timeout" validate:"gt=0"`
	GeoReportMaxAge time.Duration `mapstructure:"geo_report_max_age" validate:"gt=0"`
	Geocoder        string        `mapstructure:"geocoder" validate:"oneof=none nominatim google"`
	NominatimURL    string        `mapstructure:"nominatim_url" validate:"required,url"`
	GoogleAPIKey    string        `mapstructure:"google_api_key" validate:"required_if=Geocoder google"`

	// Presentation. SunTimesZone "location" shows sunrise and sunset in the
	// displayed place's own zone instead of TimeZone.
	TimeZone       string        `mapstructure:"time_zone" validate:"required"`
	SunTimesZone   string        `mapstructure:"sun_times_zone" validate:"oneof=configured location"`
	SearchIdle     time.Duration `mapstructure:"search_idle" validate:"gt=0"`
	MapZoom        int           `mapstructure:"map_zoom" validate:"min=1,max=20"`
	MapInitialZoom int           `mapstructure:"map_initial_zoom" validate:"min=0,max=20"`

	// FavoritesMax caps the memory and sqlite backends; the remote service
	// keeps its own limit.
	FavoritesBackend    string `mapstructure:"favorites_backend" validate:"oneof=memory sqlite remote"`
	FavoritesSQLitePath string `mapstructure:"favorites_sqlite_path" validate:"required_if=FavoritesBackend sqlite"`
	FavoritesMax        int    `mapstructure:"favorites_max" validate:"min=0"`

	// RefreshInterval re-fetches the displayed location periodically (0 = off).
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=0"`

	location *time.Location
}

var validate = validator.New()

var defaults = map[string]any{
	"port":                  8080,
	"log_level":             "info",
	"log_format":            "json",
	"weather_backend":       "service",
	"weather_service_url":   "http://localhost:8081",
	"openweather_api_key":   "",
	"weatherapi_key":        "",
	"weather_timeout":       "10s",
	"weather_max_retries":   0,
	"geo_source":            "reported",
	"device_latitude":       0.0,
	"device_longitude":      0.0,
	"geo_timeout":           "10s",
	"geo_report_max_age":    "30s",
	"geocoder":              "none",
	"nominatim_url":         "https://nominatim.openstreetmap.org/reverse",
	"google_api_key":        "",
	"time_zone":             "Local",
	"sun_times_zone":        "configured",
	"search_idle":           "500ms",
	"map_zoom":              10,
	"map_initial_zoom":      2,
	"favorites_backend":     "memory",
	"favorites_sqlite_path": "favorites.db",
	"favorites_max":         0,
	"refresh_interval":      "0s",
}

// Load reads configuration from .env, an optional config.yaml and the
// environment, in increasing order of precedence.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return LoadFrom(v)
}

// LoadFrom applies defaults and environment overrides to v and validates the result.
func LoadFrom(v *viper.Viper) (*AppConfig, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.WeatherBackend = strings.ToLower(cfg.WeatherBackend)
	cfg.GeoSource = strings.ToLower(cfg.GeoSource)
	cfg.Geocoder = strings.ToLower(cfg.Geocoder)
	cfg.SunTimesZone = strings.ToLower(cfg.SunTimesZone)
	cfg.FavoritesBackend = strings.ToLower(cfg.FavoritesBackend)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", cfg.TimeZone, err)
	}
	cfg.location = loc

	return &cfg, nil
}

// Addr returns the listen address in the form ":port".
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Location is the time zone used for dates and sun times.
func (c *AppConfig) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// NewLogger builds the application logger from LOG_LEVEL and LOG_FORMAT.
func (c *AppConfig) NewLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}

	zc := zap.NewProductionConfig()
	if c.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build()
}
