package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-map-sync/internal/api/http"
	"github.com/i474232898/weather-map-sync/internal/config"
	"github.com/i474232898/weather-map-sync/internal/controller"
	"github.com/i474232898/weather-map-sync/internal/geo"
	"github.com/i474232898/weather-map-sync/internal/geocode"
	"github.com/i474232898/weather-map-sync/internal/mapview"
	"github.com/i474232898/weather-map-sync/internal/presenter"
	"github.com/i474232898/weather-map-sync/internal/resolver"
	"github.com/i474232898/weather-map-sync/internal/scheduler"
	"github.com/i474232898/weather-map-sync/internal/store"
	"github.com/i474232898/weather-map-sync/internal/weather"
	"github.com/i474232898/weather-map-sync/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("weather-map-sync stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, logger *zap.Logger) error {
	// Shared HTTP client for outbound calls; per-request deadlines come from the resolver.
	httpClient := &http.Client{
		Timeout: cfg.WeatherTimeout + 5*time.Second,
	}

	client, err := newWeatherClient(cfg, httpClient)
	if err != nil {
		return err
	}

	positions, reported := newPositionSource(cfg)

	opts := resolver.Options{
		RequestTimeout:  cfg.WeatherTimeout,
		PositionTimeout: cfg.GeoTimeout,
	}
	labeler := newLabeler(cfg, httpClient)
	if labeler != nil {
		opts.Labeler = labeler
		logger.Info("reverse geocoding enabled", zap.String("geocoder", labeler.Name()))
	}
	res := resolver.New(client, positions, logger.Named("resolver"), opts)

	favorites, err := newFavoriteStore(cfg, httpClient, logger)
	if err != nil {
		return err
	}
	defer favorites.Close()

	pres := presenter.New(cfg.Location())
	if cfg.SunTimesZone == "location" {
		pres = pres.WithLocationZones()
	}

	ctrl := controller.New(res, mapview.NewMemorySurface(), pres, favorites, logger.Named("controller"), controller.Options{
		SearchIdle:     cfg.SearchIdle,
		MapZoom:        cfg.MapZoom,
		MapInitialZoom: cfg.MapInitialZoom,
	})
	defer ctrl.Close()
	ctrl.Start()

	// Scheduler that periodically refreshes the displayed location.
	sched := scheduler.New(ctrl, cfg.RefreshInterval, logger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(logger.Named("http"), true)
	httpapi.RegisterRoutes(app, ctrl, reported)

	// Start server with graceful shutdown
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr()), zap.String("weather_backend", client.Name()))
		if err := app.Listen(cfg.Addr()); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("error during shutdown", zap.Error(err))
	}
	return nil
}

// namedClient is a weather backend that can identify itself in logs.
type namedClient interface {
	weather.Client
	Name() string
}

func newWeatherClient(cfg *config.AppConfig, httpClient *http.Client) (namedClient, error) {
	switch cfg.WeatherBackend {
	case "service":
		return providers.NewServiceClient(httpClient, cfg.WeatherServiceURL, cfg.WeatherMaxRetries), nil
	case "openweather":
		return providers.NewOpenWeatherClient(httpClient, cfg.OpenWeatherAPIKey, cfg.WeatherMaxRetries), nil
	case "weatherapi":
		return providers.NewWeatherAPIClient(httpClient, cfg.WeatherAPIKey, cfg.WeatherMaxRetries), nil
	case "openmeteo":
		c := providers.NewOpenMeteoClient(httpClient, cfg.WeatherMaxRetries)
		if cfg.GoogleAPIKey != "" {
			c = c.WithGoogleGeocoding(cfg.GoogleAPIKey)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown weather backend %q", cfg.WeatherBackend)
	}
}

// newPositionSource also returns the reported source, if any, so HTTP clients can feed it.
func newPositionSource(cfg *config.AppConfig) (geo.PositionSource, *geo.ReportedSource) {
	switch cfg.GeoSource {
	case "fixed":
		return geo.FixedSource{Position: weather.Coordinates{Latitude: cfg.DeviceLatitude, Longitude: cfg.DeviceLongitude}}, nil
	case "reported":
		reported := geo.NewReportedSource().WithMaxAge(cfg.GeoReportMaxAge)
		return reported, reported
	default:
		return geo.UnsupportedSource{}, nil
	}
}

func newLabeler(cfg *config.AppConfig, httpClient *http.Client) geocode.Labeler {
	switch cfg.Geocoder {
	case "nominatim":
		return geocode.NewNominatimClient(httpClient, cfg.NominatimURL)
	case "google":
		return geocode.NewGoogleClient(cfg.GoogleAPIKey)
	default:
		return nil
	}
}

func newFavoriteStore(cfg *config.AppConfig, httpClient *http.Client, logger *zap.Logger) (store.FavoriteStore, error) {
	switch cfg.FavoritesBackend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.FavoritesSQLitePath, cfg.FavoritesMax, logger.Named("favorites"))
	case "remote":
		return store.NewRemoteStore(httpClient, cfg.WeatherServiceURL), nil
	default:
		return store.NewMemoryStore(cfg.FavoritesMax), nil
	}
}
