package weather

import "fmt"

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a resolved place on the map.
// Label is empty when the location came from raw coordinates.
// Positioned is false only for a place-name result that carried no coordinates.
type Location struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Label      string  `json:"label,omitempty"`
	Positioned bool    `json:"positioned"`
}

// NewLocation returns a positioned location.
func NewLocation(latitude, longitude float64, label string) Location {
	return Location{
		Latitude:   latitude,
		Longitude:  longitude,
		Label:      label,
		Positioned: true,
	}
}

// Coordinates returns the location's coordinate pair.
func (l Location) Coordinates() Coordinates {
	return Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Key returns a canonical string key for the location, used in logs.
func (l Location) Key() string {
	if !l.Positioned {
		return l.Label
	}
	return fmt.Sprintf("%.5f,%.5f", l.Latitude, l.Longitude)
}

// Snapshot is the normalized weather record for one location at one point in time.
type Snapshot struct {
	Description       string  `json:"description"`
	TemperatureKelvin float64 `json:"temperatureKelvin"`
	HumidityPercent   int     `json:"humidityPercent"`
	WindSpeedKmh      float64 `json:"windSpeedKmh"`
	VisibilityMeters  *int    `json:"visibilityMeters,omitempty"`
	SunriseEpoch      *int64  `json:"sunriseEpoch,omitempty"`
	SunsetEpoch       *int64  `json:"sunsetEpoch,omitempty"`

	// ConditionCode is the provider icon code (e.g. "01d"); ConditionName the
	// main condition group (e.g. "Clear"). Either may be empty.
	ConditionCode string `json:"conditionCode"`
	ConditionName string `json:"conditionName,omitempty"`

	// PlaceName and Coordinates echo the place the service resolved, when present.
	PlaceName   string       `json:"placeName,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}
