// Package presenter maps resolver state to renderable view data.
package presenter

import (
	"fmt"
	"math"
	"time"

	"github.com/zsefvlol/timezonemapper"

	"github.com/i474232898/weather-map-sync/internal/resolver"
	"github.com/i474232898/weather-map-sync/internal/weather"
)

const (
	BannerLoading = "loading"
	BannerError   = "error"
)

// ViewModel is the weather panel as rendered.
type ViewModel struct {
	Status        string `json:"status"`
	Banner        string `json:"banner,omitempty"`
	BannerMessage string `json:"bannerMessage,omitempty"`

	Place      string   `json:"place,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Origin     string   `json:"origin,omitempty"`
	HasWeather bool     `json:"hasWeather"`

	Description string `json:"description,omitempty"`
	Temperature string `json:"temperature,omitempty"`
	Wind        string `json:"wind,omitempty"`
	Humidity    string `json:"humidity,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
	Sunrise     string `json:"sunrise,omitempty"`
	Sunset      string `json:"sunset,omitempty"`
	SunTimeZone string `json:"sunTimeZone,omitempty"`
	Icon        string `json:"icon"`
	Image       string `json:"image"`

	Weekday string `json:"weekday"`
	Date    string `json:"date"`
}

// Presenter formats dates and times in a fixed time zone. With location
// zones enabled, sunrise and sunset use the zone of the displayed place.
type Presenter struct {
	zone          *time.Location
	locationZones bool
}

func New(zone *time.Location) *Presenter {
	if zone == nil {
		zone = time.Local
	}
	return &Presenter{zone: zone}
}

// WithLocationZones formats sun times in the displayed place's own time zone.
func (p *Presenter) WithLocationZones() *Presenter {
	p.locationZones = true
	return p
}

// Build renders state as of now. It has no side effects.
func (p *Presenter) Build(state resolver.State, now time.Time) ViewModel {
	now = now.In(p.zone)
	vm := ViewModel{
		Status:  state.Status.String(),
		Origin:  state.Origin.String(),
		Icon:    unknownIcon,
		Image:   unknownImage,
		Weekday: now.Weekday().String(),
		Date:    now.Format("1/2/2006"),
	}

	switch state.Status {
	case resolver.StatusLoading:
		vm.Banner = BannerLoading
		vm.BannerMessage = "Loading..."
	case resolver.StatusFailed:
		vm.Banner = BannerError
		vm.BannerMessage = errorMessage(state.LastError)
	}

	if loc := state.Location; loc != nil {
		if loc.Positioned {
			lat, lng := loc.Latitude, loc.Longitude
			vm.Latitude, vm.Longitude = &lat, &lng
		}
		vm.Place = placeLabel(*loc, state.Weather)
	}

	if w := state.Weather; w != nil {
		vm.HasWeather = true
		vm.Description = w.Description
		vm.Temperature = fmt.Sprintf("%.2f°C", Celsius(w.TemperatureKelvin))
		vm.Wind = fmt.Sprintf("%g km/h", round2(w.WindSpeedKmh))
		vm.Humidity = fmt.Sprintf("%d%%", w.HumidityPercent)
		if w.VisibilityMeters != nil {
			vm.Visibility = fmt.Sprintf("%d meters", *w.VisibilityMeters)
		}
		zone := p.sunZone(state.Location)
		vm.Sunrise = clockTime(w.SunriseEpoch, zone)
		vm.Sunset = clockTime(w.SunsetEpoch, zone)
		if w.SunriseEpoch != nil || w.SunsetEpoch != nil {
			vm.SunTimeZone = zone.String()
		}
		vm.Icon, vm.Image = selectIcon(w.ConditionCode, w.ConditionName)
	}
	return vm
}

// Celsius converts Kelvin to Celsius rounded to two decimals.
func Celsius(kelvin float64) float64 {
	return round2(kelvin - 273.15)
}

func (p *Presenter) sunZone(loc *weather.Location) *time.Location {
	if !p.locationZones || loc == nil || !loc.Positioned {
		return p.zone
	}
	name := timezonemapper.LatLngToTimezoneString(loc.Latitude, loc.Longitude)
	if name == "" {
		return p.zone
	}
	zone, err := time.LoadLocation(name)
	if err != nil {
		return p.zone
	}
	return zone
}

func clockTime(epoch *int64, zone *time.Location) string {
	if epoch == nil {
		return ""
	}
	return time.Unix(*epoch, 0).In(zone).Format("15:04")
}

func placeLabel(loc weather.Location, w *weather.Snapshot) string {
	switch {
	case loc.Label != "":
		return loc.Label
	case w != nil && w.PlaceName != "":
		return w.PlaceName
	case loc.Positioned:
		return fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
	default:
		return ""
	}
}

func errorMessage(kind resolver.ErrorKind) string {
	switch kind {
	case resolver.KindNetworkUnavailable:
		return "Network unavailable. Showing the last known weather."
	case resolver.KindRemoteServiceError:
		return "The weather service returned an error."
	default:
		return "Something went wrong."
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
