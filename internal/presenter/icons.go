package presenter

import (
	"strings"

	"github.com/i474232898/weather-map-sync/internal/common"
)

const (
	unknownIcon  = "question"
	unknownImage = "weather.png"
)

var iconByCode = map[string]string{
	"01d": "sun",
	"01n": "moon",
	"02d": "cloud-sun",
	"02n": "cloud-moon",
	"03d": "cloud",
	"03n": "cloud",
	"04d": "cloud",
	"04n": "cloud",
	"09d": "cloud-rain",
	"09n": "cloud-rain",
	"10d": "cloud-showers-heavy",
	"10n": "cloud-showers-heavy",
	"11d": "bolt",
	"11n": "bolt",
	"13d": "snowflake",
	"13n": "snowflake",
	"50d": "smog",
	"50n": "smog",
}

// conditionByCode maps an icon code prefix to its main condition group.
var conditionByCode = map[string]string{
	"01": "clear",
	"02": "clouds",
	"03": "clouds",
	"04": "clouds",
	"09": "drizzle",
	"10": "rain",
	"11": "thunderstorm",
	"13": "snow",
	"50": "mist",
}

type conditionRule struct {
	match []string
	icon  string
	image string
}

// Order matters: "thunderstorm with rain" is a thunderstorm.
var conditionRules = []conditionRule{
	{match: []string{"thunder"}, icon: "bolt", image: "thunderstorm.png"},
	{match: []string{"drizzle"}, icon: "cloud-rain", image: "drizzle.png"},
	{match: []string{"rain", "shower"}, icon: "cloud-showers-heavy", image: "raining.png"},
	{match: []string{"snow", "sleet"}, icon: "snowflake", image: "snow.png"},
	{match: []string{"cloud"}, icon: "cloud", image: "cloudy.png"},
	{match: []string{"clear", "sun"}, icon: "sun", image: "sunny.png"},
	{match: []string{"mist"}, icon: "smog", image: "mist.png"},
	{match: []string{"fog"}, icon: "smog", image: "fog.png"},
}

// selectIcon picks the icon and the illustration for a condition. The icon
// code wins for the icon; the condition name wins for the illustration.
// Unrecognized conditions get the unknown icon and the generic illustration.
func selectIcon(code, name string) (icon, image string) {
	icon, image = unknownIcon, unknownImage

	if name == "" && len(code) >= 2 {
		name = conditionByCode[code[:2]]
	}
	if rule, ok := matchCondition(name); ok {
		icon, image = rule.icon, rule.image
	}
	if i, ok := iconByCode[strings.ToLower(code)]; ok {
		icon = i
	}
	return icon, image
}

func matchCondition(name string) (conditionRule, bool) {
	if name == "" {
		return conditionRule{}, false
	}
	for _, rule := range conditionRules {
		if common.HasAny(name, rule.match...) {
			return rule, true
		}
	}
	return conditionRule{}, false
}
