package weather

// Classify maps an OpenWeather condition code (and its textual group) to a
// Background. Numeric ranges take precedence over the textual fallback;
// every input maps to exactly one category.
func Classify(code int, main string) Background {
	switch {
	case code >= 200 && code < 300:
		return BackgroundStorm
	case code >= 600 && code < 700:
		return BackgroundSnow
	case code >= 500 && code < 600:
		return BackgroundRain
	case code == 800 || code == 801 || code == 802:
		return BackgroundSunny
	case code == 803 || code == 804:
		return BackgroundCloudy
	}

	switch main {
	case "Drizzle", "Rain":
		return BackgroundRain
	case "Snow":
		return BackgroundSnow
	case "Thunderstorm":
		return BackgroundStorm
	default:
		return BackgroundCloudy
	}
}
