package weather

import "github.com/skycast/skycast/internal/common"

// maxDailySummaries caps the outlook length handed to consumers.
const maxDailySummaries = 8

// AggregateDaily folds short-interval forecast samples into one summary per
// UTC calendar day, in first-seen day order, capped at maxDailySummaries.
//
// A day's min/max widen as samples arrive; the representative temperature
// and condition are overwritten by the latest sample seen for that day, so
// a day reflects its most recent forecast rather than a statistical center.
// Empty input yields empty output; promoting current conditions into a
// synthetic day is the resolver's job.
func AggregateDaily(samples []ForecastSample) []DailySummary {
	if len(samples) == 0 {
		return nil
	}

	byDay := make(map[string]*DailySummary)
	order := make([]string, 0, maxDailySummaries)

	for _, s := range samples {
		key := common.DayKey(s.Timestamp)

		day, ok := byDay[key]
		if !ok {
			byDay[key] = &DailySummary{
				DateKey:          key,
				RepresentativeTS: s.Timestamp,
				TempMin:          s.TempMin,
				TempMax:          s.TempMax,
				MiddayTemp:       s.Temp,
				WeatherCode:      s.WeatherCode,
				WeatherMain:      s.WeatherMain,
				Description:      s.Description,
			}
			order = append(order, key)
			continue
		}

		if s.TempMin < day.TempMin {
			day.TempMin = s.TempMin
		}
		if s.TempMax > day.TempMax {
			day.TempMax = s.TempMax
		}

		// Last write wins for the representative condition.
		day.RepresentativeTS = s.Timestamp
		day.MiddayTemp = s.Temp
		day.WeatherCode = s.WeatherCode
		day.WeatherMain = s.WeatherMain
		day.Description = s.Description
	}

	if len(order) > maxDailySummaries {
		order = order[:maxDailySummaries]
	}

	out := make([]DailySummary, 0, len(order))
	for _, key := range order {
		out = append(out, *byDay[key])
	}
	return out
}
