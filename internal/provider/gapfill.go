package provider

import (
	"time"

	"geowx/internal/model"
)

// threeHourGap is the native spacing of OpenWeatherMap forecast samples.
const threeHourGap = 3

// expandThreeHourly forward-fills one native 3-hour sample into three hourly
// entries: the sample itself plus two copies with timestamps advanced by one
// and two hours. Values are repeated, never blended, and each synthetic entry
// is a fresh value so no entry aliases another.
func expandThreeHourly(sample model.HourlyPrediction) []model.HourlyPrediction {
	out := make([]model.HourlyPrediction, 0, threeHourGap)
	out = append(out, sample)
	for i := 1; i < threeHourGap; i++ {
		filled := sample
		filled.Date = sample.Date.Add(time.Duration(i) * time.Hour)
		out = append(out, filled)
	}
	return out
}

// bucketByDay groups native samples into calendar-day buckets keyed by the
// UTC date of each native sample's timestamp. A new bucket starts exactly
// when the date of sample i differs from sample i+1; the trailing bucket is
// flushed after the last sample. With expand set, each native sample is
// widened to hourly resolution before grouping, and the final sample's
// synthetic hours are appended even without a look-ahead sample to bound
// them.
func bucketByDay(samples []model.HourlyPrediction, expand bool) map[string][]model.HourlyPrediction {
	buckets := make(map[string][]model.HourlyPrediction)
	if len(samples) == 0 {
		return buckets
	}

	currentDate := samples[0].Date.UTC().Format(model.DayKeyLayout)
	var current []model.HourlyPrediction
	for i, sample := range samples {
		if expand {
			current = append(current, expandThreeHourly(sample)...)
		} else {
			current = append(current, sample)
		}
		if i+1 < len(samples) {
			nextDate := samples[i+1].Date.UTC().Format(model.DayKeyLayout)
			if nextDate != currentDate {
				buckets[currentDate] = current
				currentDate = nextDate
				current = nil
			}
		}
	}
	buckets[currentDate] = current
	return buckets
}
