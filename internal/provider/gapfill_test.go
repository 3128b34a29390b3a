package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geowx/internal/model"
)

func threeHourSeries(start time.Time, n int) []model.HourlyPrediction {
	samples := make([]model.HourlyPrediction, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, model.HourlyPrediction{
			Date:          start.Add(time.Duration(i) * 3 * time.Hour),
			CurrentTemp:   20 + float64(i),
			Humidity:      50 + float64(i),
			ConditionText: "Clear sky",
		})
	}
	return samples
}

func TestExpandThreeHourly(t *testing.T) {
	sample := model.HourlyPrediction{
		Date:          time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		CurrentTemp:   21.5,
		Humidity:      63,
		ConditionText: "Overcast",
		Icon:          "icon.png",
	}

	got := expandThreeHourly(sample)
	require.Len(t, got, 3)
	assert.Equal(t, sample, got[0])
	for i := 1; i < 3; i++ {
		assert.Equal(t, sample.Date.Add(time.Duration(i)*time.Hour), got[i].Date)
		assert.Equal(t, sample.CurrentTemp, got[i].CurrentTemp)
		assert.Equal(t, sample.Humidity, got[i].Humidity)
		assert.Equal(t, sample.ConditionText, got[i].ConditionText)
		assert.Equal(t, sample.Icon, got[i].Icon)
	}
}

func TestExpandThreeHourlyNoAliasing(t *testing.T) {
	sample := model.HourlyPrediction{
		Date:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		CurrentTemp: 21.5,
	}
	got := expandThreeHourly(sample)
	got[1].CurrentTemp = -100
	got[2].ConditionText = "mutated"

	assert.Equal(t, 21.5, got[0].CurrentTemp)
	assert.Equal(t, 21.5, sample.CurrentTemp)
	assert.Empty(t, got[0].ConditionText)
}

func TestBucketByDayExpandedProducesThreeN(t *testing.T) {
	// 8 samples at 3-hour spacing, all inside one UTC day.
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	samples := threeHourSeries(start, 8)

	buckets := bucketByDay(samples, true)
	require.Len(t, buckets, 1)
	day := buckets["2026-03-01"]
	require.Len(t, day, 3*len(samples))

	for i, sample := range samples {
		triple := day[i*3 : i*3+3]
		assert.Equal(t, sample.Date, triple[0].Date)
		assert.Equal(t, sample.Date.Add(time.Hour), triple[1].Date)
		assert.Equal(t, sample.Date.Add(2*time.Hour), triple[2].Date)
		for _, entry := range triple {
			assert.Equal(t, sample.CurrentTemp, entry.CurrentTemp)
			assert.Equal(t, sample.Humidity, entry.Humidity)
		}
	}
}

func TestBucketByDayBoundaryExpanded(t *testing.T) {
	// Samples at 18:00, 21:00, then 00:00 next day: boundary after index 1.
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	samples := threeHourSeries(start, 3)

	buckets := bucketByDay(samples, true)
	require.Len(t, buckets, 2)
	assert.Len(t, buckets["2026-03-01"], 6)
	assert.Len(t, buckets["2026-03-02"], 3)
}

func TestBucketByDayBoundaryNative(t *testing.T) {
	// Native hourly samples spanning midnight: 22:00, 23:00, 00:00, 01:00.
	base := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	samples := make([]model.HourlyPrediction, 0, 4)
	for i := 0; i < 4; i++ {
		samples = append(samples, model.HourlyPrediction{
			Date:        base.Add(time.Duration(i) * time.Hour),
			CurrentTemp: float64(i),
		})
	}

	buckets := bucketByDay(samples, false)
	require.Len(t, buckets, 2)
	require.Len(t, buckets["2026-03-01"], 2)
	require.Len(t, buckets["2026-03-02"], 2)
	assert.Equal(t, 0.0, buckets["2026-03-01"][0].CurrentTemp)
	assert.Equal(t, 2.0, buckets["2026-03-02"][0].CurrentTemp)
}

func TestBucketByDayEmpty(t *testing.T) {
	assert.Empty(t, bucketByDay(nil, true))
	assert.Empty(t, bucketByDay(nil, false))
}

func TestBucketByDayTrailingSyntheticHoursKept(t *testing.T) {
	// The last native sample has no look-ahead, but its forward-filled hours
	// must still land in its bucket.
	start := time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)
	samples := threeHourSeries(start, 1)

	buckets := bucketByDay(samples, true)
	day := buckets["2026-03-01"]
	require.Len(t, day, 3)
	assert.Equal(t, start.Add(2*time.Hour), day[2].Date)
}
