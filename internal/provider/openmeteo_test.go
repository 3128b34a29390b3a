package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geowx/internal/model"
)

const openMeteoPayload = `{
	"latitude": 10.0,
	"longitude": 20.0,
	"current": {"temperature_2m": 18.3, "relative_humidity_2m": 72, "weather_code": 2},
	"hourly": {
		"time": ["2026-03-01T22:00", "2026-03-01T23:00", "2026-03-02T00:00"],
		"temperature_2m": [17.1, 16.8, 16.2],
		"relative_humidity_2m": [70, 71, 74],
		"weather_code": [2, 3, 999]
	}
}`

func newTestOpenMeteoAdapter(client *http.Client) *OpenMeteoAdapter {
	return &OpenMeteoAdapter{
		forecastURL: "https://api.open-meteo.com/v1/forecast",
		upstream:    newUpstreamClient("openmeteo-test", client),
	}
}

func TestOpenMeteoFetchWeatherNormalizes(t *testing.T) {
	client := newMockHTTPClient(func(req *http.Request) *http.Response {
		assert.Contains(t, req.URL.String(), "current=temperature_2m,relative_humidity_2m,weather_code")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte(openMeteoPayload))),
			Header:     make(http.Header),
		}
	})
	a := newTestOpenMeteoAdapter(client)

	snap, perr := a.FetchWeather(context.Background(), 10.0, 20.0)
	require.Nil(t, perr)
	assert.Equal(t, model.SourceOpenMeteo, snap.Source)
	assert.Equal(t, []float64{10.0, 20.0}, snap.Location.Coordinates)
	assert.Equal(t, 18.3, snap.CurrentTemp)
	assert.Equal(t, 72.0, snap.Humidity)
	assert.Equal(t, "Partly cloudy", snap.ConditionText)
	assert.Empty(t, snap.Icon)
}

func TestOpenMeteoFetchForecastBucketsNativeHourly(t *testing.T) {
	client := newMockHTTPClient(func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte(openMeteoPayload))),
			Header:     make(http.Header),
		}
	})
	a := newTestOpenMeteoAdapter(client)

	bucket, perr := a.FetchForecast(context.Background(), 10.0, 20.0)
	require.Nil(t, perr)
	assert.Equal(t, model.SourceOpenMeteo, bucket.Source)
	require.Len(t, bucket.PredictionData, 2)

	day1 := bucket.PredictionData["2026-03-01"]
	require.Len(t, day1, 2)
	assert.Equal(t, time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC), day1[0].Date)
	assert.Equal(t, 17.1, day1[0].CurrentTemp)
	assert.Equal(t, "Partly cloudy", day1[0].ConditionText)

	day2 := bucket.PredictionData["2026-03-02"]
	require.Len(t, day2, 1)
	// Unknown weather codes yield an unset condition text.
	assert.Empty(t, day2[0].ConditionText)
}

func TestOpenMeteoMisalignedArrays(t *testing.T) {
	payload := `{"hourly": {"time": ["2026-03-01T00:00"], "temperature_2m": [], "relative_humidity_2m": [1], "weather_code": [0]}}`
	client := newMockHTTPClient(func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte(payload))),
			Header:     make(http.Header),
		}
	})
	a := newTestOpenMeteoAdapter(client)

	bucket, perr := a.FetchForecast(context.Background(), 10.0, 20.0)
	assert.Nil(t, bucket)
	require.NotNil(t, perr)
	assert.Error(t, perr.Err)
}

func TestOpenMeteoUpstreamRejectionKeepsRawBody(t *testing.T) {
	raw := `{"error":true,"reason":"Latitude must be in range of -90 to 90"}`
	client := newMockHTTPClient(func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(bytes.NewReader([]byte(raw))),
			Header:     make(http.Header),
		}
	})
	a := newTestOpenMeteoAdapter(client)

	bucket, perr := a.FetchForecast(context.Background(), 400.0, 20.0)
	assert.Nil(t, bucket)
	require.NotNil(t, perr)
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
	assert.JSONEq(t, raw, string(perr.RawBody))
}

func TestConditionText(t *testing.T) {
	assert.Equal(t, "Clear sky", conditionText(0))
	assert.Equal(t, "Snow grains", conditionText(77))
	assert.Equal(t, "", conditionText(12345))
}
