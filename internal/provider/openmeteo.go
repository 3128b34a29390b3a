package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"geowx/internal/config"
	"geowx/internal/model"
)

// openMeteoTimeLayout is the zone-less hourly timestamp format in Open-Meteo
// payloads; values are UTC.
const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoAdapter is the Provider B variant. One Open-Meteo call returns
// both current conditions and the native-hourly series, so both operations
// share the same endpoint and differ only in which half they normalize.
type OpenMeteoAdapter struct {
	forecastURL string
	upstream    *upstreamClient
}

func NewOpenMeteoAdapter(httpClient *http.Client) *OpenMeteoAdapter {
	return &OpenMeteoAdapter{
		forecastURL: config.GetOpenMeteoForecastURL(),
		upstream:    newUpstreamClient(model.SourceOpenMeteo, httpClient),
	}
}

func (a *OpenMeteoAdapter) Source() string { return model.SourceOpenMeteo }

func (a *OpenMeteoAdapter) endpoint(lat, lng float64) string {
	return fmt.Sprintf(
		"%s?latitude=%f&longitude=%f&current=temperature_2m,relative_humidity_2m,weather_code&hourly=temperature_2m,relative_humidity_2m,weather_code",
		a.forecastURL, lat, lng,
	)
}

// FetchWeather retrieves the combined payload and normalizes its current
// block.
func (a *OpenMeteoAdapter) FetchWeather(ctx context.Context, lat, lng float64) (*model.WeatherSnapshot, *ProviderError) {
	body, perr := a.upstream.fetchRaw(ctx, a.endpoint(lat, lng))
	if perr != nil {
		return nil, perr
	}
	snap, err := normalizeOpenMeteoWeather(body)
	if err != nil {
		return nil, &ProviderError{Err: err, RawBody: body}
	}
	return snap, nil
}

// FetchForecast retrieves the combined payload and normalizes its hourly
// series into day buckets. The series is already hourly, so no gap filling
// is needed.
func (a *OpenMeteoAdapter) FetchForecast(ctx context.Context, lat, lng float64) (*model.ForecastBucket, *ProviderError) {
	body, perr := a.upstream.fetchRaw(ctx, a.endpoint(lat, lng))
	if perr != nil {
		return nil, perr
	}
	bucket, err := normalizeOpenMeteoForecast(body)
	if err != nil {
		return nil, &ProviderError{Err: err, RawBody: body}
	}
	return bucket, nil
}

func normalizeOpenMeteoWeather(body []byte) (*model.WeatherSnapshot, error) {
	var data model.OpenMeteoResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode openmeteo payload: %w", err)
	}
	return &model.WeatherSnapshot{
		CurrentTemp:   data.Current.Temperature2m,
		Humidity:      data.Current.RelativeHumidity2m,
		ConditionText: conditionText(data.Current.WeatherCode),
		Source:        model.SourceOpenMeteo,
		Location:      model.NewPoint(data.Latitude, data.Longitude),
	}, nil
}

func normalizeOpenMeteoForecast(body []byte) (*model.ForecastBucket, error) {
	var data model.OpenMeteoResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode openmeteo payload: %w", err)
	}

	hourly := data.Hourly
	if len(hourly.Temperature2m) != len(hourly.Time) ||
		len(hourly.RelativeHumidity2m) != len(hourly.Time) ||
		len(hourly.WeatherCode) != len(hourly.Time) {
		return nil, fmt.Errorf("openmeteo hourly arrays are not time-aligned")
	}

	native := make([]model.HourlyPrediction, 0, len(hourly.Time))
	for i, raw := range hourly.Time {
		ts, err := time.Parse(openMeteoTimeLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("parse openmeteo hourly time %q: %w", raw, err)
		}
		native = append(native, model.HourlyPrediction{
			Date:          ts.UTC(),
			CurrentTemp:   hourly.Temperature2m[i],
			Humidity:      hourly.RelativeHumidity2m[i],
			ConditionText: conditionText(hourly.WeatherCode[i]),
		})
	}

	return &model.ForecastBucket{
		Source:         model.SourceOpenMeteo,
		Location:       model.NewPoint(data.Latitude, data.Longitude),
		PredictionData: bucketByDay(native, false),
	}, nil
}
