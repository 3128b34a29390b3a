package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"geowx/internal/config"
	"geowx/internal/model"
)

// OpenWeatherAdapter is the Provider A variant, backed by OpenWeatherMap's
// current-weather and 5-day/3-hour forecast endpoints.
type OpenWeatherAdapter struct {
	apiKey      string
	weatherURL  string
	forecastURL string
	iconURL     string
	upstream    *upstreamClient
}

// NewOpenWeatherAdapter builds the adapter with endpoints and the API key
// from configuration. The shared http.Client carries the upstream timeout.
func NewOpenWeatherAdapter(httpClient *http.Client) *OpenWeatherAdapter {
	return &OpenWeatherAdapter{
		apiKey:      config.GetOpenWeatherMapAPIKey(),
		weatherURL:  config.GetOpenWeatherWeatherURL(),
		forecastURL: config.GetOpenWeatherForecastURL(),
		iconURL:     config.GetOpenWeatherIconURL(),
		upstream:    newUpstreamClient(model.SourceOpenWeather, httpClient),
	}
}

func (a *OpenWeatherAdapter) Source() string { return model.SourceOpenWeather }

// FetchWeather retrieves and normalizes the current conditions at the point.
func (a *OpenWeatherAdapter) FetchWeather(ctx context.Context, lat, lng float64) (*model.WeatherSnapshot, *ProviderError) {
	url := fmt.Sprintf("%s?lat=%f&lon=%f&appid=%s", a.weatherURL, lat, lng, a.apiKey)
	body, perr := a.upstream.fetchRaw(ctx, url)
	if perr != nil {
		return nil, perr
	}
	snap, err := a.normalizeWeather(body)
	if err != nil {
		return nil, &ProviderError{Err: err, RawBody: body}
	}
	return snap, nil
}

// FetchForecast retrieves the 3-hourly forecast series and normalizes it into
// hourly-resolution day buckets.
func (a *OpenWeatherAdapter) FetchForecast(ctx context.Context, lat, lng float64) (*model.ForecastBucket, *ProviderError) {
	url := fmt.Sprintf("%s?lat=%f&lon=%f&appid=%s", a.forecastURL, lat, lng, a.apiKey)
	body, perr := a.upstream.fetchRaw(ctx, url)
	if perr != nil {
		return nil, perr
	}
	bucket, err := a.normalizeForecast(body)
	if err != nil {
		return nil, &ProviderError{Err: err, RawBody: body}
	}
	return bucket, nil
}

func (a *OpenWeatherAdapter) normalizeWeather(body []byte) (*model.WeatherSnapshot, error) {
	var data model.OpenWeatherCurrentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode openweathermap weather payload: %w", err)
	}

	snap := &model.WeatherSnapshot{
		CurrentTemp: round3(data.Main.Temp / 10),
		Humidity:    round3(data.Main.Humidity),
		City:        data.Name,
		Source:      model.SourceOpenWeather,
		Location:    model.NewPoint(data.Coord.Lat, data.Coord.Lon),
	}
	if len(data.Weather) > 0 {
		snap.ConditionText = capitalize(data.Weather[0].Description)
		snap.Icon = a.iconRef(data.Weather[0].Icon)
	}
	return snap, nil
}

func (a *OpenWeatherAdapter) normalizeForecast(body []byte) (*model.ForecastBucket, error) {
	var data model.OpenWeatherForecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode openweathermap forecast payload: %w", err)
	}

	native := make([]model.HourlyPrediction, 0, len(data.List))
	for _, sample := range data.List {
		entry := model.HourlyPrediction{
			Date:        time.Unix(sample.Dt, 0).UTC(),
			CurrentTemp: round3(sample.Main.Temp / 10),
			Humidity:    round3(sample.Main.Humidity),
		}
		if len(sample.Weather) > 0 {
			entry.ConditionText = capitalize(sample.Weather[0].Description)
			entry.Icon = a.iconRef(sample.Weather[0].Icon)
		}
		native = append(native, entry)
	}

	return &model.ForecastBucket{
		Source:         model.SourceOpenWeather,
		Location:       model.NewPoint(data.City.Coord.Lat, data.City.Coord.Lon),
		City:           data.City.Name,
		PredictionData: bucketByDay(native, true),
	}, nil
}

func (a *OpenWeatherAdapter) iconRef(code string) string {
	if code == "" {
		return ""
	}
	return a.iconURL + code + "@4x.png"
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
