package model

import "time"

// Known provider sources.
const (
	SourceOpenWeather = "openweathermap"
	SourceOpenMeteo   = "openmeteo"
)

// DayKeyLayout is the calendar-date layout used as prediction_data keys.
const DayKeyLayout = "2006-01-02"

// Location is a GeoJSON-style point. Coordinates are stored as [lat, lng],
// matching the persisted document shape.
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// NewPoint builds a Location for the given coordinates.
func NewPoint(lat, lng float64) Location {
	return Location{Type: "Point", Coordinates: []float64{lat, lng}}
}

// WeatherSnapshot is one provider's current-conditions reading for a location.
// At most one unexpired snapshot is served per (source, approximate location);
// the cache enforces expiry via TTL.
type WeatherSnapshot struct {
	CurrentTemp    float64   `json:"current_temp"`
	Humidity       float64   `json:"humidity"`
	ConditionText  string    `json:"condition_text"`
	Icon           string    `json:"icon,omitempty"`
	City           string    `json:"city,omitempty"`
	Source         string    `json:"source"`
	Location       Location  `json:"location"`
	Timestamp      time.Time `json:"timestamp"`
	ExpirationTime time.Time `json:"expiration_time"`
}

// HourlyPrediction is a single hour-resolution forecast entry.
type HourlyPrediction struct {
	Date          time.Time `json:"date"`
	CurrentTemp   float64   `json:"current_temp"`
	Humidity      float64   `json:"humidity"`
	ConditionText string    `json:"condition_text"`
	Icon          string    `json:"icon,omitempty"`
}

// ForecastBucket groups one provider's forecast for a location by calendar
// date. Buckets are append-only: every cache miss produces a new independent
// document and staleness is resolved at query time, newest first.
type ForecastBucket struct {
	Source         string                        `json:"source"`
	Location       Location                      `json:"location"`
	City           string                        `json:"city,omitempty"`
	PredictionData map[string][]HourlyPrediction `json:"prediction_data"`
	Timestamp      time.Time                     `json:"timestamp"`
}
