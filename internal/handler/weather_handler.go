package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"geowx/internal/model"
	"geowx/internal/provider"
	"geowx/internal/service"
)

// WeatherHandler exposes the point-query endpoints over the orchestrator.
type WeatherHandler struct {
	svc    service.WeatherService
	logger *zap.SugaredLogger
}

func NewWeatherHandler(svc service.WeatherService, logger *zap.SugaredLogger) *WeatherHandler {
	return &WeatherHandler{svc: svc, logger: logger}
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("could not encode json", "error", err)
	}
}

// pointQuery carries the decoded request parameters shared by both endpoints.
type pointQuery struct {
	lat, lng float64
	source   string
	tzOffset int
}

// parsePointQuery decodes lat/lng/source (and timezone for forecasts) from
// query parameters. Unparseable coordinates come back as zero values and are
// rejected by the orchestrator's input validation.
func parsePointQuery(r *http.Request) pointQuery {
	q := r.URL.Query()
	lat, _ := strconv.ParseFloat(q.Get("lat"), 64)
	lng, _ := strconv.ParseFloat(q.Get("lng"), 64)
	source := q.Get("source")
	if source == "" {
		source = model.SourceOpenWeather
	}
	tz, _ := strconv.Atoi(q.Get("timezone"))
	return pointQuery{lat: lat, lng: lng, source: source, tzOffset: tz}
}

func (h *WeatherHandler) methodAllowed(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	errMsg := "Method not allowed"
	w.Header().Set("Allow", http.MethodGet)
	h.writeJSONResponse(w, http.StatusMethodNotAllowed, model.Response{
		Error:   &errMsg,
		Message: "Error",
	})
	return false
}

// respondError maps the orchestrator's error taxonomy onto HTTP responses.
// Upstream failures surface the raw provider body verbatim.
func (h *WeatherHandler) respondError(w http.ResponseWriter, err error) {
	var perr *provider.ProviderError
	switch {
	case errors.Is(err, service.ErrInvalidCoordinates):
		errMsg := "Lat or Lng values not set"
		h.writeJSONResponse(w, http.StatusNotFound, model.Response{
			Error:   &errMsg,
			Message: "Error",
		})
	case errors.Is(err, service.ErrUnknownSource):
		errMsg := "Unknown source; supported sources are openweathermap and openmeteo"
		h.writeJSONResponse(w, http.StatusBadRequest, model.Response{
			Error:   &errMsg,
			Message: "Error",
		})
	case errors.As(err, &perr):
		h.writeJSONResponse(w, http.StatusBadGateway, model.NewErrorPayload(perr.RawBody, perr.Error()))
	default:
		h.logger.Errorw("request failed", "error", err)
		errMsg := "Failed to fetch weather data"
		h.writeJSONResponse(w, http.StatusInternalServerError, model.Response{
			Error:   &errMsg,
			Message: "Error",
		})
	}
}

// HandleWeather serves GET /weather?lat=&lng=&source=.
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	if !h.methodAllowed(w, r) {
		return
	}
	q := parsePointQuery(r)
	snap, err := h.svc.GetWeather(r.Context(), q.lat, q.lng, q.source)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, snap)
}

// HandleForecast serves GET /forecast?lat=&lng=&source=&timezone=.
func (h *WeatherHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	if !h.methodAllowed(w, r) {
		return
	}
	q := parsePointQuery(r)
	bucket, err := h.svc.GetForecast(r.Context(), q.lat, q.lng, q.source, q.tzOffset)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, bucket)
}

// HandleHealth serves GET /health.
func (h *WeatherHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, "We are up and raining")
}
