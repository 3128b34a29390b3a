// Package service composes the geospatial cache with the provider adapters:
// cache-check, then on a miss fetch, normalize, write through, and return the
// filtered view.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"geowx/internal/geocache"
	"geowx/internal/model"
	"geowx/internal/provider"
)

var (
	// ErrInvalidCoordinates rejects missing or zero-valued coordinates before
	// any cache or provider interaction.
	ErrInvalidCoordinates = errors.New("lat or lng values not set")
	// ErrUnknownSource rejects sources outside the two supported providers.
	ErrUnknownSource = errors.New("unknown weather source")
)

// WeatherService is the request-level contract exposed to the HTTP layer.
type WeatherService interface {
	GetWeather(ctx context.Context, lat, lng float64, source string) (*model.WeatherSnapshot, error)
	GetForecast(ctx context.Context, lat, lng float64, source string, tzOffsetMinutes int) (*model.ForecastBucket, error)
}

// Cache is the proximity-cache contract the orchestrator consumes; satisfied
// by geocache.GeoCache.
type Cache interface {
	LookupWeather(ctx context.Context, lat, lng float64, source string) (*model.WeatherSnapshot, error)
	LookupForecastDay(ctx context.Context, lat, lng float64, source, date string) (*model.ForecastBucket, error)
	WriteWeather(ctx context.Context, snap *model.WeatherSnapshot) error
	WriteForecast(ctx context.Context, bucket *model.ForecastBucket) error
}

var _ Cache = (*geocache.GeoCache)(nil)

// Orchestrator implements WeatherService over a proximity cache and one
// adapter per source. Concurrent identical misses are coalesced per (kind,
// source, rounded location) so a thundering herd produces one upstream call
// and one cache write.
type Orchestrator struct {
	cache    Cache
	adapters map[string]provider.Adapter
	group    singleflight.Group
	logger   *zap.SugaredLogger
}

func New(cache Cache, logger *zap.SugaredLogger, adapters ...provider.Adapter) *Orchestrator {
	bySource := make(map[string]provider.Adapter, len(adapters))
	for _, a := range adapters {
		bySource[a.Source()] = a
	}
	return &Orchestrator{
		cache:    cache,
		adapters: bySource,
		logger:   logger,
	}
}

// flightKey identifies one logical in-flight fetch. Coordinates are rounded
// to four decimals (~11m), well inside the cache search radius.
func flightKey(kind, source string, lat, lng float64) string {
	return fmt.Sprintf("%s:%s:%.4f:%.4f", kind, source, lat, lng)
}

func (o *Orchestrator) adapterFor(lat, lng float64, source string) (provider.Adapter, error) {
	if lat == 0 || lng == 0 {
		return nil, ErrInvalidCoordinates
	}
	ad, ok := o.adapters[source]
	if !ok {
		return nil, ErrUnknownSource
	}
	return ad, nil
}

// GetWeather returns the current conditions at the point, serving from the
// cache when an unexpired nearby snapshot exists. On a miss the normalized
// fetch result is written through before being returned; a write failure is
// logged but never turns a successful fetch into a caller-visible error.
func (o *Orchestrator) GetWeather(ctx context.Context, lat, lng float64, source string) (*model.WeatherSnapshot, error) {
	ad, err := o.adapterFor(lat, lng, source)
	if err != nil {
		return nil, err
	}

	cached, err := o.cache.LookupWeather(ctx, lat, lng, source)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	v, err, _ := o.group.Do(flightKey("weather", source, lat, lng), func() (interface{}, error) {
		snap, perr := ad.FetchWeather(ctx, lat, lng)
		if perr != nil {
			return nil, perr
		}
		if werr := o.cache.WriteWeather(ctx, snap); werr != nil {
			o.logger.Warnw("weather write-through failed", "source", source, "error", werr)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.WeatherSnapshot), nil
}

// GetForecast returns the forecast for "today" at the point, where today is
// date(now UTC + tzOffsetMinutes). A cache hit returns the stored partial-day
// projection as-is. On a miss the full normalized bucket is written through
// and the returned view is filtered down to today's key.
func (o *Orchestrator) GetForecast(ctx context.Context, lat, lng float64, source string, tzOffsetMinutes int) (*model.ForecastBucket, error) {
	ad, err := o.adapterFor(lat, lng, source)
	if err != nil {
		return nil, err
	}

	today := localDayKey(time.Now(), tzOffsetMinutes)

	cached, err := o.cache.LookupForecastDay(ctx, lat, lng, source, today)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	v, err, _ := o.group.Do(flightKey("forecast", source, lat, lng), func() (interface{}, error) {
		bucket, perr := ad.FetchForecast(ctx, lat, lng)
		if perr != nil {
			return nil, perr
		}
		if werr := o.cache.WriteForecast(ctx, bucket); werr != nil {
			o.logger.Warnw("forecast write-through failed", "source", source, "error", werr)
		}
		return bucket, nil
	})
	if err != nil {
		return nil, err
	}

	// The coalesced bucket may be shared across callers; filter a copy.
	full := v.(*model.ForecastBucket)
	view := *full
	view.PredictionData = make(map[string][]model.HourlyPrediction, 1)
	if day, ok := full.PredictionData[today]; ok {
		view.PredictionData[today] = day
	}
	return &view, nil
}

// localDayKey computes the caller-local calendar date used to slice forecast
// buckets.
func localDayKey(now time.Time, tzOffsetMinutes int) string {
	return now.UTC().Add(time.Duration(tzOffsetMinutes) * time.Minute).Format(model.DayKeyLayout)
}
