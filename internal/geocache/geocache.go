// Package geocache is a proximity-indexed cache for normalized weather data.
//
// Records live in Redis as JSON blobs, indexed by a geo set per (stream,
// source). Weather snapshots carry a TTL; forecast buckets are append-only
// and filtered by timestamp at query time. Any query point within the search
// radius of a stored point is served the stored answer.
package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"geowx/internal/model"
)

// GeoCache answers "is there already a satisfying record near this point"
// before any upstream call is made. A miss is a normal outcome, reported as a
// nil record with a nil error; errors are reserved for store failures.
type GeoCache struct {
	client       *redisv9.Client
	radiusMeters float64
	weatherTTL   time.Duration
}

// New builds a GeoCache on an already-connected Redis client. The caller owns
// the client lifecycle.
func New(client *redisv9.Client, radiusMeters float64, weatherTTL time.Duration) *GeoCache {
	return &GeoCache{
		client:       client,
		radiusMeters: radiusMeters,
		weatherTTL:   weatherTTL,
	}
}

func weatherGeoKey(source string) string  { return "geo:weather:" + source }
func forecastGeoKey(source string) string { return "geo:forecast:" + source }

func weatherRecordKey(source, id string) string  { return "weather:" + source + ":" + id }
func forecastRecordKey(source, id string) string { return "forecast:" + source + ":" + id }

// nearbyMembers returns the geo-set members within the search radius of the
// query point.
func (c *GeoCache) nearbyMembers(ctx context.Context, geoKey string, lat, lng float64) ([]redisv9.GeoLocation, error) {
	locs, err := c.client.GeoRadius(ctx, geoKey, lng, lat, &redisv9.GeoRadiusQuery{
		Radius: c.radiusMeters,
		Unit:   "m",
	}).Result()
	if err != nil && !errors.Is(err, redisv9.Nil) {
		return nil, fmt.Errorf("geo radius query: %w", err)
	}
	return locs, nil
}

// LookupWeather returns the most recent unexpired snapshot for source within
// the search radius, or nil on a miss. Expiry is enforced by the store's TTL;
// geo members whose record already expired are pruned lazily.
func (c *GeoCache) LookupWeather(ctx context.Context, lat, lng float64, source string) (*model.WeatherSnapshot, error) {
	geoKey := weatherGeoKey(source)
	locs, err := c.nearbyMembers(ctx, geoKey, lat, lng)
	if err != nil {
		return nil, err
	}

	var newest *model.WeatherSnapshot
	for _, loc := range locs {
		val, err := c.client.Get(ctx, weatherRecordKey(source, loc.Name)).Result()
		if errors.Is(err, redisv9.Nil) {
			c.client.ZRem(ctx, geoKey, loc.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("weather record read: %w", err)
		}
		var snap model.WeatherSnapshot
		if err := json.Unmarshal([]byte(val), &snap); err != nil {
			c.client.ZRem(ctx, geoKey, loc.Name)
			continue
		}
		if newest == nil || snap.Timestamp.After(newest.Timestamp) {
			newest = &snap
		}
	}
	return newest, nil
}

// LookupForecastDay returns the newest bucket for source within the search
// radius, projected down to the single requested day key. A nearby bucket
// that lacks the day key is a miss: freshness for that day is unknown.
func (c *GeoCache) LookupForecastDay(ctx context.Context, lat, lng float64, source, date string) (*model.ForecastBucket, error) {
	locs, err := c.nearbyMembers(ctx, forecastGeoKey(source), lat, lng)
	if err != nil {
		return nil, err
	}

	var newest *model.ForecastBucket
	for _, loc := range locs {
		val, err := c.client.Get(ctx, forecastRecordKey(source, loc.Name)).Result()
		if errors.Is(err, redisv9.Nil) {
			c.client.ZRem(ctx, forecastGeoKey(source), loc.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("forecast record read: %w", err)
		}
		var bucket model.ForecastBucket
		if err := json.Unmarshal([]byte(val), &bucket); err != nil {
			c.client.ZRem(ctx, forecastGeoKey(source), loc.Name)
			continue
		}
		if newest == nil || bucket.Timestamp.After(newest.Timestamp) {
			newest = &bucket
		}
	}
	if newest == nil {
		return nil, nil
	}

	day, ok := newest.PredictionData[date]
	if !ok {
		return nil, nil
	}
	projection := *newest
	projection.PredictionData = map[string][]model.HourlyPrediction{date: day}
	return &projection, nil
}

// WriteWeather inserts a new snapshot stamped with the current time and an
// expiration one TTL later. Existing records are not deduplicated.
func (c *GeoCache) WriteWeather(ctx context.Context, snap *model.WeatherSnapshot) error {
	now := time.Now().UTC()
	snap.Timestamp = now
	snap.ExpirationTime = now.Add(c.weatherTTL)

	lat, lng, err := pointCoords(snap.Location)
	if err != nil {
		return err
	}

	id := strconv.FormatInt(now.UnixNano(), 10)
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal weather snapshot: %w", err)
	}

	if err := c.client.Set(ctx, weatherRecordKey(snap.Source, id), b, c.weatherTTL).Err(); err != nil {
		return fmt.Errorf("weather record write: %w", err)
	}
	if err := c.client.GeoAdd(ctx, weatherGeoKey(snap.Source), &redisv9.GeoLocation{
		Name:      id,
		Longitude: lng,
		Latitude:  lat,
	}).Err(); err != nil {
		return fmt.Errorf("weather geo index write: %w", err)
	}
	return nil
}

// WriteForecast inserts a new bucket stamped with the current time. Buckets
// are never merged with or overwrite earlier ones; pruning is not this
// subsystem's concern.
func (c *GeoCache) WriteForecast(ctx context.Context, bucket *model.ForecastBucket) error {
	now := time.Now().UTC()
	bucket.Timestamp = now

	lat, lng, err := pointCoords(bucket.Location)
	if err != nil {
		return err
	}

	id := strconv.FormatInt(now.UnixNano(), 10)
	b, err := json.Marshal(bucket)
	if err != nil {
		return fmt.Errorf("marshal forecast bucket: %w", err)
	}

	if err := c.client.Set(ctx, forecastRecordKey(bucket.Source, id), b, 0).Err(); err != nil {
		return fmt.Errorf("forecast record write: %w", err)
	}
	if err := c.client.GeoAdd(ctx, forecastGeoKey(bucket.Source), &redisv9.GeoLocation{
		Name:      id,
		Longitude: lng,
		Latitude:  lat,
	}).Err(); err != nil {
		return fmt.Errorf("forecast geo index write: %w", err)
	}
	return nil
}

func pointCoords(loc model.Location) (lat, lng float64, err error) {
	if len(loc.Coordinates) != 2 {
		return 0, 0, fmt.Errorf("location has %d coordinates, want 2", len(loc.Coordinates))
	}
	return loc.Coordinates[0], loc.Coordinates[1], nil
}
