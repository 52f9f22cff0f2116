package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

// Redis key layout.
const (
	redisKeyPrefix    = "wildwatch:"
	redisPositionsKey = redisKeyPrefix + "positions"
	redisAlertChannel = redisKeyPrefix + "alerts"
	redisRecentAlerts = redisKeyPrefix + "alerts:recent"
	redisStatsKey     = redisKeyPrefix + "alerts:stats"
	redisRecentLimit  = 100
	// Redis geo indexes reject latitudes beyond this.
	redisMaxGeoLat = 85.05112878
)

// RedisWriter keeps the latest entity state in Redis hashes, indexes
// positions for GEOSEARCH and publishes new alerts on a channel.
type RedisWriter struct {
	client  redis.UniversalClient
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisWriter connects to addr. Entity hashes expire after ttl without updates.
func NewRedisWriter(addr, password string, ttl time.Duration) *RedisWriter {
	return newRedisWriter(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	}), ttl)
}

func newRedisWriter(c redis.UniversalClient, ttl time.Duration) *RedisWriter {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisWriter{client: c, ttl: ttl, timeout: 5 * time.Second}
}

// Ping checks connectivity.
func (r *RedisWriter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func entityKey(id string) string { return redisKeyPrefix + "entity:" + id }

func entityFields(row telemetry.EntityRow) map[string]any {
	return map[string]any{
		"name":      row.Name,
		"species":   row.Species,
		"collar_id": row.CollarID,
		"lat":       strconv.FormatFloat(row.Lat, 'f', -1, 64),
		"lon":       strconv.FormatFloat(row.Lon, 'f', -1, 64),
		"battery":   strconv.FormatFloat(row.Battery, 'f', 2, 64),
		"speed_kmh": strconv.FormatFloat(row.SpeedKmh, 'f', 2, 64),
		"heading":   strconv.FormatFloat(row.HeadingDeg, 'f', 1, 64),
		"health":    row.Health,
		"active":    strconv.FormatBool(row.Active),
		"ts":        row.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func geoIndexable(row telemetry.EntityRow) bool {
	return math.Abs(row.Lat) <= redisMaxGeoLat
}

// Write stores one entity row.
func (r *RedisWriter) Write(row telemetry.EntityRow) error {
	return r.WriteBatch([]telemetry.EntityRow{row})
}

// WriteBatch stores rows in a single pipeline.
func (r *RedisWriter) WriteBatch(rows []telemetry.EntityRow) error {
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, row := range rows {
			key := entityKey(row.EntityID)
			p.HSet(ctx, key, entityFields(row))
			p.Expire(ctx, key, r.ttl)
			if geoIndexable(row) {
				p.GeoAdd(ctx, redisPositionsKey, &redis.GeoLocation{
					Name:      row.EntityID,
					Longitude: row.Lon,
					Latitude:  row.Lat,
				})
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis entity pipeline: %w", err)
	}
	return nil
}

// WriteAlert publishes the alert and keeps it in a bounded recent list.
func (r *RedisWriter) WriteAlert(a alert.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert %d: %w", a.ID, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, redisRecentAlerts, data)
		p.LTrim(ctx, redisRecentAlerts, 0, redisRecentLimit-1)
		p.Publish(ctx, redisAlertChannel, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis alert: %w", err)
	}
	return nil
}

// WriteStats stores the latest stats snapshot.
func (r *RedisWriter) WriteStats(s alert.Stats) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, redisStatsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis stats: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisWriter) Close() error { return r.client.Close() }
