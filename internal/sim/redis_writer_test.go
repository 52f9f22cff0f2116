package sim

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

func TestEntityFields(t *testing.T) {
	row := telemetry.EntityRow{
		EntityID: "e1", Name: "Tembo", Species: "African Elephant", CollarID: "C1",
		Lat: -2.1534, Lon: 34.6857, Battery: 85, SpeedKmh: 5.2, HeadingDeg: 180,
		Health: "healthy", Active: true, Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	f := entityFields(row)
	assert.Equal(t, "wildwatch:entity:e1", entityKey(row.EntityID))
	assert.Equal(t, "-2.1534", f["lat"])
	assert.Equal(t, "85.00", f["battery"])
	assert.Equal(t, "true", f["active"])
	assert.Equal(t, "2024-01-02T03:04:05Z", f["ts"])
}

func TestGeoIndexable(t *testing.T) {
	assert.True(t, geoIndexable(telemetry.EntityRow{Lat: -2}))
	assert.False(t, geoIndexable(telemetry.EntityRow{Lat: 89.9}))
}

func TestRedisWriterUnreachable(t *testing.T) {
	c := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	w := newRedisWriter(c, 0)
	w.timeout = 200 * time.Millisecond
	defer w.Close()

	assert.Equal(t, 10*time.Minute, w.ttl)
	require.Error(t, w.Write(telemetry.EntityRow{EntityID: "e1"}))
	require.Error(t, w.WriteAlert(alert.Alert{ID: 1}))
	require.Error(t, w.WriteStats(alert.Stats{}))
	assert.NoError(t, w.WriteBatch(nil))
}
