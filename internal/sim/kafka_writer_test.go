package sim

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

type fakeMessageWriter struct {
	msgs   []kafka.Message
	calls  int
	err    error
	closed bool
}

func (f *fakeMessageWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls++
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeMessageWriter) Close() error {
	f.closed = true
	return nil
}

func newFakeKafka() (*KafkaWriter, *fakeMessageWriter) {
	fw := &fakeMessageWriter{}
	return &KafkaWriter{w: fw, topics: DefaultKafkaTopics(""), timeout: time.Second}, fw
}

func TestKafkaWriterBatchKeysByEntity(t *testing.T) {
	k, fw := newFakeKafka()
	rows := []telemetry.EntityRow{{EntityID: "e1", Lat: 1}, {EntityID: "e2", Lat: 2}}

	require.NoError(t, k.WriteBatch(rows))
	assert.Equal(t, 1, fw.calls, "batch should be one request")
	require.Len(t, fw.msgs, 2)
	assert.Equal(t, "wildwatch.telemetry", fw.msgs[0].Topic)
	assert.Equal(t, "e2", string(fw.msgs[1].Key))

	var got telemetry.EntityRow
	require.NoError(t, json.Unmarshal(fw.msgs[1].Value, &got))
	assert.Equal(t, 2.0, got.Lat)
}

func TestKafkaWriterAlertsAndStats(t *testing.T) {
	k, fw := newFakeKafka()
	require.NoError(t, k.WriteAlert(alert.Alert{ID: 42, Type: alert.TypePoacherDetected}))
	require.NoError(t, k.WriteStats(alert.Stats{Total: 3}))

	require.Len(t, fw.msgs, 2)
	assert.Equal(t, "wildwatch.alerts", fw.msgs[0].Topic)
	assert.Equal(t, "42", string(fw.msgs[0].Key))
	assert.Equal(t, "wildwatch.stats", fw.msgs[1].Topic)

	require.NoError(t, k.Close())
	assert.True(t, fw.closed)
}

func TestKafkaWriterErrors(t *testing.T) {
	k, fw := newFakeKafka()
	fw.err = errors.New("leader not available")
	assert.Error(t, k.Write(telemetry.EntityRow{EntityID: "e1"}))
	assert.NoError(t, k.WriteBatch(nil))
}

func TestDefaultKafkaTopicsPrefix(t *testing.T) {
	topics := DefaultKafkaTopics("park")
	assert.Equal(t, KafkaTopics{Entities: "park.telemetry", Alerts: "park.alerts", Stats: "park.stats"}, topics)
}
