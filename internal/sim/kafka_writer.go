package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

// messageWriter is the part of kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaTopics names the topics the Kafka sink produces to.
type KafkaTopics struct {
	Entities string
	Alerts   string
	Stats    string
}

// DefaultKafkaTopics derives topic names from prefix.
func DefaultKafkaTopics(prefix string) KafkaTopics {
	if prefix == "" {
		prefix = "wildwatch"
	}
	return KafkaTopics{
		Entities: prefix + ".telemetry",
		Alerts:   prefix + ".alerts",
		Stats:    prefix + ".stats",
	}
}

// KafkaWriter produces JSON records keyed by entity or alert id.
type KafkaWriter struct {
	w       messageWriter
	topics  KafkaTopics
	timeout time.Duration
}

// NewKafkaWriter creates a producer for brokers. Topics are chosen per message.
func NewKafkaWriter(brokers []string, topics KafkaTopics) *KafkaWriter {
	return &KafkaWriter{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           50 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		topics:  topics,
		timeout: 10 * time.Second,
	}
}

func jsonMessage(topic, key string, ts time.Time, v any) (kafka.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s record: %w", topic, err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  ts,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}

func (k *KafkaWriter) send(msgs ...kafka.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	if err := k.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka produce: %w", err)
	}
	return nil
}

// Write produces one entity row.
func (k *KafkaWriter) Write(row telemetry.EntityRow) error {
	return k.WriteBatch([]telemetry.EntityRow{row})
}

// WriteBatch produces all rows in one request.
func (k *KafkaWriter) WriteBatch(rows []telemetry.EntityRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(rows))
	for _, r := range rows {
		m, err := jsonMessage(k.topics.Entities, r.EntityID, r.Timestamp, r)
		if err != nil {
			return err
		}
		msgs = append(msgs, m)
	}
	return k.send(msgs...)
}

// WriteAlert produces a newly raised alert.
func (k *KafkaWriter) WriteAlert(a alert.Alert) error {
	m, err := jsonMessage(k.topics.Alerts, strconv.FormatInt(a.ID, 10), a.Timestamp, a)
	if err != nil {
		return err
	}
	return k.send(m)
}

// WriteStats produces a stats snapshot.
func (k *KafkaWriter) WriteStats(s alert.Stats) error {
	m, err := jsonMessage(k.topics.Stats, "stats", time.Now(), s)
	if err != nil {
		return err
	}
	return k.send(m)
}

// Close flushes pending messages.
func (k *KafkaWriter) Close() error { return k.w.Close() }
