package sim

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

// mqttPublisher is the part of mqtt.Client the sink uses.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTWriter publishes collar positions and alerts the way field gateways do.
type MQTTWriter struct {
	client  mqttPublisher
	prefix  string
	timeout time.Duration
}

// NewMQTTWriter connects to broker (e.g. tcp://localhost:1883).
func NewMQTTWriter(broker, clientID, prefix string) (*MQTTWriter, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	if prefix == "" {
		prefix = "wildwatch"
	}
	return &MQTTWriter{client: c, prefix: prefix, timeout: 5 * time.Second}, nil
}

func (m *MQTTWriter) positionTopic(row telemetry.EntityRow) string {
	id := row.CollarID
	if id == "" {
		id = row.EntityID
	}
	return fmt.Sprintf("%s/collars/%s/position", m.prefix, id)
}

func (m *MQTTWriter) alertTopic(a alert.Alert) string {
	return fmt.Sprintf("%s/alerts/%s", m.prefix, a.Priority)
}

func (m *MQTTWriter) publish(topic string, qos byte, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	token := m.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("mqtt publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Write publishes the latest position of one collar as a retained message.
func (m *MQTTWriter) Write(row telemetry.EntityRow) error {
	return m.publish(m.positionTopic(row), 0, true, row)
}

// WriteAlert publishes an alert with at-least-once delivery.
func (m *MQTTWriter) WriteAlert(a alert.Alert) error {
	return m.publish(m.alertTopic(a), 1, false, a)
}

// Close disconnects from the broker.
func (m *MQTTWriter) Close() error {
	if c, ok := m.client.(mqtt.Client); ok {
		c.Disconnect(250)
	}
	return nil
}
