package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/sim"
)

// writerOptions selects the output sinks of a run.
type writerOptions struct {
	PrintOnly bool
	TUI       bool
	LogFile   string
}

// newWriters builds the sink fan-out from flags and env vars. Network sinks
// are enabled by their endpoint variables; STDOUT is used when nothing else
// would show the stream. extra writers (metrics) are always appended.
func newWriters(cfg *config.SimulationConfig, opts writerOptions, extra ...sim.TelemetryWriter) (*sim.MultiWriter, error) {
	var ws []sim.TelemetryWriter
	closeAll := func() { _ = sim.NewMultiWriter(ws...).Close() }

	if !opts.PrintOnly {
		network, err := networkWriters()
		if err != nil {
			closeAll()
			return nil, err
		}
		ws = append(ws, network...)
	}

	switch {
	case opts.TUI:
		ws = append(ws, sim.NewTUIWriter(cfg))
	case opts.PrintOnly || len(ws) == 0:
		ws = append(ws, sim.NewStdoutWriter(cfg))
	}

	if opts.LogFile != "" {
		fw, err := sim.NewFileWriter(opts.LogFile, opts.LogFile+".alerts", opts.LogFile+".stats")
		if err != nil {
			closeAll()
			return nil, err
		}
		ws = append(ws, fw)
	}

	ws = append(ws, extra...)
	return sim.NewMultiWriter(ws...), nil
}

// networkWriters creates one sink per configured endpoint variable.
func networkWriters() ([]sim.TelemetryWriter, error) {
	var ws []sim.TelemetryWriter
	fail := func(err error) ([]sim.TelemetryWriter, error) {
		_ = sim.NewMultiWriter(ws...).Close()
		return nil, err
	}

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		w, err := sim.NewGreptimeDBWriter(endpoint, envOr("GREPTIMEDB_DATABASE", "public"))
		if err != nil {
			return fail(fmt.Errorf("greptimedb writer: %w", err))
		}
		ws = append(ws, w)
	}

	if brokers := splitList(os.Getenv("KAFKA_BROKERS")); len(brokers) > 0 {
		ws = append(ws, sim.NewKafkaWriter(brokers, sim.DefaultKafkaTopics(envOr("KAFKA_TOPIC_PREFIX", "wildwatch"))))
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		ttl := 10 * time.Minute
		if v := os.Getenv("REDIS_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fail(fmt.Errorf("invalid REDIS_TTL: %w", err))
			}
			ttl = d
		}
		ws = append(ws, sim.NewRedisWriter(addr, os.Getenv("REDIS_PASSWORD"), ttl))
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		w, err := sim.NewMQTTWriter(broker, envOr("MQTT_CLIENT_ID", "wildwatch-sim"), envOr("MQTT_TOPIC_PREFIX", "wildwatch"))
		if err != nil {
			return fail(fmt.Errorf("mqtt writer: %w", err))
		}
		ws = append(ws, w)
	}
	return ws, nil
}

// newTelemetryWriter creates the sink set used by replay.
func newTelemetryWriter(printOnly bool) (*sim.MultiWriter, error) {
	return newWriters(nil, writerOptions{PrintOnly: printOnly})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
