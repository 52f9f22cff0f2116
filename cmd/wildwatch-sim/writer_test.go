package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/metrics"
	"wildwatch-sim/internal/sim"
	"wildwatch-sim/internal/telemetry"
)

func clearSinkEnv(t *testing.T) {
	for _, k := range []string{"GREPTIMEDB_ENDPOINT", "KAFKA_BROKERS", "REDIS_ADDR", "MQTT_BROKER", "REDIS_TTL"} {
		t.Setenv(k, "")
	}
}

func TestNewWritersPrintOnly(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	mw, err := newWriters(nil, writerOptions{PrintOnly: true})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer mw.Close()
	ws := mw.Writers()
	if len(ws) != 1 {
		t.Fatalf("print-only should ignore network sinks, got %d writers", len(ws))
	}
	if _, ok := ws[0].(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter, got %T", ws[0])
	}
}

func TestNewWritersStdoutFallback(t *testing.T) {
	clearSinkEnv(t)
	mw, err := newWriters(nil, writerOptions{})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer mw.Close()
	if _, ok := mw.Writers()[0].(*sim.StdoutWriter); !ok {
		t.Fatalf("expected stdout fallback, got %T", mw.Writers()[0])
	}
}

func TestNewWritersNetworkSinks(t *testing.T) {
	clearSinkEnv(t)
	t.Setenv("GREPTIMEDB_ENDPOINT", "127.0.0.1:4001")
	t.Setenv("KAFKA_BROKERS", "127.0.0.1:9092, 127.0.0.2:9092")
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	t.Setenv("REDIS_TTL", "1m")

	mw, err := newWriters(nil, writerOptions{})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer mw.Close()
	ws := mw.Writers()
	if len(ws) != 3 {
		t.Fatalf("expected 3 writers, got %d", len(ws))
	}
	if _, ok := ws[0].(*sim.GreptimeDBWriter); !ok {
		t.Errorf("expected greptime writer first, got %T", ws[0])
	}
	if _, ok := ws[1].(*sim.KafkaWriter); !ok {
		t.Errorf("expected kafka writer, got %T", ws[1])
	}
	if _, ok := ws[2].(*sim.RedisWriter); !ok {
		t.Errorf("expected redis writer, got %T", ws[2])
	}
}

func TestNewWritersInvalidRedisTTL(t *testing.T) {
	clearSinkEnv(t)
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	t.Setenv("REDIS_TTL", "soon")
	if _, err := newWriters(nil, writerOptions{}); err == nil {
		t.Fatal("expected error for invalid REDIS_TTL")
	}
}

func TestNewWritersLogFileAndExtra(t *testing.T) {
	clearSinkEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.log")
	collector := metrics.NewCollector()

	mw, err := newWriters(nil, writerOptions{PrintOnly: true, LogFile: path}, collector)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	ws := mw.Writers()
	if len(ws) != 3 {
		t.Fatalf("expected stdout, file and metrics writers, got %d", len(ws))
	}
	if _, ok := ws[1].(*sim.FileWriter); !ok {
		t.Errorf("expected file writer, got %T", ws[1])
	}
	if ws[2] != collector {
		t.Errorf("extra writer should be appended last")
	}

	row := telemetry.EntityRow{EntityID: "e1", Timestamp: time.Now()}
	if err := mw.WriteBatch([]telemetry.EntityRow{row}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
	for _, suffix := range []string{".alerts", ".stats"} {
		if _, err := os.Stat(path + suffix); err != nil {
			t.Errorf("expected %s file: %v", suffix, err)
		}
	}
}

func TestApplyIntervalsEnv(t *testing.T) {
	cfg := config.Default()
	t.Setenv("TICK_INTERVAL", "2s")
	t.Setenv("EVAL_INTERVAL", "5s")
	if err := applyIntervals(cfg, nil); err != nil {
		t.Fatalf("applyIntervals: %v", err)
	}
	if cfg.Simulation.TickInterval != 2*time.Second || cfg.Monitoring.EvaluationInterval != 5*time.Second {
		t.Errorf("env overrides not applied: %v %v", cfg.Simulation.TickInterval, cfg.Monitoring.EvaluationInterval)
	}

	t.Setenv("TICK_INTERVAL", "fast")
	if err := applyIntervals(cfg, nil); err == nil {
		t.Error("expected error for invalid TICK_INTERVAL")
	}
}

func TestApplyIntervalsFlagsWin(t *testing.T) {
	cfg := config.Default()
	t.Setenv("TICK_INTERVAL", "2s")
	t.Setenv("EVAL_INTERVAL", "")
	cmd := simulateCmd
	if err := cmd.Flags().Set("tick", "750ms"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	t.Cleanup(func() {
		simTick = 30 * time.Second
		cmd.Flags().Lookup("tick").Changed = false
	})
	if err := applyIntervals(cfg, cmd); err != nil {
		t.Fatalf("applyIntervals: %v", err)
	}
	if cfg.Simulation.TickInterval != 750*time.Millisecond {
		t.Errorf("flag should override env, got %v", cfg.Simulation.TickInterval)
	}
}

func TestLoadConfigDefault(t *testing.T) {
	cfg, err := loadConfig("", "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if len(cfg.Entities) != 5 || len(cfg.Zones) != 3 {
		t.Errorf("unexpected built-in scenario: %d entities, %d zones", len(cfg.Entities), len(cfg.Zones))
	}
	if _, err := loadConfig("does-not-exist.yaml", ""); err == nil {
		t.Error("expected error for missing file")
	}
}
