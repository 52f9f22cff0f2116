package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var out [][]byte
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, append([]byte(nil), sc.Bytes()...))
	}
	return out
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	tele := filepath.Join(dir, "telemetry.jsonl")
	alerts := filepath.Join(dir, "alerts.jsonl")
	stats := filepath.Join(dir, "stats.jsonl")

	fw, err := NewFileWriter(tele, alerts, stats)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	row := telemetry.EntityRow{EntityID: "e1", Species: "Lion", Lat: 1, Lon: 2, Battery: 50, Timestamp: ts}
	if err := fw.WriteBatch([]telemetry.EntityRow{row, row}); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	if err := fw.WriteAlert(alert.Alert{ID: 7, Type: alert.TypeFenceBreach, Timestamp: ts}); err != nil {
		t.Fatalf("write alert: %v", err)
	}
	if err := fw.WriteStats(alert.Stats{Total: 4, Unread: 2}); err != nil {
		t.Fatalf("write stats: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := readLines(t, tele)
	if len(lines) != 2 {
		t.Fatalf("expected 2 telemetry lines, got %d", len(lines))
	}
	var got telemetry.EntityRow
	if err := json.Unmarshal(lines[0], &got); err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if got.EntityID != "e1" || got.Battery != 50 || !got.Timestamp.Equal(ts) {
		t.Fatalf("unexpected row: %#v", got)
	}

	var a alert.Alert
	if err := json.Unmarshal(readLines(t, alerts)[0], &a); err != nil || a.ID != 7 {
		t.Fatalf("unexpected alert: %#v (%v)", a, err)
	}
	var s alert.Stats
	if err := json.Unmarshal(readLines(t, stats)[0], &s); err != nil || s.Total != 4 {
		t.Fatalf("unexpected stats: %#v (%v)", s, err)
	}
}

func TestFileWriterOptionalLogs(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(filepath.Join(dir, "t.jsonl"), "", "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteAlert(alert.Alert{ID: 1}); err != nil {
		t.Errorf("disabled alert log should be a no-op: %v", err)
	}
	if err := fw.WriteStats(alert.Stats{}); err != nil {
		t.Errorf("disabled stats log should be a no-op: %v", err)
	}
}

func TestFileWriterBadPath(t *testing.T) {
	if _, err := NewFileWriter(filepath.Join(t.TempDir(), "missing", "t.jsonl"), "", ""); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
