package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

// JSONStdoutWriter prints entity rows, alerts and stats as JSON lines.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

type jsonEvent struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

func (w *JSONStdoutWriter) emit(kind string, v any) error {
	data, err := json.Marshal(jsonEvent{Kind: kind, Data: v})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// Write outputs an entity row.
func (w *JSONStdoutWriter) Write(row telemetry.EntityRow) error {
	return w.emit("entity", row)
}

// WriteBatch outputs multiple entity rows.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.EntityRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlert outputs a newly raised alert.
func (w *JSONStdoutWriter) WriteAlert(a alert.Alert) error {
	return w.emit("alert", a)
}

// WriteStats outputs an alert statistics snapshot.
func (w *JSONStdoutWriter) WriteStats(s alert.Stats) error {
	return w.emit("stats", s)
}
