// Writer implementation printing telemetry to STDOUT
package sim

import (
	"os"

	"golang.org/x/term"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/telemetry"
)

// stdoutSink is what both stdout renderings implement.
type stdoutSink interface {
	TelemetryWriter
	batchWriter
	AlertWriter
	StatsWriter
}

// StdoutWriter renders colorized lines on a terminal and JSON lines otherwise.
type StdoutWriter struct {
	sink stdoutSink
}

// NewStdoutWriter inspects os.Stdout to pick a rendering.
func NewStdoutWriter(cfg *config.SimulationConfig) *StdoutWriter {
	return newStdoutWriter(cfg, term.IsTerminal(int(os.Stdout.Fd())))
}

func newStdoutWriter(cfg *config.SimulationConfig, colorize bool) *StdoutWriter {
	if colorize {
		return &StdoutWriter{sink: NewColorStdoutWriter(cfg)}
	}
	return &StdoutWriter{sink: NewJSONStdoutWriter()}
}

// Write outputs a single entity row.
func (w *StdoutWriter) Write(row telemetry.EntityRow) error { return w.sink.Write(row) }

// WriteBatch outputs multiple entity rows.
func (w *StdoutWriter) WriteBatch(rows []telemetry.EntityRow) error { return w.sink.WriteBatch(rows) }

// WriteAlert outputs a newly raised alert.
func (w *StdoutWriter) WriteAlert(a alert.Alert) error { return w.sink.WriteAlert(a) }

// WriteStats outputs an alert statistics snapshot.
func (w *StdoutWriter) WriteStats(s alert.Stats) error { return w.sink.WriteStats(s) }
