package sim

import (
	"errors"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

// MultiWriter fans entity rows, alerts and stats out to several sinks. Sinks
// that lack the alert or stats methods are skipped for those.
type MultiWriter struct {
	writers []TelemetryWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...TelemetryWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Writers returns the wrapped sinks.
func (mw *MultiWriter) Writers() []TelemetryWriter { return mw.writers }

// Write sends a row to all writers. Every writer is tried; errors are joined.
func (mw *MultiWriter) Write(row telemetry.EntityRow) error {
	var errs []error
	for _, w := range mw.writers {
		errs = append(errs, w.Write(row))
	}
	return errors.Join(errs...)
}

// WriteBatch sends rows to all writers, using batch mode where supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.EntityRow) error {
	var errs []error
	for _, w := range mw.writers {
		if bw, ok := w.(batchWriter); ok {
			errs = append(errs, bw.WriteBatch(rows))
			continue
		}
		for _, r := range rows {
			errs = append(errs, w.Write(r))
		}
	}
	return errors.Join(errs...)
}

// WriteAlert sends an alert to every alert-capable writer.
func (mw *MultiWriter) WriteAlert(a alert.Alert) error {
	var errs []error
	for _, w := range mw.writers {
		if aw, ok := w.(AlertWriter); ok {
			errs = append(errs, aw.WriteAlert(a))
		}
	}
	return errors.Join(errs...)
}

// WriteStats sends stats to every stats-capable writer.
func (mw *MultiWriter) WriteStats(s alert.Stats) error {
	var errs []error
	for _, w := range mw.writers {
		if sw, ok := w.(StatsWriter); ok {
			errs = append(errs, sw.WriteStats(s))
		}
	}
	return errors.Join(errs...)
}

// SetAdminStatus forwards the admin listener state to writers that show it.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.writers {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	}
}

// SetController forwards the session command surface to interactive writers.
func (mw *MultiWriter) SetController(c Controller) {
	for _, w := range mw.writers {
		if cw, ok := w.(controllable); ok {
			cw.SetController(c)
		}
	}
}

// Close closes every writer that holds resources.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
