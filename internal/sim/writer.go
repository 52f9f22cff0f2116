package sim

import (
	"log/slog"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.EntityRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.EntityRow) error
}

// AlertWriter receives each newly raised alert.
type AlertWriter interface {
	WriteAlert(alert.Alert) error
}

// StatsWriter receives every recomputed alert statistics snapshot.
type StatsWriter interface {
	WriteStats(alert.Stats) error
}

// AdminStatusWriter allows writers to receive admin UI status updates.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

// writeRows uses batch mode when the writer supports it.
func writeRows(log *slog.Logger, w TelemetryWriter, rows []telemetry.EntityRow) {
	if bw, ok := w.(batchWriter); ok {
		if err := bw.WriteBatch(rows); err != nil {
			log.Error("batch write failed", "rows", len(rows), "err", err)
		}
		return
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			log.Error("write failed", "entity_id", row.EntityID, "err", err)
		}
	}
}

// Controller is the command surface interactive writers drive.
type Controller interface {
	ToggleSimulation() bool
	ToggleMonitoring() bool
	MarkAllAsRead()
	AddEntity(EntitySpec) telemetry.Entity
	Status() Status
}

type controllable interface {
	SetController(Controller)
}
