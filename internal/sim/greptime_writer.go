package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/logging"
	"wildwatch-sim/internal/telemetry"
)

const defaultGreptimePort = 4001

// greptimeClient is the part of the ingester client the writer uses.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes entity rows and alerts to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client     greptimeClient
	table      string
	alertTable string
	timeout    time.Duration
	log        *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
// Tables are created on first write.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptimedb client: %w", err)
	}
	return &GreptimeDBWriter{
		client:     client,
		table:      telemetry.TelemetryTableName,
		alertTable: alert.Alert{}.TableName(),
		timeout:    5 * time.Second,
		log:        logging.New().With("component", "greptimedb"),
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, p, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptimedb port %q: %w", p, err)
	}
	return host, port, nil
}

func (w *GreptimeDBWriter) logger() *slog.Logger {
	if w.log == nil {
		return slog.Default()
	}
	return w.log
}

func (w *GreptimeDBWriter) write(tbl *table.Table, name string, n int) error {
	timeout := w.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptimedb write %s: %w", name, err)
	}
	w.logger().Debug("rows written", "table", name, "rows", n)
	return nil
}

// Write inserts a single entity row.
func (w *GreptimeDBWriter) Write(row telemetry.EntityRow) error {
	return w.WriteBatch([]telemetry.EntityRow{row})
}

// WriteBatch inserts multiple entity rows in one request.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.EntityRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	columns := []struct {
		name string
		typ  types.ColumnType
		tag  bool
	}{
		{"entity_id", types.STRING, true},
		{"collar_id", types.STRING, true},
		{"species", types.STRING, true},
		{"name", types.STRING, false},
		{"lat", types.FLOAT64, false},
		{"lon", types.FLOAT64, false},
		{"battery", types.FLOAT64, false},
		{"speed_kmh", types.FLOAT64, false},
		{"heading", types.FLOAT64, false},
		{"health", types.STRING, false},
		{"active", types.BOOLEAN, false},
	}
	for _, c := range columns {
		if c.tag {
			err = tbl.AddTagColumn(c.name, c.typ)
		} else {
			err = tbl.AddFieldColumn(c.name, c.typ)
		}
		if err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, r := range rows {
		if err := tbl.AddRow(r.EntityID, r.CollarID, r.Species, r.Name, r.Lat, r.Lon,
			r.Battery, r.SpeedKmh, r.HeadingDeg, r.Health, r.Active, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, w.table, len(rows))
}

// WriteAlert inserts one alert.
func (w *GreptimeDBWriter) WriteAlert(a alert.Alert) error {
	return w.WriteAlerts([]alert.Alert{a})
}

// WriteAlerts inserts alerts; metadata is stored as a JSON column.
func (w *GreptimeDBWriter) WriteAlerts(alerts []alert.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	tbl, err := table.New(w.alertTable)
	if err != nil {
		return err
	}
	for _, name := range []string{"alert_id", "type", "priority"} {
		if err := tbl.AddTagColumn(name, types.STRING); err != nil {
			return err
		}
	}
	fields := []struct {
		name string
		typ  types.ColumnType
	}{
		{"title", types.STRING},
		{"message", types.STRING},
		{"animal_id", types.STRING},
		{"zone_id", types.STRING},
		{"lat", types.FLOAT64},
		{"lon", types.FLOAT64},
		{"source", types.STRING},
		{"metadata", types.JSON},
	}
	for _, f := range fields {
		if err := tbl.AddFieldColumn(f.name, f.typ); err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, a := range alerts {
		meta, err := json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("marshal alert %d metadata: %w", a.ID, err)
		}
		if err := tbl.AddRow(strconv.FormatInt(a.ID, 10), string(a.Type), string(a.Priority),
			a.Title, a.Message, a.AnimalID, a.ZoneID, a.Location.Lat, a.Location.Lon,
			string(a.Source), string(meta), a.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, w.alertTable, len(alerts))
}
