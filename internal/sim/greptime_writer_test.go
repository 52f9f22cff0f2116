package sim

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/telemetry"
)

type mockGreptimeClient struct {
	table *table.Table
	calls int
	err   error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.calls++
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, m.err
}

func TestGreptimeWriterEntityRows(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	rows := []telemetry.EntityRow{
		{EntityID: "e1", CollarID: "C1", Species: "Lion", Name: "Simba", Lat: 1, Lon: 2, Battery: 50, Active: true, Timestamp: ts},
		{EntityID: "e2", CollarID: "C2", Species: "Rhino", Battery: -1, Timestamp: ts},
	}
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "wildlife_telemetry"}

	if err := w.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if m.calls != 1 {
		t.Fatalf("expected one write call, got %d", m.calls)
	}
	got := m.table.GetRows()
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if got.Schema[0].SemanticType != gpb.SemanticType_TAG {
		t.Errorf("entity_id should be a tag, got %v", got.Schema[0].SemanticType)
	}
	if v := got.Rows[0].Values[0].GetStringValue(); v != "e1" {
		t.Errorf("entity_id = %q, want e1", v)
	}
	if v := got.Rows[1].Values[6].GetF64Value(); v != -1 {
		t.Errorf("battery = %v, want -1", v)
	}
}

func TestGreptimeWriterAlertMetadataJSON(t *testing.T) {
	a := alert.Alert{
		ID:        12,
		Type:      alert.TypeAnimalNearVillage,
		Priority:  alert.PriorityHigh,
		Title:     "Near village",
		Timestamp: time.Unix(0, 0).UTC(),
		Metadata:  map[string]any{"distance_km": 0.5},
	}
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, alertTable: "wildlife_alerts"}

	if err := w.WriteAlert(a); err != nil {
		t.Fatalf("WriteAlert: %v", err)
	}
	schema := m.table.GetRows().Schema
	if schema[10].Datatype != gpb.ColumnDataType_JSON {
		t.Fatalf("metadata column type = %v, want %v", schema[10].Datatype, gpb.ColumnDataType_JSON)
	}
	row := m.table.GetRows().Rows[0]
	if got := row.Values[0].GetStringValue(); got != "12" {
		t.Errorf("alert_id = %q, want 12", got)
	}
	if got, want := row.Values[10].GetStringValue(), `{"distance_km":0.5}`; got != want {
		t.Errorf("metadata = %s, want %s", got, want)
	}
}

func TestGreptimeWriterPropagatesErrors(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := &GreptimeDBWriter{client: m, table: "t"}
	err := w.Write(telemetry.EntityRow{EntityID: "e1", Timestamp: time.Now()})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, m.err) || !strings.Contains(err.Error(), "greptimedb write t:") {
		t.Errorf("error should wrap the client error and name the table, got %v", err)
	}
	w.alertTable = "alerts_t"
	err = w.WriteAlert(alert.Alert{ID: 1, Timestamp: time.Now()})
	if err == nil || !strings.Contains(err.Error(), "greptimedb write alerts_t:") {
		t.Errorf("alert error should name the alert table, got %v", err)
	}
	if err := w.WriteBatch(nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
}

func TestSplitEndpoint(t *testing.T) {
	host, port, err := splitEndpoint("db.local:4010")
	if err != nil || host != "db.local" || port != 4010 {
		t.Fatalf("got %s %d %v", host, port, err)
	}
	host, port, err = splitEndpoint("db.local")
	if err != nil || host != "db.local" || port != defaultGreptimePort {
		t.Fatalf("got %s %d %v", host, port, err)
	}
	if _, _, err := splitEndpoint("db.local:abc"); err == nil {
		t.Fatal("expected error for bad port")
	}
}
