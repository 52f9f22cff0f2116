package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/metrics"
	"wildwatch-sim/internal/sim"
	"wildwatch-sim/internal/telemetry"
)

func newTestServer(t *testing.T) (*Server, *sim.Session) {
	t.Helper()
	cfg := config.Default()
	cfg.Simulation.TickInterval = 10 * time.Millisecond
	cfg.Monitoring.EvaluationInterval = 10 * time.Millisecond
	zero := 0.0
	cfg.Monitoring.IncidentProbability = &zero
	session := sim.NewSession(cfg, sim.SessionOptions{Seed: 3})
	t.Cleanup(session.Close)
	return NewServer(session, metrics.NewCollector()), session
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	s.Handler(slog.New(slog.NewTextHandler(io.Discard, nil))).ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestIndexRenders(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Village A") {
		t.Errorf("index should list zones")
	}
}

func TestEntitiesAndLookup(t *testing.T) {
	s, session := newTestServer(t)

	w := do(s, http.MethodGet, "/entities", "")
	var ents []telemetry.Entity
	if err := json.Unmarshal(w.Body.Bytes(), &ents); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ents) != len(session.Simulator.Snapshot()) {
		t.Fatalf("expected %d entities, got %d", len(session.Simulator.Snapshot()), len(ents))
	}

	w = do(s, http.MethodGet, "/entities/"+ents[0].ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("lookup failed: %d", w.Code)
	}
	w = do(s, http.MethodGet, "/entities/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown entity, got %d", w.Code)
	}
	w = do(s, http.MethodGet, "/tracks/"+ents[0].ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("track lookup failed: %d", w.Code)
	}
	w = do(s, http.MethodGet, "/tracks/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown track, got %d", w.Code)
	}
}

func TestAddEntity(t *testing.T) {
	s, session := newTestServer(t)
	before := len(session.Simulator.Snapshot())

	w := do(s, http.MethodPost, "/entities", `{"name":"Kali","species":"Leopard","position":{"lat":-1.3,"lon":36.8}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var e telemetry.Entity
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Name != "Kali" || !strings.HasPrefix(e.ID, "custom-") {
		t.Errorf("unexpected entity %+v", e)
	}

	w = do(s, http.MethodPost, "/entities", "")
	if w.Code != http.StatusCreated {
		t.Errorf("empty body should use defaults, got %d", w.Code)
	}
	if got := len(session.Simulator.Snapshot()); got != before+2 {
		t.Errorf("expected %d entities, got %d", before+2, got)
	}

	w = do(s, http.MethodPost, "/entities", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestAlertCommands(t *testing.T) {
	s, session := newTestServer(t)
	alerts := session.Engine.Alerts()
	if len(alerts) == 0 {
		t.Fatal("expected seeded alerts")
	}
	target := alerts[0]
	for _, a := range alerts {
		if !a.IsRead {
			target = a
			break
		}
	}
	id := itoa(target.ID)

	w := do(s, http.MethodGet, "/alerts/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("alert lookup failed: %d", w.Code)
	}

	w = do(s, http.MethodPost, "/alerts/"+id+"/read", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if a, _ := session.Engine.Alert(target.ID); !a.IsRead {
		t.Errorf("alert not marked read")
	}

	w = do(s, http.MethodPost, "/alerts/999999/read", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("unknown id should be a silent no-op, got %d", w.Code)
	}

	w = do(s, http.MethodPost, "/alerts/"+id+"/dismiss", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if a, _ := session.Engine.Alert(target.ID); a.IsActive {
		t.Errorf("alert not dismissed")
	}

	w = do(s, http.MethodPost, "/alerts/read-all", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if st := session.Engine.Stats(); st.Unread != 0 {
		t.Errorf("expected 0 unread, got %d", st.Unread)
	}

	w = do(s, http.MethodGet, "/alerts?unread=true", "")
	var unread []alert.Alert
	_ = json.Unmarshal(w.Body.Bytes(), &unread)
	if len(unread) != 0 {
		t.Errorf("expected no unread alerts, got %d", len(unread))
	}

	w = do(s, http.MethodGet, "/alerts/stats", "")
	var st alert.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.Total != len(alerts)-1 {
		t.Errorf("expected %d active alerts, got %d", len(alerts)-1, st.Total)
	}
}

func TestSimulationAndMonitoringCommands(t *testing.T) {
	s, session := newTestServer(t)

	w := do(s, http.MethodPost, "/simulation/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Changed bool       `json:"changed"`
		Status  sim.Status `json:"status"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Changed || !resp.Status.SimulationRunning {
		t.Errorf("simulation should have started: %+v", resp)
	}

	w = do(s, http.MethodPost, "/simulation/start", "")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Changed {
		t.Errorf("second start should not change anything")
	}

	do(s, http.MethodPost, "/monitoring/start", "")
	if !session.Engine.IsRunning() {
		t.Errorf("monitoring not running")
	}
	do(s, http.MethodPost, "/monitoring/stop", "")
	do(s, http.MethodPost, "/simulation/stop", "")
	if session.Engine.IsRunning() || session.Simulator.IsRunning() {
		t.Errorf("loops still running after stop")
	}

	w = do(s, http.MethodGet, "/status", "")
	var st sim.Status
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.SimulationRunning || st.MonitoringRunning {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodGet, "/alerts/read-all", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	do(s, http.MethodGet, "/health", "")
	w := do(s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `wildwatch_http_requests_total{route="/health",status="200"} 1`) {
		t.Errorf("request not counted:\n%s", w.Body.String())
	}
}

func TestParseStreams(t *testing.T) {
	if got := parseStreams(""); len(got) != 4 {
		t.Errorf("empty query should select all streams, got %v", got)
	}
	got := parseStreams("Alerts, bogus,alerts,stats")
	if strings.Join(got, ",") != "alerts,stats" {
		t.Errorf("unexpected streams %v", got)
	}
	if got := parseStreams("bogus"); len(got) != 0 {
		t.Errorf("expected none, got %v", got)
	}
}

func TestWebsocketStreams(t *testing.T) {
	s, session := newTestServer(t)
	ts := httptest.NewServer(s.Handler(slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?streams=entities,stats"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	seen := map[string]bool{}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(seen) < 2 {
		var env struct {
			Stream  string          `json:"stream"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read: %v", err)
		}
		if env.Stream != StreamEntities && env.Stream != StreamStats {
			t.Fatalf("unexpected stream %q", env.Stream)
		}
		seen[env.Stream] = true
	}

	session.AddEntity(sim.EntitySpec{Name: "Late"})
	for {
		var env struct {
			Stream  string             `json:"stream"`
			Payload []telemetry.Entity `json:"payload"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read: %v", err)
		}
		if env.Stream == StreamEntities && len(env.Payload) == len(session.Config.Entities)+1 {
			break
		}
	}
}

func TestStatusReportsConnections(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler(slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer ts.Close()

	status := func() statusResponse {
		t.Helper()
		w := do(s, http.MethodGet, "/status", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var st statusResponse
		if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return st
	}

	before := status()
	if before.WebsocketClients != 0 {
		t.Fatalf("expected no clients, got %d", before.WebsocketClients)
	}
	for _, name := range []string{"entities", "tracks", "alerts", "stats", "alerts.created"} {
		if _, ok := before.Streams[name]; !ok {
			t.Errorf("stream %q missing from status", name)
		}
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?streams=entities"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}

	during := status()
	if during.WebsocketClients != 1 {
		t.Errorf("expected 1 client, got %d", during.WebsocketClients)
	}
	if during.Streams["entities"] != before.Streams["entities"]+1 {
		t.Errorf("entities subscribers %d -> %d", before.Streams["entities"], during.Streams["entities"])
	}
	if during.Streams["tracks"] != before.Streams["tracks"] {
		t.Errorf("tracks subscribers changed: %d -> %d", before.Streams["tracks"], during.Streams["tracks"])
	}

	_ = conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for status().WebsocketClients != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client still registered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServeShutsDown(t *testing.T) {
	s, _ := newTestServer(t)
	listening := make(chan bool, 2)
	s.OnListening = func(on bool) { listening <- on }

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	if on := <-listening; !on {
		t.Fatal("expected listening=true first")
	}
	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if on := <-listening; on {
		t.Error("expected listening=false after shutdown")
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
