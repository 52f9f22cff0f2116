package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/logging"
	"wildwatch-sim/internal/metrics"
	"wildwatch-sim/internal/sim"
	"wildwatch-sim/internal/zone"
)

//go:embed templates/index.html
var content embed.FS

// Server exposes the session over HTTP.
type Server struct {
	Session *sim.Session
	Metrics *metrics.Collector
	// OnListening is told when the listener opens and closes.
	OnListening func(bool)

	tpl    *template.Template
	hub    *Hub
	router *mux.Router
}

// NewServer builds the router. m may be nil, which disables /metrics and
// request instrumentation.
func NewServer(s *sim.Session, m *metrics.Collector) *Server {
	srv := &Server{
		Session: s,
		Metrics: m,
		tpl:     template.Must(template.New("index.html").ParseFS(content, "templates/index.html")),
		hub:     NewHub(),
		router:  mux.NewRouter(),
	}
	srv.routes()
	return srv
}

func (s *Server) handle(path string, fn http.HandlerFunc, methods ...string) {
	var h http.Handler = fn
	if s.Metrics != nil {
		h = s.Metrics.WrapHandler(path, h)
	}
	s.router.Handle(path, h).Methods(methods...)
}

func (s *Server) routes() {
	s.handle("/", s.handleIndex, http.MethodGet)
	s.handle("/health", s.handleHealth, http.MethodGet)
	s.handle("/status", s.handleStatus, http.MethodGet)

	s.handle("/entities", s.handleEntities, http.MethodGet)
	s.handle("/entities", s.handleAddEntity, http.MethodPost)
	s.handle("/entities/{id}", s.handleEntity, http.MethodGet)
	s.handle("/tracks", s.handleTracks, http.MethodGet)
	s.handle("/tracks/{id}", s.handleTrack, http.MethodGet)

	s.handle("/zones", s.handleZones, http.MethodGet)
	s.handle("/zones/stats", s.handleZoneStats, http.MethodGet)

	s.handle("/alerts", s.handleAlerts, http.MethodGet)
	s.handle("/alerts/stats", s.handleAlertStats, http.MethodGet)
	s.handle("/alerts/read-all", s.handleReadAll, http.MethodPost)
	s.handle("/alerts/{id:[0-9]+}", s.handleAlert, http.MethodGet)
	s.handle("/alerts/{id:[0-9]+}/read", s.handleMarkRead, http.MethodPost)
	s.handle("/alerts/{id:[0-9]+}/dismiss", s.handleDismiss, http.MethodPost)

	s.handle("/simulation/start", s.command(s.Session.StartSimulation), http.MethodPost)
	s.handle("/simulation/stop", s.command(s.Session.StopSimulation), http.MethodPost)
	s.handle("/monitoring/start", s.command(s.Session.StartMonitoring), http.MethodPost)
	s.handle("/monitoring/stop", s.command(s.Session.StopMonitoring), http.MethodPost)

	s.router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	if s.Metrics != nil {
		s.router.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)
	}
}

// Handler returns the router wrapped with CORS and an access log.
func (s *Server) Handler(log *slog.Logger) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.CombinedLoggingHandler(accessLog{log}, cors(s.router))
}

// Start listens on addr and serves until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("admin listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logging.FromContext(ctx)
	hs := &http.Server{
		Handler:           s.Handler(log),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.listening(true)
	defer s.listening(false)
	log.Info("admin API listening", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()

	select {
	case err := <-errc:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin serve: %w", err)
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin shutdown: %w", err)
	}
	return nil
}

func (s *Server) listening(on bool) {
	if s.OnListening != nil {
		s.OnListening(on)
	}
}

type accessLog struct{ log *slog.Logger }

func (a accessLog) Write(p []byte) (int, error) {
	a.log.Debug("http", "access", strings.TrimSpace(string(p)))
	return len(p), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Status sim.Status
		Stats  alert.Stats
		Zones  []zone.Zone
		Alerts []alert.Alert
	}{
		Status: s.Session.Status(),
		Stats:  s.Session.Engine.Stats(),
		Zones:  s.Session.Zones.Zones(),
		Alerts: s.Session.Engine.Alerts(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	sim.Status
	WebsocketClients int `json:"websocket_clients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: s.Session.Status(), WebsocketClients: s.hub.Len()})
}

func (s *Server) handleEntities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Simulator.Snapshot())
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e, ok := s.Session.Simulator.Entity(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity "+id)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleAddEntity(w http.ResponseWriter, r *http.Request) {
	var spec sim.EntitySpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid entity: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.Session.AddEntity(spec))
}

func (s *Server) handleTracks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Simulator.TracksSnapshot())
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, ok := s.Session.Simulator.Track(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity "+id)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleZones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Zones.Zones())
}

func (s *Server) handleZoneStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Zones.Stats())
}

// handleAlerts lists alerts newest first. ?unread=true keeps unread only.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.Session.Engine.Alerts()
	if unread, _ := strconv.ParseBool(r.URL.Query().Get("unread")); unread {
		filtered := alerts[:0]
		for _, a := range alerts {
			if !a.IsRead {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleAlertStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Engine.Stats())
}

func alertID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}
	a, found := s.Session.Engine.Alert(id)
	if !found {
		writeError(w, http.StatusNotFound, "unknown alert")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Commands on unknown ids are silent no-ops and still answer 204.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if id, ok := alertID(w, r); ok {
		s.Session.Engine.MarkAsRead(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if id, ok := alertID(w, r); ok {
		s.Session.Engine.Dismiss(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleReadAll(w http.ResponseWriter, _ *http.Request) {
	s.Session.MarkAllAsRead()
	w.WriteHeader(http.StatusNoContent)
}

// command runs a start/stop operation and answers with the new status.
func (s *Server) command(fn func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		changed := fn()
		writeJSON(w, http.StatusOK, struct {
			Changed bool       `json:"changed"`
			Status  sim.Status `json:"status"`
		}{changed, s.Session.Status()})
	}
}
