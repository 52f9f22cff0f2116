package admin

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wildwatch-sim/internal/logging"
	"wildwatch-sim/internal/pubsub"
)

// Stream names accepted by /ws?streams=.
const (
	StreamEntities = "entities"
	StreamTracks   = "tracks"
	StreamAlerts   = "alerts"
	StreamStats    = "stats"
)

var allStreams = []string{StreamEntities, StreamTracks, StreamAlerts, StreamStats}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Envelope wraps every value pushed to a websocket client.
type Envelope struct {
	Stream  string    `json:"stream"`
	TS      time.Time `json:"ts"`
	Payload any       `json:"payload"`
}

// Hub tracks connected websocket clients so they can be closed on shutdown.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*websocket.Conn
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*websocket.Conn)}
}

func (h *Hub) add(conn *websocket.Conn) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return "", false
	}
	id := uuid.NewString()
	h.clients[id] = conn
	return id, true
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = c.Close()
		delete(h.clients, id)
	}
}

// parseStreams returns the requested streams, all of them when none are
// named. Unknown names are ignored.
func parseStreams(q string) []string {
	if strings.TrimSpace(q) == "" {
		return allStreams
	}
	seen := map[string]bool{}
	var out []string
	for _, name := range strings.Split(q, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			continue
		}
		for _, known := range allStreams {
			if name == known {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	streams := parseStreams(r.URL.Query().Get("streams"))
	if len(streams) == 0 {
		writeError(w, http.StatusBadRequest, "no known streams requested")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied.
		return
	}
	id, ok := s.hub.add(conn)
	if !ok {
		_ = conn.Close()
		return
	}
	log := logging.FromContext(r.Context()).With("client", id)
	log.Info("websocket client connected", "streams", strings.Join(streams, ","))

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Envelope, 64)
	var wg sync.WaitGroup
	for _, name := range streams {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s.pumpStream(ctx, name, out)
		}(name)
	}

	go func() {
		readLoop(conn)
		cancel()
	}()
	writeLoop(ctx, conn, out)
	cancel()
	wg.Wait()
	_ = conn.Close()
	s.hub.remove(id)
	log.Info("websocket client disconnected")
}

func (s *Server) pumpStream(ctx context.Context, name string, out chan<- Envelope) {
	switch name {
	case StreamEntities:
		pump(ctx, s.Session.Simulator.EntitiesTopic(), name, out)
	case StreamTracks:
		pump(ctx, s.Session.Simulator.TracksTopic(), name, out)
	case StreamAlerts:
		pump(ctx, s.Session.Engine.AlertsTopic(), name, out)
	case StreamStats:
		pump(ctx, s.Session.Engine.StatsTopic(), name, out)
	}
}

func pump[T any](ctx context.Context, t *pubsub.Topic[T], name string, out chan<- Envelope) {
	sub := t.Subscribe()
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-sub.C():
			if !ok {
				return
			}
			select {
			case out <- Envelope{Stream: name, TS: time.Now().UTC(), Payload: v}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// readLoop discards client messages and returns when the connection drops.
func readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan Envelope) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
