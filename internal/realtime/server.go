package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/soiree-app/soiree/internal/broadcast"
	"github.com/soiree-app/soiree/internal/platform/httpx"
	"github.com/soiree-app/soiree/internal/platform/metrics"
)

var upgrader = websocket.Upgrader{
	// Origin enforcement happens at the reverse proxy in front of the service.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Server struct {
	hub *Hub
	rdb *redis.Client
	met *metrics.Metrics
}

func NewServer(hub *Hub, rdb *redis.Client, met *metrics.Metrics) *Server {
	return &Server{hub: hub, rdb: rdb, met: met}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	s.Routes(r)

	return r
}

// Routes registers the websocket endpoint on an existing router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/ws", s.handleWS)
}

// RunRedisSubscriber consumes the broadcast channel and routes envelopes to
// the matching event room. Returns when ctx is cancelled.
func (s *Server) RunRedisSubscriber(ctx context.Context) {
	sub := s.rdb.Subscribe(ctx, broadcast.Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env broadcast.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("realtime: bad envelope: %v", err)
				continue
			}
			if env.EventID == "" {
				log.Printf("realtime: envelope without event id, type %q", env.Type)
				continue
			}
			s.hub.Broadcast(env.EventID, []byte(msg.Payload))
		}
	}
}

// handleWS upgrades to a websocket subscription scoped to one event.
// GET /ws?event={eventID}
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event")
	if eventID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "event query parameter is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: ws upgrade: %v", err)
		return
	}

	client := &Client{
		hub:     s.hub,
		conn:    conn,
		eventID: eventID,
		send:    make(chan []byte, 256),
	}
	s.hub.register <- client
	if s.met != nil {
		s.met.AddWSClients(1)
	}

	welcome := map[string]any{
		"type":    "welcome",
		"eventId": eventID,
		"now":     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.Marshal(welcome); err == nil {
		client.send <- b
	}

	go client.writePump()
	go func() {
		client.readPump()
		if s.met != nil {
			s.met.AddWSClients(-1)
		}
	}()
}
