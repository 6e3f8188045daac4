package event

import (
	"crypto/rand"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soiree-app/soiree/internal/broadcast"
	"github.com/soiree-app/soiree/internal/store"
)

type Server struct {
	db  store.DB
	pub *broadcast.Publisher
}

func NewServer(db store.DB, pub *broadcast.Publisher) *Server {
	return &Server{db: db, pub: pub}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	s.Routes(r)

	return r
}

// Routes registers the event endpoints on an existing router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/events", s.handleCreateEvent)
	r.Post("/events/join", s.handleJoinEvent)
	r.Get("/events/{id}", s.handleGetEvent)
	r.Get("/events/{id}/participants", s.handleListParticipants)
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newAccessCode returns a 6-character share code. The alphabet skips easily
// confused glyphs (0/O, 1/I).
func newAccessCode() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf)
}
