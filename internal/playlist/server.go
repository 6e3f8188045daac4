package playlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soiree-app/soiree/internal/broadcast"
	"github.com/soiree-app/soiree/internal/platform/metrics"
	"github.com/soiree-app/soiree/internal/store"
)

type Server struct {
	db  store.DB
	pub *broadcast.Publisher
	met *metrics.Metrics
}

func NewServer(db store.DB, pub *broadcast.Publisher, met *metrics.Metrics) *Server {
	return &Server{db: db, pub: pub, met: met}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	s.Routes(r)

	return r
}

// Routes registers the playlist endpoints on an existing router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/events/{id}/playlist", s.handleListItems)
	r.Post("/events/{id}/playlist", s.handleAddItem)
	r.Delete("/events/{id}/playlist/{itemID}", s.handleDeleteItem)
}

func (s *Server) incMutations() {
	if s.met != nil {
		s.met.IncPlaylistMutations()
	}
}
