package expense

import (
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

// Routes registers the expense endpoints on an existing router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/events/{id}/expenses", s.handleListExpenses)
	r.Post("/events/{id}/expenses", s.handleAddExpense)
	r.Get("/events/{id}/expenses/balances", s.handleBalances)
}
