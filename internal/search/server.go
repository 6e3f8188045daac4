package search

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/soiree-app/soiree/internal/platform/httpx"
	"github.com/soiree-app/soiree/internal/platform/metrics"
)

// Provider is the upstream video search contract.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

const cacheTTL = 10 * time.Minute

type Server struct {
	provider Provider
	rdb      *redis.Client
	limiter  *rate.Limiter
	met      *metrics.Metrics
}

// NewServer wraps a Provider with a redis response cache and a per-process
// rate limiter. The limiter protects the upstream API quota, not the
// handler: requests over the limit get 429 instead of burning quota.
func NewServer(p Provider, rdb *redis.Client, met *metrics.Metrics) *Server {
	return &Server{
		provider: p,
		rdb:      rdb,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 5),
		met:      met,
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	s.Routes(r)

	return r
}

// Routes registers the search endpoint on an existing router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/search", s.handleSearch)
}

// handleSearch proxies a video search, serving cached results when fresh.
// GET /search?query=...&limit=...
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := strings.TrimSpace(r.URL.Query().Get("query"))
	if q == "" {
		httpx.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(q) > 200 {
		httpx.WriteError(w, http.StatusBadRequest, "query is too long")
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= 25 {
			limit = v
		}
	}

	if s.met != nil {
		s.met.IncSearchRequests()
	}

	cacheKey := "search:" + strconv.Itoa(limit) + ":" + strings.ToLower(q)
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var cached []Result
			if json.Unmarshal([]byte(raw), &cached) == nil {
				httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": cached, "cached": true})
				return
			}
		}
	}

	if !s.limiter.Allow() {
		httpx.WriteError(w, http.StatusTooManyRequests, "search rate limit exceeded, try again shortly")
		return
	}

	items, err := s.provider.Search(ctx, q, limit)
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) {
			// Surface the provider failure verbatim.
			httpx.WriteError(w, http.StatusBadGateway, ue.Error())
			return
		}
		log.Printf("search: provider: %v", err)
		httpx.WriteError(w, http.StatusBadGateway, "failed to query provider")
		return
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, string(raw), cacheTTL).Err(); err != nil {
				log.Printf("search: cache set: %v", err)
			}
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}
