package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the soiree backend.
type Metrics struct {
	registry              *prometheus.Registry
	requestsTotal         prometheus.Counter
	errorsTotal           prometheus.Counter
	playlistMutationsTotal prometheus.Counter
	votesCastTotal        prometheus.Counter
	searchRequestsTotal   prometheus.Counter
	wsClients             prometheus.Gauge
}

// New creates and registers the backend collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soiree_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soiree_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	playlistMutationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soiree_playlist_mutations_total",
		Help: "Total number of playlist item inserts and deletes",
	})
	votesCastTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soiree_poll_votes_total",
		Help: "Total number of poll votes cast",
	})
	searchRequestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soiree_search_requests_total",
		Help: "Total number of video search proxy requests",
	})
	wsClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "soiree_ws_clients",
		Help: "Number of currently connected realtime websocket clients",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		playlistMutationsTotal,
		votesCastTotal,
		searchRequestsTotal,
		wsClients,
	)

	return &Metrics{
		registry:              registry,
		requestsTotal:         requestsTotal,
		errorsTotal:           errorsTotal,
		playlistMutationsTotal: playlistMutationsTotal,
		votesCastTotal:        votesCastTotal,
		searchRequestsTotal:   searchRequestsTotal,
		wsClients:             wsClients,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() { m.requestsTotal.Inc() }

// IncErrors increments the error response counter.
func (m *Metrics) IncErrors() { m.errorsTotal.Inc() }

// IncPlaylistMutations increments the playlist mutation counter.
func (m *Metrics) IncPlaylistMutations() { m.playlistMutationsTotal.Inc() }

// IncVotesCast increments the poll vote counter.
func (m *Metrics) IncVotesCast() { m.votesCastTotal.Inc() }

// IncSearchRequests increments the search proxy counter.
func (m *Metrics) IncSearchRequests() { m.searchRequestsTotal.Inc() }

// AddWSClients adjusts the connected websocket client gauge.
func (m *Metrics) AddWSClients(delta int) { m.wsClients.Add(float64(delta)) }

// Handler returns an http.Handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
