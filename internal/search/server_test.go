package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	results []Result
	err     error
	queries []string
	limits  []int
}

func (p *stubProvider) Search(_ context.Context, query string, limit int) ([]Result, error) {
	p.queries = append(p.queries, query)
	p.limits = append(p.limits, limit)
	if p.err != nil {
		return nil, p.err
	}
	return p.results, nil
}

func TestSearch(t *testing.T) {
	p := &stubProvider{results: []Result{
		{VideoID: "dQw4w9WgXcQ", Title: "A Song", ChannelLabel: "Channel"},
	}}
	srv := NewServer(p, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/search?query=a+song&limit=5", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"a song"}, p.queries)
	require.Equal(t, []int{5}, p.limits)

	var resp struct {
		Items []Result `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "dQw4w9WgXcQ", resp.Items[0].VideoID)
}

func TestSearchRequiresQuery(t *testing.T) {
	srv := NewServer(&stubProvider{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchClampsLimit(t *testing.T) {
	p := &stubProvider{}
	srv := NewServer(p, nil, nil)

	// Out-of-range limits fall back to the default.
	req := httptest.NewRequest(http.MethodGet, "/search?query=x&limit=999", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []int{10}, p.limits)
}

func TestSearchSurfacesUpstreamError(t *testing.T) {
	p := &stubProvider{err: &UpstreamError{Status: 403, Body: `{"error":"quotaExceeded"}`}}
	srv := NewServer(p, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/search?query=x", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	// The provider's own error body comes through for the caller to inspect.
	assert.Contains(t, rec.Body.String(), "quotaExceeded")
}

func TestSearchGenericProviderError(t *testing.T) {
	p := &stubProvider{err: errors.New("dial tcp: timeout")}
	srv := NewServer(p, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/search?query=x", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestSearchRateLimit(t *testing.T) {
	p := &stubProvider{}
	srv := NewServer(p, nil, nil)

	limited := false
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/search?query=x", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst of 20 requests should trip the limiter")
}
