package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYouTubeClientSearch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/videos" {
			assert.Equal(t, "contentDetails", r.URL.Query().Get("part"))
			assert.Equal(t, "dQw4w9WgXcQ,kJQP7kiw5Fk", r.URL.Query().Get("id"))
			w.Write([]byte(`{
          "items": [
            {"id": "dQw4w9WgXcQ", "contentDetails": {"duration": "PT3M33S"}},
            {"id": "kJQP7kiw5Fk", "contentDetails": {"duration": "PT1H2M3S"}}
          ]
        }`))
			return
		}

		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		assert.Equal(t, "video", r.URL.Query().Get("type"))
		assert.Equal(t, "lofi beats", r.URL.Query().Get("q"))
		w.Write([]byte(`{
          "items": [
            {
              "id": {"videoId": "dQw4w9WgXcQ"},
              "snippet": {
                "title": "First",
                "channelTitle": "Channel A",
                "thumbnails": {
                  "default": {"url": "http://img/default.jpg"},
                  "medium": {"url": "http://img/medium.jpg"},
                  "high": {"url": "http://img/high.jpg"}
                }
              }
            },
            {
              "id": {"videoId": "kJQP7kiw5Fk"},
              "snippet": {
                "title": "Second",
                "channelTitle": "Channel B",
                "thumbnails": {
                  "default": {"url": "http://img/default.jpg"}
                }
              }
            }
          ]
        }`))
	}))
	defer upstream.Close()

	c := NewYouTubeClient("test-key", upstream.URL)
	results, err := c.Search(context.Background(), "lofi beats", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Highest resolution wins; missing sizes fall back.
	assert.Equal(t, "http://img/high.jpg", results[0].ThumbnailURL)
	assert.Equal(t, "http://img/default.jpg", results[1].ThumbnailURL)
	assert.Equal(t, "Channel A", results[0].ChannelLabel)

	assert.Equal(t, 3*60+33, results[0].DurationSeconds)
	assert.Equal(t, 3600+2*60+3, results[1].DurationSeconds)
}

func TestParseISO8601Duration(t *testing.T) {
	cases := map[string]int{
		"PT3M33S":  213,
		"PT1H2M3S": 3723,
		"PT45S":    45,
		"PT2H":     7200,
		"P0D":      0,
		"":         0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseISO8601Duration(in), in)
	}
}

func TestYouTubeClientUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"quotaExceeded"}}`))
	}))
	defer upstream.Close()

	c := NewYouTubeClient("test-key", upstream.URL)
	_, err := c.Search(context.Background(), "anything", 10)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusForbidden, ue.Status)
	assert.Contains(t, ue.Body, "quotaExceeded")
}
