package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soiree-app/soiree/internal/playback"
)

func TestFeedDeliversPlaylistNotifications(t *testing.T) {
	upgrader := websocket.Upgrader{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ws", r.URL.Path)
		require.Equal(t, "ev1", r.URL.Query().Get("event"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		messages := []string{
			`{"type":"welcome","eventId":"ev1","payload":null}`,
			`{"type":"poll.vote_cast","eventId":"ev1","payload":{"pollId":"poll1"}}`,
			`{"type":"playlist.item_added","eventId":"ev1","payload":{"id":"it1","eventId":"ev1","videoId":"dQw4w9WgXcQ","title":"First"}}`,
			`{"type":"playlist.item_removed","eventId":"ev1","payload":{"itemId":"it1"}}`,
		}
		for _, m := range messages {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(m)))
		}
		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer backend.Close()

	feed, err := DialFeed(backend.URL, "ev1")
	require.NoError(t, err)
	defer feed.Close()

	// Non-playlist envelopes are filtered; only the two playlist changes
	// come through, in order.
	n := recvNotification(t, feed)
	assert.Equal(t, playback.KindInsert, n.Kind)
	require.NotNil(t, n.Item)
	assert.Equal(t, "it1", n.Item.ID)

	n = recvNotification(t, feed)
	assert.Equal(t, playback.KindDelete, n.Kind)
	assert.Equal(t, "it1", n.ItemID)
}

func TestFeedCloseEndsStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer backend.Close()

	feed, err := DialFeed(backend.URL, "ev1")
	require.NoError(t, err)

	require.NoError(t, feed.Close())
	require.NoError(t, feed.Close()) // idempotent

	select {
	case _, ok := <-feed.Notifications():
		assert.False(t, ok, "channel should be closed after Close")
	case <-time.After(2 * time.Second):
		t.Fatal("notification channel never closed")
	}
}

func recvNotification(t *testing.T, feed *FeedClient) playback.Notification {
	t.Helper()
	select {
	case n, ok := <-feed.Notifications():
		require.True(t, ok, "feed closed early")
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return playback.Notification{}
	}
}
