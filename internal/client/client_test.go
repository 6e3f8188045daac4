package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinEventRemembersParticipant(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/events/join", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
          "event": {"id": "ev1", "name": "Birthday Bash"},
          "participant": {"id": "p7", "name": "Player"}
        }`))
	}))
	defer backend.Close()

	c := New(backend.URL)
	res, err := c.JoinEvent(context.Background(), "ABC234", "Player")
	require.NoError(t, err)

	assert.Equal(t, "ev1", res.Event.ID)
	assert.Equal(t, "p7", c.ParticipantID)
}

func TestJoinEventSurfacesAPIError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no event with that access code"}`))
	}))
	defer backend.Close()

	c := New(backend.URL)
	_, err := c.JoinEvent(context.Background(), "ZZZZZZ", "Player")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no event with that access code")
}

func TestListItemsSendsParticipantHeader(t *testing.T) {
	var gotHeader string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events/ev1/playlist", r.URL.Path)
		gotHeader = r.Header.Get("X-Participant-Id")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
          {"id":"it1","eventId":"ev1","videoId":"dQw4w9WgXcQ","title":"First"},
          {"id":"it2","eventId":"ev1","videoId":"kJQP7kiw5Fk","title":"Second"}
        ]}`))
	}))
	defer backend.Close()

	c := New(backend.URL)
	c.ParticipantID = "p7"

	items, err := c.ListItems(context.Background(), "ev1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p7", gotHeader)
	assert.Equal(t, "it1", items[0].ID)
}

func TestAddItem(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "p7", r.Header.Get("X-Participant-Id"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"it9","eventId":"ev1","videoId":"dQw4w9WgXcQ","title":"A Song","addedBy":"p7"}`))
	}))
	defer backend.Close()

	c := New(backend.URL)
	c.ParticipantID = "p7"

	it, err := c.AddItem(context.Background(), "ev1", "dQw4w9WgXcQ", "A Song", "Channel")
	require.NoError(t, err)
	assert.Equal(t, "it9", it.ID)
	assert.Equal(t, "p7", it.AddedBy)
}
