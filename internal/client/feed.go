package client

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/soiree-app/soiree/internal/broadcast"
	"github.com/soiree-app/soiree/internal/playback"
)

// FeedClient subscribes to the backend's realtime websocket for one event
// and turns playlist envelopes into playback notifications. Satisfies
// playback.Feed.
type FeedClient struct {
	conn          *websocket.Conn
	notifications chan playback.Notification

	closeOnce sync.Once
}

// DialFeed connects to the backend websocket scoped to the event. baseURL is
// the http(s) address of the backend.
func DialFeed(baseURL, eventID string) (*FeedClient, error) {
	wsURL := strings.Replace(baseURL, "http", "ws", 1)
	wsURL = fmt.Sprintf("%s/ws?event=%s", wsURL, url.QueryEscape(eventID))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	f := &FeedClient{
		conn:          conn,
		notifications: make(chan playback.Notification, 16),
	}
	go f.readLoop()
	return f, nil
}

func (f *FeedClient) readLoop() {
	defer close(f.notifications)
	for {
		_, data, err := f.conn.ReadMessage()
		if err != nil {
			return
		}

		var env broadcast.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("client: bad feed message: %v", err)
			continue
		}

		n, ok, err := playback.DecodeEnvelope(env)
		if err != nil {
			log.Printf("client: decode feed envelope: %v", err)
			continue
		}
		if !ok {
			// Poll, expense and presence events are not playback's concern.
			continue
		}
		f.notifications <- n
	}
}

// Notifications returns the playback notification stream. The channel
// closes when the connection drops or Close is called.
func (f *FeedClient) Notifications() <-chan playback.Notification {
	return f.notifications
}

// Close tears down the websocket subscription.
func (f *FeedClient) Close() error {
	var err error
	f.closeOnce.Do(func() {
		err = f.conn.Close()
	})
	return err
}
