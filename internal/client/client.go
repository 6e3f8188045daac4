// Package client talks to the soiree backend: the REST surface and the
// realtime change feed. It implements the interfaces the playback engine
// consumes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/soiree-app/soiree/internal/playlist"
)

// Client is an HTTP client for one backend instance. ParticipantID is set
// after JoinEvent and sent on every authenticated call.
type Client struct {
	BaseURL       string
	ParticipantID string

	http *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// JoinResult is what joining by access code returns.
type JoinResult struct {
	Event struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"event"`
	Participant struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"participant"`
}

// JoinEvent resolves an access code and registers this client as a
// participant. The returned participant id is remembered for later calls.
func (c *Client) JoinEvent(ctx context.Context, accessCode, name string) (*JoinResult, error) {
	body, _ := json.Marshal(map[string]string{
		"accessCode": accessCode,
		"name":       name,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/events/join", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("join event failed: %s", readAPIError(resp))
	}

	var res JoinResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	c.ParticipantID = res.Participant.ID
	return &res, nil
}

// ListItems fetches the canonical playlist for the event. Satisfies
// playback.Source.
func (c *Client) ListItems(ctx context.Context, eventID string) ([]playlist.Item, error) {
	u := fmt.Sprintf("%s/events/%s/playlist", c.BaseURL, url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.ParticipantID != "" {
		req.Header.Set("X-Participant-Id", c.ParticipantID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list playlist failed: %s", readAPIError(resp))
	}

	var res struct {
		Items []playlist.Item `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// AddItem appends a video to the event playlist.
func (c *Client) AddItem(ctx context.Context, eventID, videoID, title, channelLabel string) (*playlist.Item, error) {
	body, _ := json.Marshal(map[string]string{
		"videoId":      videoID,
		"title":        title,
		"channelLabel": channelLabel,
	})
	u := fmt.Sprintf("%s/events/%s/playlist", c.BaseURL, url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Participant-Id", c.ParticipantID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("add item failed: %s", readAPIError(resp))
	}

	var it playlist.Item
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		return nil, err
	}
	return &it, nil
}

func readAPIError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != "" {
		return fmt.Sprintf("%d %s", resp.StatusCode, body.Error)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
