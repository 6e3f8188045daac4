package playlist

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/soiree-app/soiree/internal/broadcast"
	"github.com/soiree-app/soiree/internal/platform/httpx"
)

// YouTube video ids are 11 URL-safe base64 characters.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// handleListItems returns the canonical (insertion-ordered) playlist.
// GET /events/{id}/playlist
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing event id")
		return
	}

	rows, err := s.db.Query(ctx, `
      SELECT id, event_id, video_id, title, channel_label, thumbnail_url, added_by, added_at
      FROM playlist_items
      WHERE event_id = $1
      ORDER BY added_at ASC, id ASC
    `, eventID)
	if err != nil {
		log.Printf("playlist: list items: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.EventID, &it.VideoID, &it.Title, &it.ChannelLabel, &it.ThumbnailURL, &it.AddedBy, &it.AddedAt); err != nil {
			log.Printf("playlist: scan item: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		log.Printf("playlist: item rows: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleAddItem appends a video to the event playlist.
// POST /events/{id}/playlist
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participantID := r.Header.Get("X-Participant-Id")
	if participantID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing participant context")
		return
	}

	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing event id")
		return
	}

	var body struct {
		VideoID      string  `json:"videoId"`
		Title        string  `json:"title"`
		ChannelLabel string  `json:"channelLabel"`
		ThumbnailURL *string `json:"thumbnailUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.VideoID = strings.TrimSpace(body.VideoID)
	body.Title = strings.TrimSpace(body.Title)
	body.ChannelLabel = strings.TrimSpace(body.ChannelLabel)

	if !videoIDPattern.MatchString(body.VideoID) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid videoId")
		return
	}
	if body.Title == "" || len(body.Title) > 300 {
		httpx.WriteError(w, http.StatusBadRequest, "title must be between 1 and 300 characters")
		return
	}
	if len(body.ChannelLabel) > 200 {
		httpx.WriteError(w, http.StatusBadRequest, "channelLabel is too long")
		return
	}

	// Verify the participant belongs to this event before writing.
	var memberOK bool
	err := s.db.QueryRow(ctx, `
      SELECT EXISTS (
        SELECT 1 FROM participants WHERE id = $1 AND event_id = $2
      )
    `, participantID, eventID).Scan(&memberOK)
	if err != nil {
		log.Printf("playlist: add member check: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !memberOK {
		httpx.WriteError(w, http.StatusForbidden, "not a participant of this event")
		return
	}

	var it Item
	it.EventID = eventID
	it.VideoID = body.VideoID
	it.Title = body.Title
	it.ChannelLabel = body.ChannelLabel
	it.ThumbnailURL = body.ThumbnailURL
	it.AddedBy = participantID
	err = s.db.QueryRow(ctx, `
      INSERT INTO playlist_items (event_id, video_id, title, channel_label, thumbnail_url, added_by)
      VALUES ($1, $2, $3, $4, $5, $6)
      RETURNING id, added_at
    `, eventID, it.VideoID, it.Title, it.ChannelLabel, it.ThumbnailURL, participantID).Scan(&it.ID, &it.AddedAt)
	if err != nil {
		log.Printf("playlist: add insert: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.incMutations()
	s.pub.Publish(ctx, broadcast.TypeItemAdded, eventID, it)

	httpx.WriteJSON(w, http.StatusCreated, it)
}

// handleDeleteItem removes a playlist item. Only the contributor who added
// the item or the event host may delete it.
// DELETE /events/{id}/playlist/{itemID}
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participantID := r.Header.Get("X-Participant-Id")
	if participantID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing participant context")
		return
	}

	eventID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")
	if eventID == "" || itemID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing event or item id")
		return
	}

	var addedBy, hostID string
	err := s.db.QueryRow(ctx, `
      SELECT pi.added_by, COALESCE(e.host_id::text, '')
      FROM playlist_items pi
      JOIN events e ON e.id = pi.event_id
      WHERE pi.id = $1 AND pi.event_id = $2
    `, itemID, eventID).Scan(&addedBy, &hostID)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		log.Printf("playlist: delete lookup: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if participantID != addedBy && participantID != hostID {
		httpx.WriteError(w, http.StatusForbidden, "only the contributor or the host may remove this item")
		return
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM playlist_items WHERE id = $1`, itemID); err != nil {
		log.Printf("playlist: delete exec: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.incMutations()
	s.pub.Publish(ctx, broadcast.TypeItemRemoved, eventID, map[string]string{"itemId": itemID})

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"deleted": itemID})
}
