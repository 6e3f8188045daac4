package event

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/soiree-app/soiree/internal/broadcast"
	"github.com/soiree-app/soiree/internal/platform/httpx"
)

// handleCreateEvent creates an event together with its host participant and
// returns the share code.
// POST /events
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Name     string `json:"name"`
		HostName string `json:"hostName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.HostName = strings.TrimSpace(body.HostName)
	if body.Name == "" || len(body.Name) > 200 {
		httpx.WriteError(w, http.StatusBadRequest, "name must be between 1 and 200 characters")
		return
	}
	if body.HostName == "" || len(body.HostName) > 100 {
		httpx.WriteError(w, http.StatusBadRequest, "hostName must be between 1 and 100 characters")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("event: create begin tx: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	var ev Event
	ev.Name = body.Name
	ev.AccessCode = newAccessCode()
	err = tx.QueryRow(ctx, `
      INSERT INTO events (name, access_code)
      VALUES ($1, $2)
      RETURNING id, created_at
    `, ev.Name, ev.AccessCode).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		log.Printf("event: create insert event: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	var host Participant
	host.EventID = ev.ID
	host.Name = body.HostName
	err = tx.QueryRow(ctx, `
      INSERT INTO participants (event_id, name)
      VALUES ($1, $2)
      RETURNING id, created_at
    `, ev.ID, host.Name).Scan(&host.ID, &host.CreatedAt)
	if err != nil {
		log.Printf("event: create insert host: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if _, err := tx.Exec(ctx, `UPDATE events SET host_id = $2 WHERE id = $1`, ev.ID, host.ID); err != nil {
		log.Printf("event: create set host: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	ev.HostID = host.ID

	if err := tx.Commit(ctx); err != nil {
		log.Printf("event: create commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"event": ev,
		"host":  host,
	})
}

// handleJoinEvent resolves an access code and registers a new participant.
// POST /events/join
func (s *Server) handleJoinEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		AccessCode string `json:"accessCode"`
		Name       string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.AccessCode = strings.ToUpper(strings.TrimSpace(body.AccessCode))
	body.Name = strings.TrimSpace(body.Name)
	if body.AccessCode == "" {
		httpx.WriteError(w, http.StatusBadRequest, "accessCode is required")
		return
	}
	if body.Name == "" || len(body.Name) > 100 {
		httpx.WriteError(w, http.StatusBadRequest, "name must be between 1 and 100 characters")
		return
	}

	var ev Event
	err := s.db.QueryRow(ctx, `
      SELECT id, name, access_code, COALESCE(host_id::text, ''), created_at
      FROM events
      WHERE access_code = $1
    `, body.AccessCode).Scan(&ev.ID, &ev.Name, &ev.AccessCode, &ev.HostID, &ev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "no event with that access code")
		return
	}
	if err != nil {
		log.Printf("event: join lookup: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	var p Participant
	p.EventID = ev.ID
	p.Name = body.Name
	err = s.db.QueryRow(ctx, `
      INSERT INTO participants (event_id, name)
      VALUES ($1, $2)
      RETURNING id, created_at
    `, ev.ID, p.Name).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		log.Printf("event: join insert participant: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.pub.Publish(ctx, broadcast.TypeParticipantJoined, ev.ID, p)

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"event":       ev,
		"participant": p,
	})
}

// handleGetEvent returns event metadata.
// GET /events/{id}
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing event id")
		return
	}

	var ev Event
	err := s.db.QueryRow(ctx, `
      SELECT id, name, access_code, COALESCE(host_id::text, ''), created_at
      FROM events
      WHERE id = $1
    `, id).Scan(&ev.ID, &ev.Name, &ev.AccessCode, &ev.HostID, &ev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		log.Printf("event: get: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ev)
}

// handleListParticipants returns all participants of an event in join order.
// GET /events/{id}/participants
func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing event id")
		return
	}

	rows, err := s.db.Query(ctx, `
      SELECT id, event_id, name, created_at
      FROM participants
      WHERE event_id = $1
      ORDER BY created_at ASC
    `, id)
	if err != nil {
		log.Printf("event: list participants: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	participants := make([]Participant, 0)
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name, &p.CreatedAt); err != nil {
			log.Printf("event: scan participant: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		log.Printf("event: participant rows: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"participants": participants})
}
