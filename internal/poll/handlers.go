package poll

import (
	"context"
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

// handleCreatePoll creates a poll with its options in one transaction.
// POST /events/{id}/polls
func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
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
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Question = strings.TrimSpace(body.Question)
	if body.Question == "" || len(body.Question) > 300 {
		httpx.WriteError(w, http.StatusBadRequest, "question must be between 1 and 300 characters")
		return
	}
	if len(body.Options) < 2 || len(body.Options) > 20 {
		httpx.WriteError(w, http.StatusBadRequest, "polls need between 2 and 20 options")
		return
	}
	for i := range body.Options {
		body.Options[i] = strings.TrimSpace(body.Options[i])
		if body.Options[i] == "" || len(body.Options[i]) > 200 {
			httpx.WriteError(w, http.StatusBadRequest, "options must be between 1 and 200 characters")
			return
		}
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("poll: create begin tx: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	var p Poll
	p.EventID = eventID
	p.Question = body.Question
	p.CreatedBy = participantID
	err = tx.QueryRow(ctx, `
      INSERT INTO polls (event_id, question, created_by)
      VALUES ($1, $2, $3)
      RETURNING id, created_at
    `, eventID, p.Question, participantID).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		log.Printf("poll: create insert: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	for i, label := range body.Options {
		var opt Option
		opt.Label = label
		opt.Position = i
		err = tx.QueryRow(ctx, `
          INSERT INTO poll_options (poll_id, label, position)
          VALUES ($1, $2, $3)
          RETURNING id
        `, p.ID, label, i).Scan(&opt.ID)
		if err != nil {
			log.Printf("poll: create insert option: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
		p.Options = append(p.Options, opt)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("poll: create commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, p)
}

// handleListPolls returns the event's polls with vote counts and, when a
// participant header is present, which option they picked.
// GET /events/{id}/polls
func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing event id")
		return
	}
	participantID := r.Header.Get("X-Participant-Id")

	rows, err := s.db.Query(ctx, `
      SELECT id, event_id, question, created_by, closed, created_at
      FROM polls
      WHERE event_id = $1
      ORDER BY created_at ASC
    `, eventID)
	if err != nil {
		log.Printf("poll: list: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	polls := make([]Poll, 0)
	for rows.Next() {
		var p Poll
		if err := rows.Scan(&p.ID, &p.EventID, &p.Question, &p.CreatedBy, &p.Closed, &p.CreatedAt); err != nil {
			log.Printf("poll: scan poll: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		log.Printf("poll: poll rows: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	for i := range polls {
		opts, err := s.loadOptions(ctx, polls[i].ID, participantID)
		if err != nil {
			log.Printf("poll: load options: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
		polls[i].Options = opts
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"polls": polls})
}

// handleVote casts or changes a vote. One vote per participant per poll;
// re-voting moves the vote to the new option.
// POST /polls/{pollID}/vote
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participantID := r.Header.Get("X-Participant-Id")
	if participantID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing participant context")
		return
	}

	pollID := chi.URLParam(r, "pollID")
	if pollID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing poll id")
		return
	}

	var body struct {
		OptionID string `json:"optionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.OptionID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "optionId is required")
		return
	}

	var eventID string
	var closed bool
	err := s.db.QueryRow(ctx, `
      SELECT p.event_id, p.closed
      FROM polls p
      JOIN poll_options o ON o.poll_id = p.id
      WHERE p.id = $1 AND o.id = $2
    `, pollID, body.OptionID).Scan(&eventID, &closed)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "poll or option not found")
		return
	}
	if err != nil {
		log.Printf("poll: vote lookup: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	if closed {
		httpx.WriteError(w, http.StatusConflict, "poll is closed")
		return
	}

	_, err = s.db.Exec(ctx, `
      INSERT INTO poll_votes (poll_id, participant_id, option_id)
      VALUES ($1, $2, $3)
      ON CONFLICT (poll_id, participant_id)
      DO UPDATE SET option_id = EXCLUDED.option_id, created_at = now()
    `, pollID, participantID, body.OptionID)
	if err != nil {
		log.Printf("poll: vote upsert: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	var votes int
	if err := s.db.QueryRow(ctx, `
      SELECT COUNT(*) FROM poll_votes WHERE poll_id = $1 AND option_id = $2
    `, pollID, body.OptionID).Scan(&votes); err != nil {
		log.Printf("poll: vote count: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if s.met != nil {
		s.met.IncVotesCast()
	}
	res := VoteResult{PollID: pollID, OptionID: body.OptionID, Votes: votes}
	s.pub.Publish(ctx, broadcast.TypePollVoteCast, eventID, res)

	httpx.WriteJSON(w, http.StatusOK, res)
}

// handleClosePoll closes a poll; only the event host may do it.
// POST /polls/{pollID}/close
func (s *Server) handleClosePoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participantID := r.Header.Get("X-Participant-Id")
	if participantID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing participant context")
		return
	}

	pollID := chi.URLParam(r, "pollID")
	if pollID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing poll id")
		return
	}

	var eventID, hostID string
	err := s.db.QueryRow(ctx, `
      SELECT p.event_id, COALESCE(e.host_id::text, '')
      FROM polls p
      JOIN events e ON e.id = p.event_id
      WHERE p.id = $1
    `, pollID).Scan(&eventID, &hostID)
	if errors.Is(err, pgx.ErrNoRows) {
		httpx.WriteError(w, http.StatusNotFound, "poll not found")
		return
	}
	if err != nil {
		log.Printf("poll: close lookup: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	if participantID != hostID {
		httpx.WriteError(w, http.StatusForbidden, "only the host may close a poll")
		return
	}

	if _, err := s.db.Exec(ctx, `UPDATE polls SET closed = TRUE WHERE id = $1`, pollID); err != nil {
		log.Printf("poll: close exec: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.pub.Publish(ctx, broadcast.TypePollClosed, eventID, map[string]string{"pollId": pollID})

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"closed": pollID})
}

func (s *Server) loadOptions(ctx context.Context, pollID, participantID string) ([]Option, error) {
	rows, err := s.db.Query(ctx, `
      SELECT o.id, o.label, o.position,
             (SELECT COUNT(*) FROM poll_votes v WHERE v.option_id = o.id),
             EXISTS (
               SELECT 1 FROM poll_votes v
               WHERE v.option_id = o.id AND v.participant_id = $2
             )
      FROM poll_options o
      WHERE o.poll_id = $1
      ORDER BY o.position ASC
    `, pollID, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	opts := make([]Option, 0)
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Label, &o.Position, &o.Votes, &o.IsMine); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}
