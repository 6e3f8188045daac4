package expense

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/soiree-app/soiree/internal/broadcast"
	"github.com/soiree-app/soiree/internal/platform/httpx"
)

// handleAddExpense records an expense. When shareWith is empty the expense
// is split among all current participants of the event.
// POST /events/{id}/expenses
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
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
		Label       string   `json:"label"`
		AmountCents int64    `json:"amountCents"`
		ShareWith   []string `json:"shareWith"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Label = strings.TrimSpace(body.Label)
	if body.Label == "" || len(body.Label) > 200 {
		httpx.WriteError(w, http.StatusBadRequest, "label must be between 1 and 200 characters")
		return
	}
	if body.AmountCents <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "amountCents must be positive")
		return
	}

	shareWith := body.ShareWith
	if len(shareWith) == 0 {
		ids, err := s.participantIDs(ctx, eventID)
		if err != nil {
			log.Printf("expense: load participants: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
		shareWith = ids
	}
	if len(shareWith) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "no participants to share with")
		return
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Printf("expense: add begin tx: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	var ex Expense
	ex.EventID = eventID
	ex.PayerID = participantID
	ex.Label = body.Label
	ex.AmountCents = body.AmountCents
	ex.ShareWith = shareWith
	err = tx.QueryRow(ctx, `
      INSERT INTO expenses (event_id, payer_id, label, amount_cents)
      VALUES ($1, $2, $3, $4)
      RETURNING id, created_at
    `, eventID, participantID, ex.Label, ex.AmountCents).Scan(&ex.ID, &ex.CreatedAt)
	if err != nil {
		log.Printf("expense: add insert: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	for _, pid := range shareWith {
		if _, err := tx.Exec(ctx, `
          INSERT INTO expense_shares (expense_id, participant_id)
          VALUES ($1, $2)
          ON CONFLICT DO NOTHING
        `, ex.ID, pid); err != nil {
			log.Printf("expense: add insert share: %v", err)
			httpx.WriteError(w, http.StatusInternalServerError, "database error")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("expense: add commit: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.pub.Publish(ctx, broadcast.TypeExpenseAdded, eventID, ex)

	httpx.WriteJSON(w, http.StatusCreated, ex)
}

// handleListExpenses returns all expenses with their share lists.
// GET /events/{id}/expenses
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing event id")
		return
	}

	expenses, err := s.loadExpenses(ctx, eventID)
	if err != nil {
		log.Printf("expense: list: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

// handleBalances returns net positions and settlement suggestions.
// GET /events/{id}/expenses/balances
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing event id")
		return
	}

	expenses, err := s.loadExpenses(ctx, eventID)
	if err != nil {
		log.Printf("expense: balances: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "database error")
		return
	}

	balances := Balances(expenses)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"balances":    balances,
		"settlements": Settlements(balances),
	})
}

func (s *Server) participantIDs(ctx context.Context, eventID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
      SELECT id FROM participants WHERE event_id = $1 ORDER BY created_at ASC
    `, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Server) loadExpenses(ctx context.Context, eventID string) ([]Expense, error) {
	rows, err := s.db.Query(ctx, `
      SELECT id, event_id, payer_id, label, amount_cents, created_at
      FROM expenses
      WHERE event_id = $1
      ORDER BY created_at ASC
    `, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		var ex Expense
		if err := rows.Scan(&ex.ID, &ex.EventID, &ex.PayerID, &ex.Label, &ex.AmountCents, &ex.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range expenses {
		shareRows, err := s.db.Query(ctx, `
          SELECT participant_id FROM expense_shares WHERE expense_id = $1
        `, expenses[i].ID)
		if err != nil {
			return nil, err
		}
		for shareRows.Next() {
			var pid string
			if err := shareRows.Scan(&pid); err != nil {
				shareRows.Close()
				return nil, err
			}
			expenses[i].ShareWith = append(expenses[i].ShareWith, pid)
		}
		if err := shareRows.Err(); err != nil {
			shareRows.Close()
			return nil, err
		}
		shareRows.Close()
	}
	return expenses, nil
}
