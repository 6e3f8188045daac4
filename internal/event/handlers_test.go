package event

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soiree-app/soiree/internal/store/storetest"
)

func TestCreateEvent(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	inserts := 0

	db := &storetest.MockDB{
		BeginTxFunc: func(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
			return &storetest.MockTx{
				QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
					inserts++
					id := "ev1"
					if strings.Contains(sql, "participants") {
						id = "host1"
					}
					return &storetest.MockRow{ScanFunc: func(dest ...any) error {
						*dest[0].(*string) = id
						*dest[1].(*time.Time) = created
						return nil
					}}
				},
			}, nil
		},
	}

	srv := NewServer(db, nil)
	body := `{"name":"Birthday Bash","hostName":"Ana"}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, inserts)

	var resp struct {
		Event Event       `json:"event"`
		Host  Participant `json:"host"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ev1", resp.Event.ID)
	assert.Equal(t, "host1", resp.Event.HostID)
	assert.Equal(t, "host1", resp.Host.ID)
	assert.Len(t, resp.Event.AccessCode, 6)
}

func TestCreateEventValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name":"","hostName":"Ana"}`},
		{"empty host", `{"name":"Party","hostName":"  "}`},
		{"name too long", `{"name":"` + strings.Repeat("x", 201) + `","hostName":"Ana"}`},
		{"not json", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(&storetest.MockDB{}, nil)
			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestJoinEvent(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var lookupCode string

	db := &storetest.MockDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if strings.Contains(sql, "FROM events") {
				lookupCode = args[0].(string)
				return &storetest.MockRow{ScanFunc: func(dest ...any) error {
					*dest[0].(*string) = "ev1"
					*dest[1].(*string) = "Birthday Bash"
					*dest[2].(*string) = "ABC234"
					*dest[3].(*string) = "host1"
					*dest[4].(*time.Time) = created
					return nil
				}}
			}
			return &storetest.MockRow{ScanFunc: func(dest ...any) error {
				*dest[0].(*string) = "p2"
				*dest[1].(*time.Time) = created
				return nil
			}}
		},
	}

	srv := NewServer(db, nil)
	body := `{"accessCode":" abc234 ","name":"Ben"}`
	req := httptest.NewRequest(http.MethodPost, "/events/join", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	// Codes are case-insensitive on input, canonical uppercase in the store.
	assert.Equal(t, "ABC234", lookupCode)

	var resp struct {
		Event       Event       `json:"event"`
		Participant Participant `json:"participant"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ev1", resp.Event.ID)
	assert.Equal(t, "p2", resp.Participant.ID)
	assert.Equal(t, "Ben", resp.Participant.Name)
}

func TestJoinEventUnknownCode(t *testing.T) {
	db := &storetest.MockDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &storetest.MockRow{ScanFunc: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	srv := NewServer(db, nil)
	body := `{"accessCode":"ZZZZZZ","name":"Ben"}`
	req := httptest.NewRequest(http.MethodPost, "/events/join", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEvent(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	db := &storetest.MockDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &storetest.MockRow{ScanFunc: func(dest ...any) error {
				*dest[0].(*string) = "ev1"
				*dest[1].(*string) = "Birthday Bash"
				*dest[2].(*string) = "ABC234"
				*dest[3].(*string) = "host1"
				*dest[4].(*time.Time) = created
				return nil
			}}
		},
	}

	srv := NewServer(db, nil)
	req := httptest.NewRequest(http.MethodGet, "/events/ev1", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var ev Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ev))
	assert.Equal(t, "Birthday Bash", ev.Name)
}

func TestGetEventNotFound(t *testing.T) {
	db := &storetest.MockDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &storetest.MockRow{ScanFunc: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	srv := NewServer(db, nil)
	req := httptest.NewRequest(http.MethodGet, "/events/missing", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListParticipants(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	db := &storetest.MockDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return storetest.NewMockRows([][]any{
				{"p1", "ev1", "Ana", created},
				{"p2", "ev1", "Ben", created.Add(time.Minute)},
			}), nil
		},
	}

	srv := NewServer(db, nil)
	req := httptest.NewRequest(http.MethodGet, "/events/ev1/participants", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Participants []Participant `json:"participants"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Participants, 2)
	assert.Equal(t, "Ana", resp.Participants[0].Name)
}

func TestNewAccessCodeShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := newAccessCode()
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.Contains(t, codeAlphabet, string(c))
		}
		seen[code] = true
	}
	// 32^6 combinations; 50 draws colliding would point at a broken source.
	assert.Greater(t, len(seen), 45)
}
