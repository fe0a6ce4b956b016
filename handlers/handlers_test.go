package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/chess-tournament/metrics"
	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
	"github.com/Dosada05/chess-tournament/services"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResponder(t *testing.T) (*ErrorResponder, *bytes.Buffer, *metrics.Metrics) {
	t.Helper()
	var logs bytes.Buffer
	m := metrics.New()
	return NewErrorResponder(slog.New(slog.NewJSONHandler(&logs, nil)), m), &logs, m
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
		rule   string
	}{
		{"not found", repositories.ErrClubNotFound, http.StatusNotFound, "", ""},
		{"wrapped not found", errors.Join(errors.New("ctx"), models.ErrNotFound), http.StatusNotFound, "", ""},
		{"constraint", models.NewConstraintError(models.RuleMaxLength, "club_name", "too long"), http.StatusUnprocessableEntity, "constraint", models.RuleMaxLength},
		{"reference", models.NewReferenceError("matches_white_player_id_fkey", "white_player_id", "player 9 does not exist"), http.StatusConflict, "reference", "matches_white_player_id_fkey"},
		{"domain rule", models.ErrActiveMembershipExists, http.StatusConflict, "domain_rule", models.RuleMembershipExclusivity},
		{"wrapped domain rule", errors.Join(errors.New("tx"), models.ErrTournamentFull), http.StatusConflict, "domain_rule", models.RuleTournamentFull},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "", ""},
		{"forbidden", services.ErrForbiddenOperation, http.StatusForbidden, "", ""},
		{"last admin", services.ErrLastAdmin, http.StatusConflict, "", ""},
		{"archive disabled", services.ErrArchiveDisabled, http.StatusServiceUnavailable, "", ""},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, logs, _ := newTestResponder(t)
			rec := httptest.NewRecorder()
			errs.mapServiceError(rec, httptest.NewRequest(http.MethodPost, "/x", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			require.Contains(t, body, "error")
			if tt.kind != "" {
				var v models.ViolationError
				require.NoError(t, json.Unmarshal(body["error"], &v))
				assert.Equal(t, models.ViolationKind(tt.kind), v.Kind)
				assert.Equal(t, tt.rule, v.Rule)
				assert.NotEmpty(t, v.Message)
			}
			if tt.status == http.StatusInternalServerError {
				assert.Contains(t, logs.String(), "connection reset")
				assert.NotContains(t, string(body["error"]), "connection reset")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestViolationCountsRejectedWrite(t *testing.T) {
	errs, _, m := newTestResponder(t)
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	errs.mapServiceError(httptest.NewRecorder(), req, models.ErrSamePlayer)
	errs.mapServiceError(httptest.NewRecorder(), req, models.ErrSamePlayer)

	expected := `
# HELP chess_store_rejected_writes_total Writes rejected by a constraint, a reference or a domain rule.
# TYPE chess_store_rejected_writes_total counter
chess_store_rejected_writes_total{kind="domain_rule",rule="chk_matches_players"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "chess_store_rejected_writes_total"))
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		body    string
		wantErr string
	}{
		{`{"name":"Riga"}`, ""},
		{``, "body must not be empty"},
		{`{"name":`, "badly-formed"},
		{`{"name":1}`, `incorrect JSON type for field "name"`},
		{`{"other":"x"}`, `unknown key "other"`},
		{`{"name":"a"}{"name":"b"}`, "single JSON value"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		var dst payload
		err := readJSON(httptest.NewRecorder(), req, &dst)
		if tt.wantErr == "" {
			assert.NoError(t, err)
			assert.Equal(t, "Riga", dst.Name)
		} else {
			assert.ErrorContains(t, err, tt.wantErr, tt.body)
		}
	}
}

func TestPagination(t *testing.T) {
	limit, offset, err := pagination(httptest.NewRequest(http.MethodGet, "/?", nil))
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, limit)
	assert.Zero(t, offset)

	limit, offset, err = pagination(httptest.NewRequest(http.MethodGet, "/?limit=5&offset=10", nil))
	require.NoError(t, err)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 10, offset)

	for _, q := range []string{"limit=0", "limit=x", "offset=-1"} {
		_, _, err := pagination(httptest.NewRequest(http.MethodGet, "/?"+q, nil))
		assert.Error(t, err, q)
	}
}

// stubs embed the interface; calling a method that is not overridden panics.

type stubTournamentService struct {
	services.TournamentService
	created services.CreateTournamentInput
	list    services.ListTournamentsInput
}

func (s *stubTournamentService) CreateTournament(_ context.Context, in services.CreateTournamentInput) (*models.Tournament, error) {
	s.created = in
	if in.EndDate.Before(in.StartDate.Time) {
		return nil, models.ErrTournamentDates
	}
	return &models.Tournament{ID: 1, Code: in.Code, Name: in.Name, StartDate: in.StartDate.Time, EndDate: in.EndDate.Time, Status: models.StatusPlanned}, nil
}

func (s *stubTournamentService) ListTournaments(_ context.Context, in services.ListTournamentsInput) ([]models.Tournament, error) {
	s.list = in
	return []models.Tournament{}, nil
}

func (s *stubTournamentService) GetTournament(_ context.Context, id int64) (*models.Tournament, error) {
	return nil, repositories.ErrTournamentNotFound
}

func TestTournamentHandler(t *testing.T) {
	errs, _, _ := newTestResponder(t)
	svc := &stubTournamentService{}
	h := NewTournamentHandler(svc, nil, errs)
	r := chi.NewRouter()
	r.Post("/tournaments", h.Create)
	r.Get("/tournaments", h.List)
	r.Get("/tournaments/{tournamentID}", h.Get)

	t.Run("create", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"tournament_code":"RIGA24","tournament_name":"Riga Open","start_date":"2024-06-01T00:00:00Z","end_date":"2024-06-09T00:00:00Z"}`
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tournaments", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "RIGA24", svc.created.Code)

		var resp struct {
			Tournament models.Tournament `json:"tournament"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Riga Open", resp.Tournament.Name)
	})

	t.Run("plain dates", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"tournament_code":"RIGA25","tournament_name":"Riga Open","start_date":"2025-06-01","end_date":"2025-06-09"}`
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tournaments", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), svc.created.StartDate.Time)
		assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), svc.created.EndDate.Time)
	})

	t.Run("malformed date", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"tournament_code":"X","tournament_name":"X","start_date":"01.06.2025","end_date":"2025-06-09"}`
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tournaments", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "01.06.2025")
	})

	t.Run("dates rule", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"tournament_code":"X","tournament_name":"X","start_date":"2024-06-09T00:00:00Z","end_date":"2024-06-01T00:00:00Z"}`
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tournaments", strings.NewReader(body)))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), models.RuleTournamentDates)
	})

	t.Run("list filters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments?status=In+Progress&year=2024&upcoming=true&limit=5", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.list.Status)
		assert.Equal(t, models.StatusInProgress, *svc.list.Status)
		assert.Equal(t, 2024, *svc.list.Year)
		assert.True(t, svc.list.Upcoming)
		assert.Equal(t, 5, svc.list.Limit)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments?status=Paused", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad id and missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/42", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

type stubMatchService struct {
	services.MatchService
	recorded services.RecordResultInput
}

func (s *stubMatchService) RecordResult(_ context.Context, id int64, in services.RecordResultInput) (*models.Match, error) {
	s.recorded = in
	if !in.Result.Valid() || in.Result == models.ResultUnfinished {
		return nil, models.NewConstraintError(models.RuleEnum, "result", "must be a decisive or drawn result")
	}
	return &models.Match{ID: id, Result: in.Result, Status: models.MatchCompleted}, nil
}

func TestRecordResultHandler(t *testing.T) {
	errs, _, _ := newTestResponder(t)
	svc := &stubMatchService{}
	r := chi.NewRouter()
	r.Post("/matches/{matchID}/result", NewMatchHandler(svc, errs).RecordResult)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/matches/7/result",
		strings.NewReader(`{"result":"1/2-1/2","moves_pgn":"1. d4 d5 1/2-1/2"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1. d4 d5 1/2-1/2", *svc.recorded.MovesPGN)
	assert.Contains(t, rec.Body.String(), `"status": "Completed"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/matches/7/result", strings.NewReader(`{"result":"*"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/matches/7/result", strings.NewReader(`{"winner":"white"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubAuthService struct{ services.AuthService }

func (stubAuthService) Login(_ context.Context, c models.Credentials) (*models.User, string, error) {
	if c.Password != "right-password" {
		return nil, "", services.ErrInvalidCredentials
	}
	return &models.User{ID: 1, Email: c.Email, Role: models.RoleAdmin}, "signed.jwt.token", nil
}

func TestLoginHandler(t *testing.T) {
	errs, _, _ := newTestResponder(t)
	h := NewAuthHandler(stubAuthService{}, errs)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@example.com","password":"right-password"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.JSONEq(t, `"signed.jwt.token"`, string(body["token"]))
	assert.NotContains(t, string(body["user"]), "password")

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@example.com","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@example.com"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws/tournaments/1", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	open := originChecker(nil)
	assert.True(t, open(req("https://evil.example")))

	only := originChecker([]string{"https://chess.example"})
	assert.True(t, only(req("https://chess.example")))
	assert.True(t, only(req("")))
	assert.False(t, only(req("https://evil.example")))

	assert.True(t, originChecker([]string{"*"})(req("https://evil.example")))
}
