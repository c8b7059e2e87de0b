package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csfantasy/draft-engine/internal/domain/draft"
	"github.com/csfantasy/draft-engine/internal/domain/role"
	"github.com/csfantasy/draft-engine/internal/domain/stats"
	"github.com/csfantasy/draft-engine/internal/platform/logging"
	"github.com/csfantasy/draft-engine/internal/usecase"
)

type stubBackend struct {
	snapshot        draft.Snapshot
	tournamentStats map[int64]stats.StatPayload
}

func (s *stubBackend) FetchDraftState(context.Context, int64) (draft.Snapshot, error) {
	return s.snapshot, nil
}

func (s *stubBackend) Buy(context.Context, int64, int64) (draft.Snapshot, error) {
	return s.snapshot, nil
}

func (s *stubBackend) Sell(context.Context, int64, int64) (draft.Snapshot, error) {
	return s.snapshot, nil
}

func (s *stubBackend) SetRole(context.Context, int64, int64, role.Role) (draft.Snapshot, error) {
	return s.snapshot, nil
}

func (s *stubBackend) LockRoster(context.Context, int64) (draft.Snapshot, error) {
	return s.snapshot, nil
}

func (s *stubBackend) UnlockRoster(context.Context, int64) (draft.Snapshot, error) {
	return s.snapshot, nil
}

func (s *stubBackend) FetchMatchStats(context.Context, int64, int64) (stats.StatPayload, error) {
	return stats.StatPayload{}, nil
}

func (s *stubBackend) FetchTournamentStats(_ context.Context, _, playerID int64) (stats.StatPayload, error) {
	if payload, ok := s.tournamentStats[playerID]; ok {
		return payload, nil
	}
	return stats.StatPayload{}, nil
}

func (s *stubBackend) FetchStandings(context.Context, int64) ([]draft.StandingRow, error) {
	return []draft.StandingRow{{FantasyTeamID: 1, TeamName: "alpha", TotalPoints: 42}}, nil
}

func newTestRouter(snapshot draft.Snapshot) http.Handler {
	return newTestRouterWithBackend(&stubBackend{snapshot: snapshot})
}

func newTestRouterWithBackend(backend *stubBackend) http.Handler {
	logger := logging.NewNop()
	handler := NewHandler(
		usecase.NewDraftService(backend, time.Minute, logger),
		usecase.NewStatsService(backend, time.Minute, 4, logger),
		usecase.NewStandingsService(backend, time.Minute, logger),
		logger,
	)
	return NewRouter(handler, logger, nil)
}

func marketSnapshot() draft.Snapshot {
	return draft.Snapshot{
		LeagueID:   7,
		BudgetLeft: 400000,
		Limits:     draft.DefaultLimits(),
		Market: []draft.MarketListing{
			{PlayerID: 42, PlayerName: "s1mple", TeamID: 10, Price: 250000},
		},
	}
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer user-token")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) googleResponseEnvelope {
	t.Helper()
	var envelope googleResponseEnvelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestGetDraftStateRoute(t *testing.T) {
	router := newTestRouter(marketSnapshot())

	rec := doRequest(t, router, http.MethodGet, "/v1/leagues/7/draft", "")

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.Nil(t, envelope.Error)

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "open", data["phase"])
	actions, ok := data["actions"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, actions["buy"])
	assert.Equal(t, false, actions["lock"])
}

func TestBuyRoute(t *testing.T) {
	router := newTestRouter(marketSnapshot())

	rec := doRequest(t, router, http.MethodPost, "/v1/leagues/7/draft/buy", `{"player_id": 42}`)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Nil(t, envelope.Error)
}

func TestBuyRouteConstraintRejection(t *testing.T) {
	snap := marketSnapshot()
	snap.BudgetLeft = 1000
	router := newTestRouter(snap)

	rec := doRequest(t, router, http.MethodPost, "/v1/leagues/7/draft/buy", `{"player_id": 42}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	require.Len(t, envelope.Error.Errors, 1)
	assert.Equal(t, "draftConstraint", envelope.Error.Errors[0].Reason)
}

func TestBuyRouteRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(marketSnapshot())

	rec := doRequest(t, router, http.MethodPost, "/v1/leagues/7/draft/buy", `{"player_id": "forty-two"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDraftRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(marketSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/v1/leagues/7/draft", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStandingsRoute(t *testing.T) {
	router := newTestRouter(marketSnapshot())

	rec := doRequest(t, router, http.MethodGet, "/v1/leagues/7/standings?page=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.Nil(t, envelope.Error)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["total_rows"])
}

func TestHealthzBypassesAuth(t *testing.T) {
	router := newTestRouter(marketSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
